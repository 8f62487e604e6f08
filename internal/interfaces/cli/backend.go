package cli

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/turtacn/molscore/internal/application/scoring"
	"github.com/turtacn/molscore/internal/bootstrap"
	"github.com/turtacn/molscore/internal/config"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/client"
	"github.com/turtacn/molscore/pkg/errors"
)

// Backend is what the commands score against: a local engine or a remote
// API server.
type Backend interface {
	Score(ctx context.Context, req scoring.Request) (*scoring.Result, error)
	Properties(ctx context.Context) (*Catalogue, error)
	Preview(ctx context.Context, property string) (*scoring.Preview, error)
}

// Catalogue lists the scorable properties and the default one.
type Catalogue struct {
	Default    string                 `json:"default"`
	Properties []scoring.PropertyInfo `json:"properties"`
}

// BackendFactory builds a Backend for cfg.  The returned func releases it.
type BackendFactory func(cfg *config.Config, logger logging.Logger) (Backend, func() error, error)

// LocalBackend scores through a locally spawned engine, without cache or
// archive.
func LocalBackend(cfg *config.Config, logger logging.Logger) (Backend, func() error, error) {
	cfg.Metrics.Enabled = false
	s, err := bootstrap.NewScoring(cfg, logger, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}
	return &localBackend{svc: s.Service}, s.Close, nil
}

type localBackend struct {
	svc *scoring.Service
}

func (b *localBackend) Score(ctx context.Context, req scoring.Request) (*scoring.Result, error) {
	return b.svc.Score(ctx, req)
}

func (b *localBackend) Properties(context.Context) (*Catalogue, error) {
	return &Catalogue{Default: b.svc.DefaultProperty().String(), Properties: b.svc.Properties()}, nil
}

func (b *localBackend) Preview(_ context.Context, property string) (*scoring.Preview, error) {
	return b.svc.Preview(property)
}

// RemoteBackend returns a factory that scores through the API server at
// baseURL.
func RemoteBackend(baseURL string, timeout time.Duration) BackendFactory {
	return func(_ *config.Config, logger logging.Logger) (Backend, func() error, error) {
		opts := []client.Option{client.WithUserAgent("molscore-cli/" + Version)}
		if timeout > 0 {
			opts = append(opts, client.WithTimeout(timeout))
		}
		c, err := client.NewClient(baseURL, opts...)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid server address")
		}
		logger.Debug("scoring remotely", logging.String("server", baseURL))
		return &remoteBackend{c: c}, func() error { return nil }, nil
	}
}

type remoteBackend struct{ c *client.Client }

func (b *remoteBackend) Score(ctx context.Context, req scoring.Request) (*scoring.Result, error) {
	res, err := b.c.Score(ctx, client.ScoreRequest{Molecule: req.Molecule, Property: req.Property})
	if err != nil {
		return nil, remoteError(err)
	}
	return &scoring.Result{
		RequestID:  res.RequestID,
		Property:   res.Property,
		Label:      res.Label,
		Value:      res.Value,
		Score:      res.Score,
		Cached:     res.Cached,
		Duration:   time.Duration(res.DurationMS) * time.Millisecond,
		DurationMS: res.DurationMS,
	}, nil
}

func (b *remoteBackend) Properties(ctx context.Context) (*Catalogue, error) {
	list, err := b.c.Properties(ctx)
	if err != nil {
		return nil, remoteError(err)
	}
	cat := &Catalogue{Default: list.Default, Properties: make([]scoring.PropertyInfo, 0, len(list.Properties))}
	for _, p := range list.Properties {
		cat.Properties = append(cat.Properties, scoring.PropertyInfo{
			Name: p.Name, Family: p.Family, Raw: p.Raw, Description: p.Description,
		})
	}
	return cat, nil
}

func (b *remoteBackend) Preview(ctx context.Context, property string) (*scoring.Preview, error) {
	if property == "" {
		list, err := b.c.Properties(ctx)
		if err != nil {
			return nil, remoteError(err)
		}
		property = list.Default
	}
	pv, err := b.c.Preview(ctx, property)
	if err != nil {
		return nil, remoteError(err)
	}
	return &scoring.Preview{Property: pv.Property, Label: pv.Label, Job: pv.Job}, nil
}

// remoteError restores the server's error code so the command reports it
// the same way as a local failure.
func remoteError(err error) error {
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) && apiErr.Code != "" {
		e := errors.New(errors.ErrorCode(apiErr.Code), apiErr.Message)
		if apiErr.Detail != "" {
			e = e.WithDetail(apiErr.Detail)
		}
		return e
	}
	return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "scoring server unreachable")
}

//Personal.AI order the ending
