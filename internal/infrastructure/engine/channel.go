package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

// DefaultArtifactPrefix starts every transfer artifact name.
const DefaultArtifactPrefix = "reinvent4_scoring_"

const (
	inputSuffix  = ".smi"
	outputSuffix = ".csv"
)

// ChannelConfig locates the transfer artifacts.
type ChannelConfig struct {
	// Dir is the directory artifacts are created in; empty means os.TempDir().
	Dir string `mapstructure:"dir"`
	// Prefix starts each artifact name; empty means DefaultArtifactPrefix.
	Prefix string `mapstructure:"prefix"`
}

// Artifacts are the two files that carry one request across the engine
// boundary.  Both share a per-request prefix.
type Artifacts struct {
	Input  string
	Output string
}

// CleanupHook observes artifact removal failures.
type CleanupHook func(path string, err error)

// ChannelOption customises a Channel.
type ChannelOption func(*Channel)

// WithCleanupHook registers fn for every failed artifact removal.
func WithCleanupHook(fn CleanupHook) ChannelOption {
	return func(c *Channel) { c.onCleanupFailure = fn }
}

// Channel allocates transfer artifacts, drives the engine and always removes
// the artifacts afterwards.  It holds no per-request state and is safe for
// concurrent use.
type Channel struct {
	engine           Engine
	dir              string
	prefix           string
	logger           logging.Logger
	onCleanupFailure CleanupHook
	removeFn         func(string) error
}

// NewChannel creates a Channel around e.
func NewChannel(e Engine, cfg ChannelConfig, logger logging.Logger, opts ...ChannelOption) *Channel {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultArtifactPrefix
	}
	c := &Channel{
		engine:   e,
		dir:      cfg.Dir,
		prefix:   cfg.Prefix,
		logger:   logger.Named("engine.channel"),
		removeFn: os.Remove,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open allocates the artifact pair and writes molecule, verbatim, as the
// whole content of the input artifact.  On failure nothing is left behind.
func (c *Channel) Open(molecule string) (*Artifacts, error) {
	prefix := c.prefix + uuid.NewString()[:8] + "_"

	in, err := os.CreateTemp(c.dir, prefix+"*"+inputSuffix)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactIO, "failed to create input artifact")
	}
	arts := &Artifacts{Input: in.Name()}

	_, werr := in.WriteString(molecule)
	cerr := in.Close()
	if werr != nil || cerr != nil {
		c.Close(arts)
		cause := werr
		if cause == nil {
			cause = cerr
		}
		return nil, errors.Wrap(cause, errors.ErrCodeArtifactIO, "failed to write input artifact")
	}

	out, err := os.CreateTemp(c.dir, prefix+"*"+outputSuffix)
	if err != nil {
		c.Close(arts)
		return nil, errors.Wrap(err, errors.ErrCodeArtifactIO, "failed to create output artifact")
	}
	arts.Output = out.Name()
	if err := out.Close(); err != nil {
		c.Close(arts)
		return nil, errors.Wrap(err, errors.ErrCodeArtifactIO, "failed to close output artifact")
	}
	return arts, nil
}

// Close removes both artifacts.  A missing file is not a failure; any other
// removal error is logged and reported to the cleanup hook, never returned.
func (c *Channel) Close(arts *Artifacts) {
	if arts == nil {
		return
	}
	for _, path := range []string{arts.Input, arts.Output} {
		if path == "" {
			continue
		}
		err := c.removeFn(path)
		if err == nil || os.IsNotExist(err) {
			continue
		}
		c.logger.WithError(errors.Wrap(err, errors.ErrCodeArtifactCleanup, "failed to remove transfer artifact")).
			Warn("artifact cleanup failed", logging.String(logging.FieldArtifact, filepath.Base(path)))
		if c.onCleanupFailure != nil {
			c.onCleanupFailure(path, err)
		}
	}
}

// Run scores molecule through the engine.  build receives the artifact paths
// and returns the job to dispatch; consume receives the output path once the
// engine returned successfully.  Both artifacts are removed before Run
// returns, whatever the outcome.
func (c *Channel) Run(
	ctx context.Context,
	molecule string,
	build func(inputPath, outputPath string) *scoring.JobConfiguration,
	consume func(outputPath string) error,
) error {
	arts, err := c.Open(molecule)
	if err != nil {
		return err
	}
	defer c.Close(arts)

	job := build(arts.Input, arts.Output)

	start := time.Now()
	err = invoke(ctx, c.engine, job)
	c.logger.WithContext(ctx).Debug("engine call finished",
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("ok", err == nil))
	if err != nil {
		return classifyEngineError(ctx, err)
	}
	return consume(arts.Output)
}

//Personal.AI order the ending
