// Package scoring is the application service that scores one molecule for
// one property.  It is shared by the HTTP API, the queue worker and the CLI.
package scoring

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	domain "github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/engine"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

// Placeholder artifact paths shown in previews.
const (
	PreviewInputPath  = "<input>.smi"
	PreviewOutputPath = "<output>.csv"
)

const archiveTimeout = 30 * time.Second

// Request asks for one property of one molecule.  An empty Property selects
// the configured default.
type Request struct {
	RequestID string `json:"request_id,omitempty"`
	Molecule  string `json:"molecule"`
	Property  string `json:"property,omitempty"`
}

// Result is a scored molecule.  Value is the engine's cell verbatim; Score
// is set when Value parses as a finite number.
type Result struct {
	RequestID  string        `json:"request_id"`
	Property   string        `json:"property"`
	Label      string        `json:"label"`
	Value      string        `json:"value"`
	Score      *float64      `json:"score,omitempty"`
	Cached     bool          `json:"cached"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// PropertyInfo describes one advertised property.
type PropertyInfo struct {
	Name        string `json:"name"`
	Family      string `json:"family"`
	Raw         bool   `json:"raw"`
	Description string `json:"description"`
}

// Preview is the engine document a request would dispatch.
type Preview struct {
	Property string         `json:"property"`
	Label    string         `json:"label"`
	Job      map[string]any `json:"job"`
}

// Runner carries a molecule across the engine boundary.  *engine.Channel
// implements it.
type Runner interface {
	Run(ctx context.Context, molecule string,
		build func(inputPath, outputPath string) *domain.JobConfiguration,
		consume func(outputPath string) error) error
}

// ResultCache returns a cached raw value for key or computes and stores it.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) (string, error)) (value string, hit bool, err error)
}

// Archiver keeps a copy of each engine run.
type Archiver interface {
	Archive(ctx context.Context, rec domain.RunRecord) error
}

// Metrics receives scoring measurements.
type Metrics interface {
	ObserveScore(property string, err error, d time.Duration)
	ObserveEngineRun(property string, err error, d time.Duration)
	EngineStarted()
	EngineFinished()
	CacheAccess(hit bool)
	ArchiveWritten(err error)
}

// Config tunes the service.
type Config struct {
	DefaultProperty domain.Selector
	Parameters      domain.Parameters
	Device          string
	Timeout         time.Duration
	MaxConcurrent   int
}

// Option customises a Service.
type Option func(*Service)

func WithCache(c ResultCache) Option        { return func(s *Service) { s.cache = c } }
func WithArchiver(a Archiver) Option        { return func(s *Service) { s.archiver = a } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// Service scores molecules.  It is safe for concurrent use; the parameter
// bag can be swapped at any time and each request reads it exactly once.
type Service struct {
	runner   Runner
	cfg      Config
	params   atomic.Pointer[domain.Parameters]
	def      atomic.Pointer[domain.Selector]
	slots    *semaphore.Weighted
	cache    ResultCache
	archiver Archiver
	metrics  Metrics
	logger   logging.Logger
	now      func() time.Time
}

// NewService validates cfg and builds a Service around runner.
func NewService(runner Runner, cfg Config, logger logging.Logger, opts ...Option) (*Service, error) {
	if runner == nil {
		return nil, errors.InvalidParam("scoring runner is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.DefaultProperty == "" {
		cfg.DefaultProperty = domain.SelectorQED
	}
	if !cfg.DefaultProperty.IsValid() {
		return nil, errors.Newf(errors.ErrCodeUnknownProperty, "unknown default property %q", string(cfg.DefaultProperty))
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Device == "" {
		cfg.Device = domain.DefaultDevice
	}
	if err := cfg.Parameters.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid scoring parameters")
	}

	s := &Service{
		runner:  runner,
		cfg:     cfg,
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		metrics: nopMetrics{},
		logger:  logger.Named("scoring"),
		now:     time.Now,
	}
	p := cfg.Parameters.Clone()
	s.params.Store(&p)
	def := cfg.DefaultProperty
	s.def.Store(&def)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Parameters returns a copy of the current parameter bag.
func (s *Service) Parameters() domain.Parameters {
	return s.params.Load().Clone()
}

// UpdateParameters validates p and swaps it in for subsequent requests.
// In-flight requests keep the bag they started with.
func (s *Service) UpdateParameters(p domain.Parameters) error {
	if err := p.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid scoring parameters")
	}
	c := p.Clone()
	s.params.Store(&c)
	s.logger.Info("scoring parameters updated")
	return nil
}

// DefaultProperty is the selector used when a request names none.
func (s *Service) DefaultProperty() domain.Selector {
	return *s.def.Load()
}

// UpdateDefaultProperty swaps the default selector for subsequent requests.
func (s *Service) UpdateDefaultProperty(sel domain.Selector) error {
	if !sel.IsValid() {
		return errors.Newf(errors.ErrCodeUnknownProperty, "unknown default property %q", string(sel))
	}
	s.def.Store(&sel)
	s.logger.Info("default property updated", logging.String(logging.FieldProperty, sel.String()))
	return nil
}

// Properties lists every selector the service accepts.
func (s *Service) Properties() []PropertyInfo {
	sels := domain.AllSelectors()
	out := make([]PropertyInfo, 0, len(sels))
	for _, sel := range sels {
		fam, _ := sel.Family()
		out = append(out, PropertyInfo{
			Name:        sel.String(),
			Family:      fam.String(),
			Raw:         sel.Raw(),
			Description: sel.Description(),
		})
	}
	return out
}

// Preview resolves property against the current parameters and returns the
// engine document without running the engine.
func (s *Service) Preview(property string) (*Preview, error) {
	sel, err := s.selector(property)
	if err != nil {
		return nil, err
	}
	resolved, err := domain.Resolve(sel, *s.params.Load())
	if err != nil {
		return nil, err
	}
	job := domain.Assemble(resolved, PreviewInputPath, PreviewOutputPath, domain.JobOptions{Device: s.cfg.Device})
	return &Preview{
		Property: sel.String(),
		Label:    resolved.Label,
		Job:      engine.RunDocument(job),
	}, nil
}

func (s *Service) selector(property string) (domain.Selector, error) {
	if strings.TrimSpace(property) == "" {
		return s.DefaultProperty(), nil
	}
	return domain.ParseSelector(property)
}

func validateMolecule(m string) error {
	if strings.TrimSpace(m) == "" {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "molecule must not be empty")
	}
	if strings.ContainsAny(m, "\r\n") {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "molecule must be a single line")
	}
	return nil
}

// Score runs the full pipeline for req.  Selector and molecule problems are
// reported before any artifact is created or the engine is touched.
func (s *Service) Score(ctx context.Context, req Request) (res *Result, err error) {
	start := s.now()
	id := req.RequestID
	if !domain.ValidRequestID(id) {
		id = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, id)
	log := s.logger.WithContext(ctx)
	if req.RequestID != "" && req.RequestID != id {
		log.Info("caller request id replaced", logging.Int("supplied_len", len(req.RequestID)))
	}

	property := strings.TrimSpace(req.Property)
	defer func() {
		d := s.now().Sub(start)
		s.metrics.ObserveScore(metricProperty(property, res), err, d)
		if err != nil {
			log.WithError(err).Warn("scoring failed", logging.String(logging.FieldProperty, property))
		}
	}()

	if err := validateMolecule(req.Molecule); err != nil {
		return nil, err
	}
	sel, err := s.selector(property)
	if err != nil {
		return nil, err
	}
	property = sel.String()

	params := s.params.Load()
	resolved, err := domain.Resolve(sel, *params)
	if err != nil {
		return nil, err
	}

	compute := func(ctx context.Context) (string, error) {
		return s.runEngine(ctx, id, req.Molecule, resolved)
	}

	var (
		value string
		hit   bool
	)
	if s.cache != nil {
		key, kerr := CacheKey(sel, req.Molecule, resolved)
		if kerr != nil {
			return nil, kerr
		}
		value, hit, err = s.cache.GetOrCompute(ctx, key, compute)
		s.metrics.CacheAccess(hit)
	} else {
		value, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}

	d := s.now().Sub(start)
	res = &Result{
		RequestID:  id,
		Property:   property,
		Label:      resolved.Label,
		Value:      value,
		Score:      parseScore(value),
		Cached:     hit,
		Duration:   d,
		DurationMS: d.Milliseconds(),
	}
	log.Info("molecule scored",
		logging.String(logging.FieldProperty, property),
		logging.String(logging.FieldLabel, resolved.Label),
		logging.Bool("cached", hit),
		logging.Int64(logging.FieldDuration, d.Milliseconds()))
	return res, nil
}

// runEngine waits for an engine slot, then drives one engine run under the
// configured timeout.
func (s *Service) runEngine(ctx context.Context, id, molecule string, resolved domain.ResolvedComponent) (string, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrap(err, errors.ErrCodeTimeout, "timed out waiting for a scoring engine slot")
		}
		return "", errors.Wrap(err, errors.ErrCodeServiceUnavailable, "request cancelled while waiting for a scoring engine slot")
	}
	defer s.slots.Release(1)

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var (
		value  string
		output []byte
		job    *domain.JobConfiguration
	)
	build := func(in, out string) *domain.JobConfiguration {
		job = domain.Assemble(resolved, in, out, domain.JobOptions{Device: s.cfg.Device})
		return job
	}
	consume := func(out string) error {
		if s.archiver == nil {
			v, err := engine.Extract(out, resolved.Label)
			value = v
			return err
		}
		// One read serves both the extractor and the archive.
		data, err := os.ReadFile(out)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeEmptyResult, "scoring engine output is not readable")
		}
		v, err := engine.ExtractFrom(bytes.NewReader(data), resolved.Label)
		if err != nil {
			return err
		}
		value, output = v, data
		return nil
	}

	s.metrics.EngineStarted()
	started := s.now()
	err := s.runner.Run(runCtx, molecule, build, consume)
	s.metrics.EngineFinished()
	s.metrics.ObserveEngineRun(resolved.Selector.String(), err, s.now().Sub(started))
	if err != nil {
		return "", err
	}

	if s.archiver != nil && job != nil {
		s.archive(ctx, domain.RunRecord{
			RequestID: id,
			RunID:     uuid.NewString(),
			Property:  resolved.Selector.String(),
			Label:     resolved.Label,
			Job:       engine.RunDocument(job),
			Output:    output,
			At:        s.now().UTC(),
		})
	}
	return value, nil
}

// archive stores rec.  Failures are logged and counted, never returned.
func (s *Service) archive(ctx context.Context, rec domain.RunRecord) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	err := s.archiver.Archive(actx, rec)
	s.metrics.ArchiveWritten(err)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("run archive failed")
	}
}

// CacheKey fingerprints a request: the selector, the molecule and the
// resolved component document.  Any parameter change alters the document and
// therefore the key.
func CacheKey(sel domain.Selector, molecule string, resolved domain.ResolvedComponent) (string, error) {
	doc, err := json.Marshal(resolved.Document())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to fingerprint component")
	}
	h := sha256.New()
	h.Write([]byte(sel))
	h.Write([]byte{0})
	h.Write([]byte(molecule))
	h.Write([]byte{0})
	h.Write(doc)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func parseScore(v string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// metricProperty keeps label cardinality bounded: unknown selectors are
// folded into one value.
func metricProperty(property string, res *Result) string {
	if res != nil {
		return res.Property
	}
	if sel, err := domain.ParseSelector(property); err == nil {
		return sel.String()
	}
	if property == "" {
		return "default"
	}
	return "unknown"
}

type nopMetrics struct{}

func (nopMetrics) ObserveScore(string, error, time.Duration)     {}
func (nopMetrics) ObserveEngineRun(string, error, time.Duration) {}
func (nopMetrics) EngineStarted()                                {}
func (nopMetrics) EngineFinished()                               {}
func (nopMetrics) CacheAccess(bool)                              {}
func (nopMetrics) ArchiveWritten(error)                          {}

//Personal.AI order the ending
