package engine

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

// Input formats the engine CLI accepts for its run configuration.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

const (
	defaultStderrTail = 4096
	defaultWaitDelay  = 5 * time.Second
)

// CommandConfig configures the subprocess engine.
type CommandConfig struct {
	// Command is the engine executable, e.g. "reinvent".
	Command string `mapstructure:"command"`
	// Args are placed before the generated "-f <format> -d <device> <file>".
	Args []string `mapstructure:"args"`
	// Format is the run configuration encoding: toml or json.
	Format string `mapstructure:"format"`
	// WorkDir is the working directory of the subprocess.
	WorkDir string `mapstructure:"work_dir"`
	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string `mapstructure:"env"`
	// StderrTailBytes bounds how much stderr is kept for error reports.
	StderrTailBytes int `mapstructure:"stderr_tail_bytes"`
}

// CommandEngine runs the scoring engine as a child process, one per job.
type CommandEngine struct {
	cfg    CommandConfig
	logger logging.Logger
}

// NewCommandEngine validates cfg and returns a CommandEngine.
func NewCommandEngine(cfg CommandConfig, logger logging.Logger) (*CommandEngine, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.InvalidParam("engine command is required")
	}
	if cfg.Format == "" {
		cfg.Format = FormatTOML
	}
	if cfg.Format != FormatTOML && cfg.Format != FormatJSON {
		return nil, errors.InvalidParam(fmt.Sprintf("engine format %q is invalid; expected toml|json", cfg.Format))
	}
	if cfg.StderrTailBytes <= 0 {
		cfg.StderrTailBytes = defaultStderrTail
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CommandEngine{cfg: cfg, logger: logger.Named("engine.command")}, nil
}

// Available reports whether the configured command resolves to an executable.
func (e *CommandEngine) Available() error {
	if _, err := exec.LookPath(e.cfg.Command); err != nil {
		return fmt.Errorf("engine command %q not found: %w", e.cfg.Command, err)
	}
	return nil
}

// Run writes the run configuration next to the artifacts, invokes the engine
// and waits for it to exit.
func (e *CommandEngine) Run(ctx context.Context, job *scoring.JobConfiguration) error {
	cfgPath, err := e.writeRunConfig(job)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := os.Remove(cfgPath); rerr != nil && !os.IsNotExist(rerr) {
			e.logger.Warn("failed to remove run configuration", logging.String(logging.FieldArtifact, cfgPath), logging.Err(rerr))
		}
	}()

	args := append(append([]string{}, e.cfg.Args...), "-f", e.cfg.Format, "-d", job.Device, cfgPath)
	cmd := exec.CommandContext(ctx, e.cfg.Command, args...)
	cmd.Dir = e.cfg.WorkDir
	cmd.Env = append(os.Environ(), e.cfg.Env...)
	cmd.WaitDelay = defaultWaitDelay

	stderr := newTailBuffer(e.cfg.StderrTailBytes)
	stdout := newTailBuffer(e.cfg.StderrTailBytes)
	cmd.Stderr = stderr
	cmd.Stdout = stdout

	start := time.Now()
	runErr := cmd.Run()
	log := e.logger.WithContext(ctx).With(logging.Duration("elapsed", time.Since(start)))

	if runErr == nil {
		log.Debug("engine exited", logging.String("stdout", stdout.String()))
		return nil
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(runErr, errors.ErrCodeEngineTimeout, "scoring engine did not finish before the deadline")
	}

	detail := strings.TrimSpace(stderr.String())
	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		detail = fmt.Sprintf("exit code %d: %s", exitErr.ExitCode(), detail)
	}
	log.Warn("engine failed", logging.Err(runErr), logging.String("stderr", detail))
	return errors.Wrap(runErr, errors.ErrCodeEngineInvocation, "scoring engine failed").WithDetail(detail)
}

// RunDocument is what the subprocess receives: the run type, the device and
// the operational sections of the job.
func RunDocument(job *scoring.JobConfiguration) map[string]any {
	doc := job.Sections()
	doc["run_type"] = job.RunType
	doc["device"] = job.Device
	return doc
}

// EncodeRunDocument serialises the run document in format.
func EncodeRunDocument(job *scoring.JobConfiguration, format string) ([]byte, error) {
	doc := RunDocument(job)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported run configuration format %q", format)
	}
}

func (e *CommandEngine) writeRunConfig(job *scoring.JobConfiguration) (string, error) {
	data, err := EncodeRunDocument(job, e.cfg.Format)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode run configuration")
	}

	f, err := os.CreateTemp(e.runConfigDir(job), DefaultArtifactPrefix+"*."+e.cfg.Format)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArtifactIO, "failed to create run configuration")
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(f.Name())
		cause := werr
		if cause == nil {
			cause = cerr
		}
		return "", errors.Wrap(cause, errors.ErrCodeArtifactIO, "failed to write run configuration")
	}
	return f.Name(), nil
}

// runConfigDir keeps the run configuration beside the input artifact.
func (e *CommandEngine) runConfigDir(job *scoring.JobConfiguration) string {
	if job.Parameters.SmilesFile == "" {
		return ""
	}
	return filepath.Dir(job.Parameters.SmilesFile)
}

// tailBuffer keeps the last n bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	n   int
	buf []byte
}

func newTailBuffer(n int) *tailBuffer { return &tailBuffer{n: n} }

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.n; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

//Personal.AI order the ending
