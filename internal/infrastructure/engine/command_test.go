package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell engine scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-engine.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestNewCommandEngine_Validation(t *testing.T) {
	_, err := NewCommandEngine(CommandConfig{}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = NewCommandEngine(CommandConfig{Command: "reinvent", Format: "yaml"}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	e, err := NewCommandEngine(CommandConfig{Command: "reinvent"}, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, e.cfg.Format)
}

func TestCommandEngine_WritesOutputThroughChannel(t *testing.T) {
	script := writeScript(t, `
cfg=""
for a in "$@"; do cfg="$a"; done
out=$(sed -n 's/.*"output_csv": "\([^"]*\)".*/\1/p' "$cfg")
printf 'SMILES,QED\nCCO,0.77\n' > "$out"
`)
	eng, err := NewCommandEngine(CommandConfig{Command: script, Format: FormatJSON}, logging.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, eng.Available())

	ch := NewChannel(eng, ChannelConfig{Dir: t.TempDir()}, logging.NewNopLogger())
	var value string
	err = ch.Run(context.Background(), "CCO", qedBuilder(t), func(out string) error {
		v, err := Extract(out, "QED")
		value = v
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "0.77", value)
}

func TestCommandEngine_PassesFormatDeviceAndEnv(t *testing.T) {
	script := writeScript(t, `
[ "$1" = "--quiet" ] || exit 11
[ "$2" = "-f" ] && [ "$3" = "toml" ] || exit 12
[ "$4" = "-d" ] && [ "$5" = "cpu" ] || exit 13
grep -q 'run_type = "scoring"' "$6" || exit 14
[ "$RESPONDER_TOKEN" = "secret" ] || exit 15
`)
	eng, err := NewCommandEngine(CommandConfig{
		Command: script,
		Args:    []string{"--quiet"},
		Env:     []string{"RESPONDER_TOKEN=secret"},
	}, logging.NewNopLogger())
	require.NoError(t, err)

	ch := NewChannel(eng, ChannelConfig{Dir: t.TempDir()}, logging.NewNopLogger())
	err = ch.Run(context.Background(), "CCO", qedBuilder(t), func(string) error { return nil })
	require.NoError(t, err)
}

func TestCommandEngine_NonZeroExit(t *testing.T) {
	script := writeScript(t, "echo 'RDKit failed to parse' >&2\nexit 7\n")
	eng, err := NewCommandEngine(CommandConfig{Command: script}, logging.NewNopLogger())
	require.NoError(t, err)

	job := scoring.Assemble(mustResolve(t, scoring.SelectorQED), filepath.Join(t.TempDir(), "in.smi"), "out.csv", scoring.JobOptions{})
	err = eng.Run(context.Background(), job)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEngineInvocation))
	assert.Contains(t, err.Error(), "exit code 7")
	assert.Contains(t, err.Error(), "RDKit failed to parse")
}

func TestCommandEngine_Timeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")
	eng, err := NewCommandEngine(CommandConfig{Command: script}, logging.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	job := scoring.Assemble(mustResolve(t, scoring.SelectorMW), filepath.Join(t.TempDir(), "in.smi"), "out.csv", scoring.JobOptions{})
	err = eng.Run(ctx, job)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEngineTimeout))
}

func TestCommandEngine_RemovesRunConfiguration(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, "exit 0\n")
	eng, err := NewCommandEngine(CommandConfig{Command: script}, logging.NewNopLogger())
	require.NoError(t, err)

	job := scoring.Assemble(mustResolve(t, scoring.SelectorQED), filepath.Join(dir, "in.smi"), filepath.Join(dir, "out.csv"), scoring.JobOptions{})
	require.NoError(t, eng.Run(context.Background(), job))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCommandEngine_Available(t *testing.T) {
	eng, err := NewCommandEngine(CommandConfig{Command: "molscore-engine-that-does-not-exist"}, nil)
	require.NoError(t, err)
	assert.Error(t, eng.Available())
}

func TestEncodeRunDocument_TOML(t *testing.T) {
	job := scoring.Assemble(mustResolve(t, scoring.SelectorPMI2Raw), "in.smi", "out.csv", scoring.JobOptions{})
	data, err := EncodeRunDocument(job, FormatTOML)
	require.NoError(t, err)

	var decoded map[string]any
	_, err = toml.Decode(string(data), &decoded)
	require.NoError(t, err)

	assert.Equal(t, "scoring", decoded["run_type"])
	assert.Equal(t, "cpu", decoded["device"])
	assert.NotContains(t, decoded, "use_cuda")
	assert.NotContains(t, decoded, "json_out_config")

	sc := decoded["scoring"].(map[string]any)
	assert.Equal(t, "geometric_mean", sc["type"])
	comps := sc["component"].([]map[string]any)
	require.Len(t, comps, 1)
	pmi := comps[0]["pmi"].(map[string]any)
	assert.Equal(t, "PMI 3D-likeness", pmi["name"])
}

func TestEncodeRunDocument_UnknownFormat(t *testing.T) {
	_, err := EncodeRunDocument(scoring.DefaultJob(), "yaml")
	assert.Error(t, err)
}

func TestTailBuffer_KeepsSuffix(t *testing.T) {
	b := newTailBuffer(4)
	_, _ = b.Write([]byte("abc"))
	_, _ = b.Write([]byte("defg"))
	assert.Equal(t, "defg", b.String())
}

func mustResolve(t *testing.T, sel scoring.Selector) scoring.ResolvedComponent {
	t.Helper()
	r, err := scoring.Resolve(sel, scoring.DefaultParameters())
	require.NoError(t, err)
	return r
}

//Personal.AI order the ending
