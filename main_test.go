package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/krehermann/stackvm/config"
	"github.com/krehermann/stackvm/core"
	"github.com/krehermann/stackvm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, src string) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Program.Input = filepath.Join(dir, "in.txt")
	cfg.Program.Tokens = filepath.Join(dir, "tokens.txt")
	require.NoError(t, os.WriteFile(cfg.Program.Input, []byte(src), 0644))
	return cfg
}

func TestRunProgram(t *testing.T) {
	cfg := testConfig(t, "72\" 105\" 10\"\n")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	err := runProgram(cfg, false, stdout, stderr, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "Hi\n", stdout.String())

	tokens, err := os.ReadFile(cfg.Program.Tokens)
	require.NoError(t, err)
	assert.Equal(t, "Vpush(72)\nPrint\nVpush(105)\nPrint\nVpush(10)\nPrint\n", string(tokens))
}

func TestRunProgram_Fault(t *testing.T) {
	cfg := testConfig(t, `72" _ 105"`)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	err := runProgram(cfg, false, stdout, stderr, zap.NewNop())
	require.Error(t, err)
	assert.True(t, vm.IsFault(err))
	// flushed up to the fault, nothing after it
	assert.Equal(t, "H", stdout.String())

	// the dump is written before execution
	_, err = os.Stat(cfg.Program.Tokens)
	assert.NoError(t, err)
}

func TestRunProgram_TraceAndState(t *testing.T) {
	cfg := testConfig(t, "1 2+ ")
	cfg.Program.Tokens = ""
	cfg.Run.Trace = true
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	require.NoError(t, runProgram(cfg, true, stdout, stderr, zap.NewNop()))
	assert.Contains(t, stderr.String(), "2: Add [1 2] []")
	assert.Contains(t, stderr.String(), "Values:")
	assert.Empty(t, stdout.String())
}

func TestRunProgram_CBORDump(t *testing.T) {
	cfg := testConfig(t, "7 8- ")
	cfg.Program.Format = core.FormatCBOR
	require.NoError(t, runProgram(cfg, false, &bytes.Buffer{}, &bytes.Buffer{}, zap.NewNop()))

	f, err := os.Open(cfg.Program.Tokens)
	require.NoError(t, err)
	defer f.Close()

	var got []vm.Instruction
	require.NoError(t, core.NewCBORInstructionDecoder(f).Decode(&got))
	assert.Equal(t, []vm.Instruction{vm.Push(7), vm.Push(8), vm.Op(vm.OpSub)}, got)
}

func TestRunProgram_MissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.Program.Input = filepath.Join(t.TempDir(), "nope.txt")
	err := runProgram(cfg, false, &bytes.Buffer{}, &bytes.Buffer{}, zap.NewNop())
	assert.Error(t, err)
	assert.False(t, vm.IsFault(err))
}

func TestLoadConfig_Flags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stackvm.toml")
	require.NoError(t, os.WriteFile(path, []byte("[program]\ninput = \"a.txt\"\ntokens = \"a.tok\"\n"), 0644))

	o, set, err := parseFlags([]string{"-config", path, "-tokens", "", "-format", "gob", "-v"})
	require.NoError(t, err)
	cfg, err := loadConfig(o, set)
	require.NoError(t, err)

	// file value kept where no flag was given
	assert.Equal(t, "a.txt", cfg.Program.Input)
	// explicit flags win, including empty ones
	assert.Equal(t, "", cfg.Program.Tokens)
	assert.Equal(t, "gob", cfg.Program.Format)
	assert.Equal(t, "debug", cfg.Log.Level)

	o, set, err = parseFlags([]string{"-format", "yaml"})
	require.NoError(t, err)
	_, err = loadConfig(o, set)
	assert.Error(t, err)
}
