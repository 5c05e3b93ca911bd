// Package config loads stackvm.toml settings for the CLI and the API server.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/krehermann/stackvm/core"
)

const (
	DefaultInput           = "in.txt"
	DefaultTokens          = "tokens.txt"
	DefaultListen          = ":8080"
	DefaultAPIMaxSteps     = 10_000_000
	DefaultMaxProgramBytes = 1 << 20
)

type Config struct {
	Program ProgramConfig `toml:"program"`
	Run     RunConfig     `toml:"run"`
	API     APIConfig     `toml:"api"`
	Log     LogConfig     `toml:"log"`
}

// ProgramConfig names the files used by a single CLI run.
type ProgramConfig struct {
	Input string `toml:"input"`
	// Tokens is the diagnostic instruction dump. Empty disables it.
	Tokens string `toml:"tokens"`
	Format string `toml:"format"`
}

type RunConfig struct {
	Trace bool `toml:"trace"`
	// MaxSteps of zero runs without a bound.
	MaxSteps int `toml:"max-steps"`
}

type APIConfig struct {
	Listen          string `toml:"listen"`
	MaxSteps        int    `toml:"max-steps"`
	MaxProgramBytes int64  `toml:"max-program-bytes"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Default() *Config {
	return &Config{
		Program: ProgramConfig{
			Input:  DefaultInput,
			Tokens: DefaultTokens,
			Format: core.FormatText,
		},
		API: APIConfig{
			Listen:          DefaultListen,
			MaxSteps:        DefaultAPIMaxSteps,
			MaxProgramBytes: DefaultMaxProgramBytes,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if _, err := core.NewInstructionEncoder(c.Program.Format, nil); err != nil {
		return err
	}
	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("run.max-steps must not be negative")
	}
	if c.API.MaxSteps < 0 {
		return fmt.Errorf("api.max-steps must not be negative")
	}
	if c.API.MaxProgramBytes <= 0 {
		return fmt.Errorf("api.max-program-bytes must be positive")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Logger builds a development logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = lvl
	return zc.Build()
}
