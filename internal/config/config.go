// Package config manages runtime configuration from environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const envPrefix = "EPUBHL_"

// Config holds runtime configuration for one highlighting run.
type Config struct {
	Input   string
	Output  string
	Style   string
	Classes bool
	Watch   bool
	Verbose bool
}

// Default returns ready-to-use defaults prior to env/flag overrides.
func Default() Config {
	return Config{
		Style: "friendly",
	}
}

// RegisterFlags attaches configuration flags to the provided FlagSet.
// Input and output paths are positional arguments, not flags.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Style, "style", "s", cfg.Style, "highlight style name (see --list-styles)")
	fs.BoolVar(&cfg.Classes, "classes", cfg.Classes, "emit class-based spans and amend the archive stylesheet instead of inline styles")
	fs.BoolVarP(&cfg.Watch, "watch", "w", cfg.Watch, "keep running and re-process when the input file changes")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable verbose logging")
}

// ApplyEnvOverrides reads supported environment variables and overrides cfg in place.
func ApplyEnvOverrides(cfg *Config) {
	applyStringEnv("STYLE", func(v string) { cfg.Style = v })
	applyBoolEnv("CLASSES", func(v bool) { cfg.Classes = v })
	applyBoolEnv("WATCH", func(v bool) { cfg.Watch = v })
	applyBoolEnv("VERBOSE", func(v bool) { cfg.Verbose = v })
}

func applyStringEnv(key string, apply func(string)) {
	if raw, ok := lookupNonEmpty(key); ok {
		apply(raw)
	}
}

func applyBoolEnv(key string, apply func(bool)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.ParseBool(raw); err == nil {
			apply(value)
		}
	}
}

func lookupNonEmpty(key string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

// Finalize validates the configuration and normalizes paths.
func Finalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return errors.New("input path is required")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return errors.New("output path is required")
	}
	if strings.TrimSpace(cfg.Style) == "" {
		return errors.New("style name is required")
	}

	input, err := filepath.Abs(cfg.Input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	cfg.Input = input

	output, err := filepath.Abs(cfg.Output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	cfg.Output = output

	// A watch run writing over its own input would trigger itself forever.
	if cfg.Watch && cfg.Input == cfg.Output {
		return errors.New("--watch requires distinct input and output paths")
	}
	return nil
}
