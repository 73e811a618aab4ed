package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`

	Runner RunnerConfig `mapstructure:"runner" yaml:"runner"`
}

// RunnerConfig bounds the sandbox execution pipeline.
type RunnerConfig struct {
	// WorkDir is where disposable per-run workspaces are created.
	// Empty means the system temp directory.
	WorkDir        string        `mapstructure:"work_dir" yaml:"work_dir"`
	CompileTimeout time.Duration `mapstructure:"compile_timeout" yaml:"compile_timeout"`
	RunTimeout     time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes" yaml:"max_output_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxMessageBytes:   1 << 20,
		DatabasePath:      "codepad.db",
		Runner: RunnerConfig{
			CompileTimeout: 30 * time.Second,
			RunTimeout:     10 * time.Second,
			MaxOutputBytes: 1 << 20,
		},
	}
}
