// Package config loads and validates the video-split configuration from
// defaults, an optional YAML config file, environment variables, and command
// line flags, in that precedence order.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

const (
	// EnvPrefix is the environment variable prefix, e.g. VIDEOSPLIT_OUTPUT.
	EnvPrefix = "VIDEOSPLIT"
	// DefaultConfigName is the config file base name searched for when no
	// --config flag is given.
	DefaultConfigName = "video-split"
)

// Default detector settings, also written to a fresh config file.
const (
	DefaultThreshold   = 17.0
	DefaultMinSceneLen = 0.6
	DefaultFrameWindow = 2
	DefaultOutput      = "./output"
	DefaultStatsFile   = "./output/stats.json"
)

// Config is the fully merged, validated configuration for one invocation.
type Config struct {
	Output        string               `mapstructure:"output" yaml:"output"`
	CreateSubdirs bool                 `mapstructure:"createSubdirs" yaml:"createSubdirs"`
	SaveStats     bool                 `mapstructure:"saveStats" yaml:"saveStats"`
	StatsFile     string               `mapstructure:"statsFile" yaml:"statsFile"`
	Concurrency   int                  `mapstructure:"concurrency" yaml:"concurrency"`
	JobTimeout    time.Duration        `mapstructure:"jobTimeout" yaml:"jobTimeout"`
	Detector      batch.DetectorParams `mapstructure:"detector" yaml:"detector"`
	Verbose       bool                 `mapstructure:"verbose" yaml:"verbose"`
	NoTUI         bool                 `mapstructure:"noTui" yaml:"noTui"`

	// ConfigFilePath records which file was actually loaded, if any.
	ConfigFilePath string `mapstructure:"-" yaml:"-"`
}

// Default returns the built-in configuration, the same values written to a
// fresh config file.
func Default() Config {
	return Config{
		Output:    DefaultOutput,
		StatsFile: DefaultStatsFile,
		Detector: batch.DetectorParams{
			Threshold:   DefaultThreshold,
			MinSceneLen: DefaultMinSceneLen,
			FrameWindow: DefaultFrameWindow,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("output", d.Output)
	v.SetDefault("createSubdirs", d.CreateSubdirs)
	v.SetDefault("saveStats", d.SaveStats)
	v.SetDefault("statsFile", d.StatsFile)
	v.SetDefault("concurrency", 0)
	v.SetDefault("jobTimeout", time.Duration(0))
	v.SetDefault("detector.threshold", d.Detector.Threshold)
	v.SetDefault("detector.minSceneLen", d.Detector.MinSceneLen)
	v.SetDefault("detector.frameWindow", d.Detector.FrameWindow)
	v.SetDefault("detector.lumaOnly", d.Detector.LumaOnly)
	v.SetDefault("verbose", false)
	v.SetDefault("noTui", false)
}

// LoadAndValidate merges all configuration sources and returns the validated
// Config plus the logger built from its verbosity. When no config file exists
// and none was requested explicitly, a default one is written to the working
// directory so users have something to edit.
func LoadAndValidate(cfgFile string, flags *pflag.FlagSet) (Config, *slog.Logger, error) {
	var cfg Config
	v := viper.New()
	setDefaults(v)

	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			if writeErr := SaveDefault(DefaultConfigName + ".yaml"); writeErr != nil {
				tempLogger.Debug("could not write default config file", slog.Any("error", writeErr))
			} else {
				tempLogger.Info("wrote default configuration", slog.String("path", DefaultConfigName+".yaml"))
			}
		} else {
			return cfg, tempLogger, fmt.Errorf("%w: reading config file: %v", batch.ErrConfigValidation, err)
		}
	} else {
		cfg.ConfigFilePath = v.ConfigFileUsed()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return cfg, tempLogger, fmt.Errorf("%w: binding flags: %v", batch.ErrConfigValidation, err)
		}
	}

	configFilePath := cfg.ConfigFilePath
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, tempLogger, fmt.Errorf("%w: %v", batch.ErrConfigValidation, err)
	}
	cfg.ConfigFilePath = configFilePath

	if err := cfg.Validate(); err != nil {
		return cfg, tempLogger, err
	}

	logger := NewLogger(os.Stderr, cfg.Verbose)
	return cfg, logger, nil
}

// flagBindings maps kebab-case flag names to their viper keys. Only flags the
// caller actually registered are bound.
var flagBindings = map[string]string{
	"output":        "output",
	"subdirs":       "createSubdirs",
	"save-stats":    "saveStats",
	"stats-file":    "statsFile",
	"concurrency":   "concurrency",
	"timeout":       "jobTimeout",
	"threshold":     "detector.threshold",
	"min-scene-len": "detector.minSceneLen",
	"luma-only":     "detector.lumaOnly",
	"no-tui":        "noTui",
	"verbose":       "verbose",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagBindings {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks the merged configuration before any job is submitted.
func (c Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("%w: output directory must not be empty", batch.ErrConfigValidation)
	}
	if c.SaveStats && c.StatsFile == "" {
		return fmt.Errorf("%w: statsFile must be set when saveStats is enabled", batch.ErrConfigValidation)
	}
	if c.Detector.Threshold <= 0 || c.Detector.Threshold > 100 {
		return fmt.Errorf("%w: detector threshold must be in (0,100], got %v", batch.ErrConfigValidation, c.Detector.Threshold)
	}
	if c.Detector.MinSceneLen < 0 {
		return fmt.Errorf("%w: detector minSceneLen must not be negative", batch.ErrConfigValidation)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative", batch.ErrConfigValidation)
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("%w: jobTimeout must not be negative", batch.ErrConfigValidation)
	}
	return nil
}

// BatchOptions converts the configuration into engine options. The detector
// parameters travel by value, so in-flight jobs keep the snapshot taken here.
func (c Config) BatchOptions(handler slog.Handler, hooks batch.Hooks, detector batch.SceneDetector, splitter batch.SceneSplitter) batch.Options {
	return batch.Options{
		OutputDir:     c.Output,
		CreateSubdirs: c.CreateSubdirs,
		SaveStats:     c.SaveStats,
		StatsFilePath: c.StatsFile,
		Detector:      c.Detector,
		Concurrency:   c.Concurrency,
		JobTimeout:    c.JobTimeout,
		DetectorImpl:  detector,
		SplitterImpl:  splitter,
		Logger:        handler,
		EventHooks:    hooks,
	}
}

// SaveDefault writes the default configuration to path as YAML. An existing
// file is left untouched.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// NewLogger builds the process logger. Verbose selects debug level.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
