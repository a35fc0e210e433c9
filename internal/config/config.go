package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. NOISE_SYNTH_SEED.
const EnvPrefix = "NOISE"

// Config holds all runtime configuration. Values come from defaults, an
// optional YAML file and NOISE_* environment variables, in rising priority.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Synth  SynthConfig  `mapstructure:"synth" yaml:"synth"`
	Serve  ServeConfig  `mapstructure:"serve" yaml:"serve"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // console or json
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal color names.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// SynthConfig bounds and seeds clip synthesis.
type SynthConfig struct {
	Seed          uint64 `mapstructure:"seed" yaml:"seed"` // 0 = pick one per run
	MaxDuration   int    `mapstructure:"max_duration" yaml:"max_duration"`
	MaxSampleRate int    `mapstructure:"max_sample_rate" yaml:"max_sample_rate"`
}

// ServeConfig drives the preview server.
type ServeConfig struct {
	Port              int           `mapstructure:"port" yaml:"port"`
	StartingColor     string        `mapstructure:"starting_color" yaml:"starting_color"`
	ClipDuration      int           `mapstructure:"clip_duration" yaml:"clip_duration"` // seconds
	Crossfade         time.Duration `mapstructure:"crossfade" yaml:"crossfade"`
	BufferAhead       int           `mapstructure:"buffer_ahead" yaml:"buffer_ahead"` // clips to pre-render
	DwellMin          int           `mapstructure:"dwell_min" yaml:"dwell_min"`       // min seconds per color
	DwellMax          int           `mapstructure:"dwell_max" yaml:"dwell_max"`       // max seconds per color
	OutputDir         string        `mapstructure:"output_dir" yaml:"output_dir"`
	OpusBitrate       int           `mapstructure:"opus_bitrate" yaml:"opus_bitrate"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// SetDefaults registers every key with its default so env overrides and
// Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "noisemachine")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("synth.seed", 0)
	v.SetDefault("synth.max_duration", 30)
	v.SetDefault("synth.max_sample_rate", 768000)

	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.starting_color", "pink")
	v.SetDefault("serve.clip_duration", 20)
	v.SetDefault("serve.crossfade", 4*time.Second)
	v.SetDefault("serve.buffer_ahead", 2)
	v.SetDefault("serve.dwell_min", 120)
	v.SetDefault("serve.dwell_max", 600)
	v.SetDefault("serve.output_dir", filepath.Join(os.TempDir(), "noisemachine"))
	v.SetDefault("serve.opus_bitrate", 64000)
	v.SetDefault("serve.requests_per_second", 2.0)
	v.SetDefault("serve.burst", 4)
}

// NewViper returns a viper instance with defaults and NOISE_* env binding.
// When cfgFile is empty, ./noisemachine.yaml is used if present.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("noisemachine")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env only.
	}
	return v, nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.Synth.MaxDuration < 0 {
		return fmt.Errorf("synth.max_duration must not be negative, got %d", c.Synth.MaxDuration)
	}
	if c.Synth.MaxSampleRate <= 0 {
		return fmt.Errorf("synth.max_sample_rate must be positive, got %d", c.Synth.MaxSampleRate)
	}
	if c.Serve.ClipDuration < 1 || c.Serve.ClipDuration > c.Synth.MaxDuration {
		return fmt.Errorf("serve.clip_duration must be 1-%d, got %d", c.Synth.MaxDuration, c.Serve.ClipDuration)
	}
	if c.Serve.DwellMax < c.Serve.DwellMin {
		return fmt.Errorf("serve.dwell_max (%d) is below serve.dwell_min (%d)", c.Serve.DwellMax, c.Serve.DwellMin)
	}
	if c.Serve.BufferAhead < 1 {
		return fmt.Errorf("serve.buffer_ahead must be at least 1, got %d", c.Serve.BufferAhead)
	}
	return nil
}
