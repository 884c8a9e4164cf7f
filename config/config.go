// Package config loads service configuration for issue-envelope users.
//
// Values come from a YAML file, optionally overridden by environment
// variables, after a .env file has been loaded into the process
// environment.
//
//	cfg, err := config.Load(config.LoadOptions{Path: "./configs", EnvPrefix: "ORDERS"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d := issueenvelope.NewDispatcher(cfg.Envelope)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	issueenvelope "github.com/blackwell-systems/issue-envelope"
)

// AppConfig holds the service identity and listen address.
type AppConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	Env  string `yaml:"env" mapstructure:"env"`
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures the logger built by the logging package.
type LogConfig struct {
	Format       string        `yaml:"format" mapstructure:"format"`
	Level        string        `yaml:"level" mapstructure:"level"`
	ReportCaller bool          `yaml:"report_caller" mapstructure:"report_caller"`
	File         LogFileConfig `yaml:"file" mapstructure:"file"`
}

// LogFileConfig enables a rotated log file next to stdout.
type LogFileConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Filename     string `yaml:"filename" mapstructure:"filename"`
	MaxAgeDays   int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	RotationDays int    `yaml:"rotation_days" mapstructure:"rotation_days"`
}

// TracingConfig selects the span exporter used by telemetry.SetupTracing.
type TracingConfig struct {
	Exporter    string  `yaml:"exporter" mapstructure:"exporter"` // disabled, stdout, otlp
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

// Config is the full service configuration.
type Config struct {
	App      AppConfig            `yaml:"app" mapstructure:"app"`
	Log      LogConfig            `yaml:"log" mapstructure:"log"`
	Tracing  TracingConfig        `yaml:"tracing" mapstructure:"tracing"`
	Envelope issueenvelope.Config `yaml:"issue_envelope" mapstructure:"issue_envelope"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	File          string // explicit config file; overrides Path and Name
	Path          string // config directory, default "./configs"
	Name          string // file name without extension, default "config_<APP_ENV>"
	EnvPrefix     string // enables environment overrides, e.g. ORDERS_LOG_LEVEL
	EnvFile       string // .env file, default ".env" or $ENV_FILE
	AllowNoConfig bool   // tolerate a missing config file
}

// Load reads the configuration described by opts.
func Load(opts LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := LoadInto(cfg, opts, defaults); err != nil {
		return nil, err
	}
	if cfg.App.Env == "" {
		cfg.App.Env = GetEnv()
	}
	return cfg, nil
}

// LoadInto reads configuration into cfg, which must be a pointer to a struct
// with mapstructure tags. setDefaults may register defaults on the viper
// instance before reading.
func LoadInto(cfg any, opts LoadOptions, setDefaults func(v *viper.Viper)) error {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return err
	}

	v := viper.New()
	if setDefaults != nil {
		setDefaults(v)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		path := opts.Path
		if path == "" {
			path = "./configs"
		}
		name := opts.Name
		if name == "" {
			name = fmt.Sprintf("config_%s", GetEnv())
		}
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath(path)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || !opts.AllowNoConfig {
			return fmt.Errorf("read config failed: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config failed: %w", err)
	}
	return nil
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.name", "service")
	v.SetDefault("app.addr", ":8080")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.report_caller", false)
	v.SetDefault("tracing.exporter", "disabled")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

func loadDotEnv(file string) error {
	if file == "" {
		file = os.Getenv("ENV_FILE")
	}
	var err error
	if file != "" {
		err = godotenv.Load(file)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file failed: %w", err)
	}
	return nil
}

// GetEnv returns APP_ENV, default "dev".
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "dev"
}
