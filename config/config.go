package config

import (
	"errors"
	"strings"
	"time"

	"github.com/freekieb7/greeter/validation"
	"github.com/spf13/viper"
)

const EnvPrefix = "GREETER"

type Config struct {
	Addr            string          `mapstructure:"addr"`
	IncludeHostname bool            `mapstructure:"include_hostname"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	Log             LogConfig       `mapstructure:"log"`
	Telemetry       TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Addr:            "127.0.0.1:8000",
		IncludeHostname: false,
		ShutdownTimeout: 10 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "greeter",
			Endpoint:    "127.0.0.1:4317",
			Insecure:    true,
		},
	}
}

// New returns a viper instance primed with defaults and GREETER_* environment
// lookups. Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("include_hostname", d.IncludeHostname)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads file, or greeter.{yaml,json,toml} from the working directory or
// $HOME/.greeter when file is empty, and returns the validated result. A
// missing default config file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("greeter")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.greeter")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, &ConfigError{Field: "config", Message: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "config", Message: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate returns a *ConfigError for the first invalid field.
func (c *Config) Validate() error {
	violations := validation.ValidateMap(
		map[string]any{
			"addr":                   c.Addr,
			"shutdown_timeout":       c.ShutdownTimeout,
			"log.level":              c.Log.Level,
			"log.format":             c.Log.Format,
			"telemetry.service_name": c.Telemetry.ServiceName,
			"telemetry.endpoint":     c.Telemetry.Endpoint,
		},
		map[string][]string{
			"addr":                   {"required", "hostport"},
			"shutdown_timeout":       {"min:0"},
			"log.level":              {"in:debug,info,warn,error"},
			"log.format":             {"in:text,json"},
			"telemetry.service_name": {"required", "max:255"},
			"telemetry.endpoint":     {"required", "hostport"},
		},
	)

	if violations.IsEmpty() {
		return nil
	}

	field := violations.Fields()[0]
	return &ConfigError{Field: field, Message: violations.Errors[field][0].Error()}
}

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
