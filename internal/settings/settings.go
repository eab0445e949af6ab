package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

const envPrefix = "AHC_"

// Settings aggregates runtime settings resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Settings struct {
	Port                 string
	PropertiesDirs       []string
	LogLevel             string
	Watch                bool
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlSettings represents the YAML settings file structure. Pointer fields
// distinguish "not set" from zero values.
type yamlSettings struct {
	Port                 string        `yaml:"port"`
	PropertiesDirs       []string      `yaml:"properties_dirs"`
	LogLevel             string        `yaml:"log_level"`
	Watch                *bool         `yaml:"watch"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	PropertiesDirs []string
	LogLevel       *string
	Watch          *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts settings from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Settings, error) {
	s := defaultSettings()

	if err := applyEnv(&s); err != nil {
		return Settings{}, fmt.Errorf("apply environment: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Settings{}, fmt.Errorf("load YAML settings: %w", err)
		}
		if err := applyYAML(&s, yamlCfg); err != nil {
			return Settings{}, fmt.Errorf("apply YAML settings: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&s, overrides)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	return s, nil
}

func defaultSettings() Settings {
	return Settings{
		Port:                 defaultPort,
		PropertiesDirs:       []string{"."},
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

func loadFromFile(path string) (*yamlSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlSettings
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

func applyYAML(s *Settings, y *yamlSettings) error {
	if y.Port != "" {
		s.Port = y.Port
	}
	if len(y.PropertiesDirs) > 0 {
		s.PropertiesDirs = y.PropertiesDirs
	}
	if y.LogLevel != "" {
		s.LogLevel = y.LogLevel
	}
	if y.Watch != nil {
		s.Watch = *y.Watch
	}
	if y.EnableRequestLogging != nil {
		s.EnableRequestLogging = *y.EnableRequestLogging
	}
	if y.RateLimit.RPS != nil {
		s.RateLimitRPS = *y.RateLimit.RPS
	}
	if y.RateLimit.Burst != nil {
		s.RateLimitBurst = *y.RateLimit.Burst
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"shutdown_grace_period", y.ShutdownGracePeriod, &s.ShutdownGracePeriod},
		{"read_header_timeout", y.ReadHeaderTimeout, &s.ReadHeaderTimeout},
		{"write_timeout", y.WriteTimeout, &s.WriteTimeout},
		{"idle_timeout", y.IdleTimeout, &s.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = parsed
	}

	return nil
}

func applyEnv(s *Settings) error {
	if port := env("ADMIN_PORT"); port != "" {
		s.Port = port
	}

	if dirs := env("PROPERTIES_DIRS"); dirs != "" {
		s.PropertiesDirs = filepath.SplitList(dirs)
	}

	if level := env("LOG_LEVEL"); level != "" {
		s.LogLevel = level
	}

	if watch := env("WATCH"); watch != "" {
		value, err := strconv.ParseBool(watch)
		if err != nil {
			return fmt.Errorf("%sWATCH: %w", envPrefix, err)
		}
		s.Watch = value
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT_RPS: %w", envPrefix, err)
		}
		s.RateLimitRPS = value
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT_BURST: %w", envPrefix, err)
		}
		s.RateLimitBurst = value
	}

	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func applyCLIOverrides(s *Settings, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		s.Port = *overrides.Port
	}
	if len(overrides.PropertiesDirs) > 0 {
		s.PropertiesDirs = overrides.PropertiesDirs
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		s.LogLevel = *overrides.LogLevel
	}
	if overrides.Watch != nil {
		s.Watch = *overrides.Watch
	}
	if overrides.RateLimitRPS != nil {
		s.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil {
		s.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// Validate checks the final settings.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.By(validateListenAddr)),
		validation.Field(&s.PropertiesDirs, validation.Required, validation.Each(validation.Required)),
		validation.Field(&s.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&s.RateLimitRPS, validation.Min(0.0)),
		validation.Field(&s.RateLimitBurst, validation.Min(0)),
		validation.Field(&s.ShutdownGracePeriod, validation.Min(time.Duration(0))),
	)
}

// validateListenAddr accepts a bare port ("8080") or host:port.
func validateListenAddr(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	port := addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		port = addr[idx+1:]
	}
	if err := is.Port.Validate(port); err != nil || port == "" {
		return errors.New("must be a port or host:port")
	}
	return nil
}
