// Package config loads agrivoice settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"agrivoice/packages/go/backend/i18n"
)

// Storage and status drivers.
const (
	DriverMemory  = "memory"
	DriverSQLite  = "sqlite"
	DriverRedis   = "redis"
	DriverStub    = "stub"
	DriverGemini  = "gemini"
	DriverFile    = "file"
	DriverCommand = "command"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	I18n    I18nConfig    `yaml:"i18n"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Status  StatusConfig  `yaml:"status"`
	GenAI   GenAIConfig   `yaml:"genai"`
	Voice   VoiceConfig   `yaml:"voice"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type I18nConfig struct {
	DefaultLanguage string `yaml:"default_language"`
	// BundlesDir holds override bundles merged over the embedded ones.
	BundlesDir string `yaml:"bundles_dir"`
	// Watch reloads BundlesDir on change.
	Watch bool `yaml:"watch"`
}

type StorageConfig struct {
	// Driver is memory, sqlite or redis.
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type StatusConfig struct {
	// Driver is memory or redis.
	Driver string `yaml:"driver"`
}

type GenAIConfig struct {
	// Driver is stub or gemini. Empty selects gemini when an API key is set.
	Driver          string  `yaml:"driver"`
	APIKey          string  `yaml:"-"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

type VoiceConfig struct {
	Microphone  CommandDevice `yaml:"microphone"`
	Synthesizer CommandDevice `yaml:"synthesizer"`
	Retry       RetryConfig   `yaml:"retry"`
}

// CommandDevice selects a stub, file or external command implementation.
type CommandDevice struct {
	Driver  string   `yaml:"driver"`
	File    string   `yaml:"file"`
	Command []string `yaml:"command"`
	// Voices maps synthesis codes such as hi-IN to engine voice names.
	Voices map[string]string `yaml:"voices"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log:     LogConfig{Level: "info"},
		I18n:    I18nConfig{DefaultLanguage: string(i18n.DefaultLanguage)},
		Storage: StorageConfig{Driver: DriverSQLite, DatabasePath: "agrivoice.db"},
		Redis:   RedisConfig{Addr: "127.0.0.1:6379"},
		Status:  StatusConfig{Driver: DriverMemory},
		GenAI: GenAIConfig{
			Model:           "gemini-2.0-flash",
			Temperature:     0.4,
			MaxOutputTokens: 512,
		},
		Voice: VoiceConfig{
			Microphone:  CommandDevice{Driver: DriverStub},
			Synthesizer: CommandDevice{Driver: DriverStub},
			Retry:       RetryConfig{MaxAttempts: 3},
		},
	}
}

// Load reads path (if not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.resolveDrivers()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("AGRIVOICE_SERVER_ADDR", &c.Server.Addr)
	set("AGRIVOICE_LOG_LEVEL", &c.Log.Level)
	set("AGRIVOICE_DEFAULT_LANGUAGE", &c.I18n.DefaultLanguage)
	set("AGRIVOICE_BUNDLES_DIR", &c.I18n.BundlesDir)
	set("AGRIVOICE_STORAGE_DRIVER", &c.Storage.Driver)
	set("AGRIVOICE_DATABASE_PATH", &c.Storage.DatabasePath)
	set("AGRIVOICE_REDIS_ADDR", &c.Redis.Addr)
	set("AGRIVOICE_STATUS_DRIVER", &c.Status.Driver)
	set("AGRIVOICE_GENAI_DRIVER", &c.GenAI.Driver)
	set("AGRIVOICE_GENAI_MODEL", &c.GenAI.Model)
	set("GOOGLE_API_KEY", &c.GenAI.APIKey)
	set("GEMINI_API_KEY", &c.GenAI.APIKey)

	if v, ok := lookup("AGRIVOICE_BUNDLES_WATCH"); ok && v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AGRIVOICE_BUNDLES_WATCH: %w", err)
		}
		c.I18n.Watch = watch
	}
	return nil
}

func (c *Config) resolveDrivers() {
	if c.GenAI.Driver == "" {
		if c.GenAI.APIKey != "" {
			c.GenAI.Driver = DriverGemini
		} else {
			c.GenAI.Driver = DriverStub
		}
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, ok := i18n.LookupDescriptor(i18n.LanguageCode(c.I18n.DefaultLanguage)); !ok {
		errs = append(errs, fmt.Errorf("i18n.default_language %q is not supported", c.I18n.DefaultLanguage))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.DatabasePath == "" {
			errs = append(errs, errors.New("storage.database_path is required for sqlite"))
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, sqlite, redis", c.Storage.Driver))
	}

	switch c.Status.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for redis status"))
		}
	default:
		errs = append(errs, fmt.Errorf("status.driver %q is not one of memory, redis", c.Status.Driver))
	}

	switch c.GenAI.Driver {
	case DriverStub:
	case DriverGemini:
		if c.GenAI.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY or GOOGLE_API_KEY is required for gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("genai.driver %q is not one of stub, gemini", c.GenAI.Driver))
	}

	switch c.Voice.Microphone.Driver {
	case DriverStub:
	case DriverFile:
		if c.Voice.Microphone.File == "" {
			errs = append(errs, errors.New("voice.microphone.file is required for the file driver"))
		}
	case DriverCommand:
		if len(c.Voice.Microphone.Command) == 0 {
			errs = append(errs, errors.New("voice.microphone.command is required for the command driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("voice.microphone.driver %q is not one of stub, file, command", c.Voice.Microphone.Driver))
	}

	switch c.Voice.Synthesizer.Driver {
	case DriverStub:
	case DriverCommand:
		if len(c.Voice.Synthesizer.Command) == 0 {
			errs = append(errs, errors.New("voice.synthesizer.command is required for the command driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("voice.synthesizer.driver %q is not one of stub, command", c.Voice.Synthesizer.Driver))
	}

	if c.Voice.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("voice.retry.max_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}
