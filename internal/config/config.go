package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. INSIGHTLOOM_LISTEN_ADDR.
const EnvPrefix = "INSIGHTLOOM"

// Global configuration structure.
type Global struct {
	// Server
	ListenAddr         string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB        int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`

	// Client
	EndpointURL    string `mapstructure:"endpoint_url" yaml:"endpoint_url"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	PreviewRows    int    `mapstructure:"preview_rows" yaml:"preview_rows"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// HTTPTimeout returns the client timeout as a duration.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"listen_addr",
	"endpoint_url",
	"max_upload_mb",
	"http_timeout_sec",
	"cors_allowed_origins",
	"log_level",
	"log_format",
	"output_dir",
	"preview_rows",
}

// Get returns the display form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "listen_addr":
		return c.ListenAddr, nil
	case "endpoint_url":
		return c.EndpointURL, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), nil
	case "cors_allowed_origins":
		return strings.Join(c.CORSAllowedOrigins, ","), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "output_dir":
		return c.OutputDir, nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "listen_addr":
		c.ListenAddr = val
	case "endpoint_url":
		c.EndpointURL = val
	case "max_upload_mb":
		i, err := positiveInt(key, val)
		if err != nil {
			return err
		}
		c.MaxUploadMB = i
	case "http_timeout_sec":
		i, err := positiveInt(key, val)
		if err != nil {
			return err
		}
		c.HTTPTimeoutSec = i
	case "cors_allowed_origins":
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "output_dir":
		c.OutputDir = val
	case "preview_rows":
		i, err := positiveInt(key, val)
		if err != nil {
			return err
		}
		c.PreviewRows = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func positiveInt(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
	}
	return i, nil
}

// Dir returns ~/.insightloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".insightloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "127.0.0.1:5000")
	v.SetDefault("endpoint_url", "http://127.0.0.1:5000/analyze")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_dir", ".")
	v.SetDefault("preview_rows", 5)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// a missing file leaves the defaults; a malformed one is an error
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
