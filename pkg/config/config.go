package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config holds all runtime configuration. Values come from an optional YAML
// config file (CONFIG_FILE, default /config/config.yaml) and are then
// overridden by environment variables of the same name in SCREAMING_SNAKE
// form (database_file_path -> DATABASE_FILE_PATH).
type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DataDir                   string        `koanf:"data_dir"`
	Hostname                  string        `koanf:"hostname"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	ParseTimeout              time.Duration `koanf:"parse_timeout"`
	WorkerProcesses           int           `koanf:"worker_processes"`
}

// required maps config keys to their environment variable names for error
// reporting.
var required = map[string]string{
	"database_file_path": "DATABASE_FILE_PATH",
	"data_dir":           "DATA_DIR",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database_connect_retry_count": 5,
		"database_connect_retry_delay": 2 * time.Second,
		"database_busy_timeout":        5 * time.Second,
		"database_max_retries":         5,
		"server_host":                  "0.0.0.0",
		"server_port":                  3689,
		"parse_timeout":                5 * time.Minute,
		"worker_processes":             2,
	}
}

func New() (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	// The config file is optional; missing just means env + defaults.
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "/config/config.yaml"
	}
	err := k.Load(file.Provider(configFile), yaml.Parser())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
	}

	// Environment variables override the file.
	err = k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		cfg.Hostname = hostname
	}

	var missing []string
	for key, envName := range required {
		if k.String(key) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", envName, key))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
