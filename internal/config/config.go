// Package config loads mindgraph settings.
//
// Sources, lowest priority first: built-in defaults, an optional YAML file,
// then MINDGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside the data directory when no
// explicit path is given.
const FileName = "config.yaml"

// Config holds every tunable of the process.
type Config struct {
	Store Store `yaml:"store"`
	Graph Graph `yaml:"graph"`
	HTTP  HTTP  `yaml:"http"`
	Log   Log   `yaml:"log"`
}

// Store configures the embedded database.
type Store struct {
	DataDir     string        `yaml:"data_dir" validate:"required"`
	DBFile      string        `yaml:"db_file" validate:"required"`
	BusyTimeout time.Duration `yaml:"busy_timeout" validate:"gt=0"`
}

// Graph configures graph behavior.
type Graph struct {
	// ResolverConcurrency bounds parallel edge writes per mention sync.
	ResolverConcurrency int `yaml:"resolver_concurrency" validate:"min=1,max=32"`
}

// HTTP configures the REST transport.
type HTTP struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	// AllowedOrigins enables CORS for browser clients. Empty disables it.
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Store: Store{
			DataDir:     filepath.Join(home, ".mindgraph"),
			DBFile:      "graph.db",
			BusyTimeout: 5 * time.Second,
		},
		Graph: Graph{ResolverConcurrency: 4},
		HTTP: HTTP{
			Addr:            "127.0.0.1:7878",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// DBPath returns the absolute location of the database file.
func (c Config) DBPath() string {
	if filepath.IsAbs(c.Store.DBFile) {
		return c.Store.DBFile
	}
	return filepath.Join(c.Store.DataDir, c.Store.DBFile)
}

// Load builds the configuration. path may be empty, in which case
// <data dir>/config.yaml is used when it exists. An explicit path that
// does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if dir := os.Getenv("MINDGRAPH_DATA_DIR"); dir != "" {
		cfg.Store.DataDir = dir
	}

	explicit := path != ""
	path = ResolvePath(path)
	if err := loadFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolvePath returns path, or the default config file location when path
// is empty.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	dir := Default().Store.DataDir
	if v := os.Getenv("MINDGRAPH_DATA_DIR"); v != "" {
		dir = v
	}
	return filepath.Join(dir, FileName)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays MINDGRAPH_* variables on cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("MINDGRAPH_DATA_DIR", &cfg.Store.DataDir)
	str("MINDGRAPH_DB_FILE", &cfg.Store.DBFile)
	str("MINDGRAPH_HTTP_ADDR", &cfg.HTTP.Addr)
	str("MINDGRAPH_LOG_LEVEL", &cfg.Log.Level)
	str("MINDGRAPH_LOG_FORMAT", &cfg.Log.Format)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if v, ok := lookup("MINDGRAPH_HTTP_ALLOWED_ORIGINS"); ok && v != "" {
		cfg.HTTP.AllowedOrigins = cfg.HTTP.AllowedOrigins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.AllowedOrigins = append(cfg.HTTP.AllowedOrigins, o)
			}
		}
	}

	if err := dur("MINDGRAPH_BUSY_TIMEOUT", &cfg.Store.BusyTimeout); err != nil {
		return err
	}
	if v, ok := lookup("MINDGRAPH_RESOLVER_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: MINDGRAPH_RESOLVER_CONCURRENCY: %w", err)
		}
		cfg.Graph.ResolverConcurrency = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: invalid %s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
