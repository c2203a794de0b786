// Package config loads the console configuration from defaults, an optional
// YAML file and FACEFLOW_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/internal/sessionstore"
	"github.com/Haymar136/faceflow-student-hub/pkg/models/passwd"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr       string           `yaml:"addr"`
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
	Auth       AuthConfig       `yaml:"auth"`
	Token      TokenConfig      `yaml:"token"`
	Attendance AttendanceConfig `yaml:"attendance"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	DSN           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
}

type AuthConfig struct {
	CredentialsFile  string        `yaml:"credentials_file"`
	BcryptCost       int           `yaml:"bcrypt_cost"`
	LoginLatency     time.Duration `yaml:"login_latency"`
	RehydrateLatency time.Duration `yaml:"rehydrate_latency"`
}

type TokenConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type AttendanceConfig struct {
	Latency time.Duration `yaml:"latency"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Addr: "127.0.0.1:8080",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Backend:   string(sessionstore.BackendFile),
			Path:      "data/session",
			KeyPrefix: sessionstore.DefaultKeyPrefix,
		},
		Auth: AuthConfig{
			BcryptCost:   passwd.DefaultCost,
			LoginLatency: time.Second,
		},
		Token: TokenConfig{
			TTL: 15 * time.Minute,
		},
		Attendance: AttendanceConfig{
			Latency: time.Second,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FACEFLOW_* environment variables. Every
// field of the YAML file has a variable; malformed values are all reported.
func (c *Config) ApplyEnv() error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"FACEFLOW_ADDR", &c.Addr},
		{"FACEFLOW_LOG_LEVEL", &c.Log.Level},
		{"FACEFLOW_LOG_FORMAT", &c.Log.Format},
		{"FACEFLOW_STORE_BACKEND", &c.Store.Backend},
		{"FACEFLOW_STORE_PATH", &c.Store.Path},
		{"FACEFLOW_STORE_DSN", &c.Store.DSN},
		{"FACEFLOW_STORE_KEY_PREFIX", &c.Store.KeyPrefix},
		{"FACEFLOW_REDIS_ADDR", &c.Store.RedisAddr},
		{"FACEFLOW_REDIS_PASSWORD", &c.Store.RedisPassword},
		{"FACEFLOW_CREDENTIALS", &c.Auth.CredentialsFile},
		{"FACEFLOW_TOKEN_SECRET", &c.Token.Secret},
	}
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"FACEFLOW_LOGIN_LATENCY", &c.Auth.LoginLatency},
		{"FACEFLOW_REHYDRATE_LATENCY", &c.Auth.RehydrateLatency},
		{"FACEFLOW_ATTENDANCE_LATENCY", &c.Attendance.Latency},
		{"FACEFLOW_TOKEN_TTL", &c.Token.TTL},
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"FACEFLOW_BCRYPT_COST", &c.Auth.BcryptCost},
		{"FACEFLOW_REDIS_DB", &c.Store.RedisDB},
	}

	for _, v := range strs {
		if s, ok := os.LookupEnv(v.name); ok {
			*v.dst = s
		}
	}

	var errs []error
	for _, v := range durations {
		s, ok := os.LookupEnv(v.name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.name, err))
			continue
		}
		*v.dst = d
	}
	for _, v := range ints {
		s, ok := os.LookupEnv(v.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.name, err))
			continue
		}
		*v.dst = n
	}
	return errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if err := logutil.Validate(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" && c.Log.Format != "" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	switch sessionstore.Backend(c.Store.Backend) {
	case sessionstore.BackendMemory:
	case sessionstore.BackendFile, sessionstore.BackendSqlite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s backend", c.Store.Backend))
		}
	case sessionstore.BackendPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres backend"))
		}
	case sessionstore.BackendRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.LoginLatency < 0 || c.Auth.RehydrateLatency < 0 || c.Attendance.Latency < 0 {
		errs = append(errs, errors.New("latencies must not be negative"))
	}
	if c.Token.TTL <= 0 {
		errs = append(errs, errors.New("token.ttl must be positive"))
	}

	return errors.Join(errs...)
}

// SessionStore converts the store section to a sessionstore.Config.
func (c Config) SessionStore() sessionstore.Config {
	return sessionstore.Config{
		Backend:       sessionstore.Backend(c.Store.Backend),
		Path:          c.Store.Path,
		DSN:           c.Store.DSN,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		KeyPrefix:     c.Store.KeyPrefix,
	}
}
