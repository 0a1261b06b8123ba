// Package config loads the engine's runtime configuration via
// github.com/spf13/viper, layering a config.yaml file under env-var
// overrides, following cmd/bd/config.go's viper-backed settings layer
// and internal/config/local_config.go's env-override-wins idiom (there,
// BEADS_SYNC_BRANCH overrides sync-branch; here, KYR_* overrides the
// equivalent yaml key). Optional fsnotify-driven hot reload lets a
// long-lived HTTP adapter pick up a changed threshold or maxDepth
// without restarting.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	Model            string  `mapstructure:"model"`
	MaxDepth         int     `mapstructure:"maxDepth"`
	Threshold        float64 `mapstructure:"threshold"`
	OracleTimeoutSec int     `mapstructure:"oracleTimeoutSeconds"`
	ResultStorePath  string  `mapstructure:"resultStorePath"`
	AuditLogPath     string  `mapstructure:"auditLogPath"`
	HTTPAddr         string  `mapstructure:"httpAddr"`
}

// Defaults mirror the Traversal Driver's own package-level defaults
// (internal/traversal.DefaultMaxDepth, DefaultThreshold) so a missing
// config.yaml still produces a runnable engine.
func Defaults() Config {
	return Config{
		Model:            "claude-haiku-4-5-20251001",
		MaxDepth:         8,
		Threshold:        0.3,
		OracleTimeoutSec: 30,
		ResultStorePath:  "result.json",
		AuditLogPath:     "audit.jsonl",
		HTTPAddr:         ":8080",
	}
}

// Loader owns one viper instance and the last config it successfully
// decoded, guarded by a mutex so a concurrent fsnotify reload never
// races an in-flight Current() read.
type Loader struct {
	v  *viper.Viper
	mu sync.RWMutex
	cv Config
}

// Load reads configPath (if it exists) over the package defaults, with
// KYR_-prefixed environment variables taking precedence over both,
// matching the teacher's env-override-wins policy.
func Load(configPath string) (*Loader, error) {
	v := viper.New()
	defaults := Defaults()
	v.SetDefault("model", defaults.Model)
	v.SetDefault("maxDepth", defaults.MaxDepth)
	v.SetDefault("threshold", defaults.Threshold)
	v.SetDefault("oracleTimeoutSeconds", defaults.OracleTimeoutSec)
	v.SetDefault("resultStorePath", defaults.ResultStorePath)
	v.SetDefault("auditLogPath", defaults.AuditLogPath)
	v.SetDefault("httpAddr", defaults.HTTPAddr)

	v.SetEnvPrefix("KYR")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	l := &Loader{v: v}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) reload() error {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	l.mu.Lock()
	l.cv = cfg
	l.mu.Unlock()
	return nil
}

// Current returns the most recently loaded configuration snapshot.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cv
}

// WatchReload installs an fsnotify watch on the config file and
// re-decodes on every write, logging decode failures via onError
// instead of surfacing them (a bad edit mid-run should not crash a
// long-lived HTTP adapter). The returned function does nothing: the
// watch stays active for the life of the process.
func (l *Loader) WatchReload(onError func(error)) func() {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		if err := l.reload(); err != nil && onError != nil {
			onError(err)
		}
	})
	l.v.WatchConfig()
	return func() {}
}
