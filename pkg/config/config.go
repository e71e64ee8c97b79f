// Package config loads the flowmodel configuration.
//
// Settings come from a TOML file and from FLOWMODEL_* environment
// variables, which take precedence. Nested keys map to variables by
// replacing dots with underscores:
//
//	[editor]
//	max_depth = 200          # FLOWMODEL_EDITOR_MAX_DEPTH
//
//	[[editor.policies]]
//	type = "subProcess"
//	policy = "restrict"
//
//	[store]
//	backend = "sqlite"       # FLOWMODEL_STORE_BACKEND
//	path = "/var/lib/flowmodel/documents.db"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matzehuels/flowmodel/pkg/cache"
	"github.com/matzehuels/flowmodel/pkg/editor"
	ferrors "github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/rules"
	"github.com/matzehuels/flowmodel/pkg/store"
)

// EnvConfig names the variable holding an explicit config file path.
const EnvConfig = "FLOWMODEL_CONFIG"

// Config holds application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Editor EditorConfig `mapstructure:"editor"`
	Store  StoreConfig  `mapstructure:"store"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EditorConfig holds the settings handed to every editor.
type EditorConfig struct {
	MaxDepth int            `mapstructure:"max_depth"`
	Policies []PolicyConfig `mapstructure:"policies"`
	Rules    RulesConfig    `mapstructure:"rules"`
}

// PolicyConfig sets the removal policy ("cascade" or "restrict") of one
// element type. Element types are case-sensitive, so they are values rather
// than keys.
type PolicyConfig struct {
	Type   string `mapstructure:"type"`
	Policy string `mapstructure:"policy"`
}

// RulesConfig tunes the process rules.
type RulesConfig struct {
	AllowSelfLoops bool             `mapstructure:"allow_self_loops"`
	MinWidth       float64          `mapstructure:"min_width"`
	MinHeight      float64          `mapstructure:"min_height"`
	Connections    []ConnectionRule `mapstructure:"connections"`
}

// ConnectionRule restricts the target types a source type may connect to.
type ConnectionRule struct {
	From string   `mapstructure:"from"`
	To   []string `mapstructure:"to"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend         string `mapstructure:"backend"`
	// Path is the directory of the file backend (default
	// ~/.config/flowmodel/documents) or the database file of the SQLite
	// backend, which has no default.
	Path            string `mapstructure:"path"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`
}

// CacheConfig selects the render cache.
type CacheConfig struct {
	// Backend is "file", "redis" or "none".
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds the viewer server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultPath returns ~/.config/flowmodel/config.toml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flowmodel", "config.toml")
}

// Load reads the configuration. An explicit path (or $FLOWMODEL_CONFIG)
// must exist; the default file is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("FLOWMODEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("editor.max_depth", 0)
	v.SetDefault("editor.rules.allow_self_loops", false)
	v.SetDefault("editor.rules.min_width", 20)
	v.SetDefault("editor.rules.min_height", 20)
	v.SetDefault("store.backend", store.BackendFile)
	v.SetDefault("store.path", "")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "flowmodel")
	v.SetDefault("store.mongo_collection", "documents")
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("server.addr", "localhost:8080")
}

// EditorConfig converts the editor settings to an [editor.Config].
func (c Config) EditorConfig() (editor.Config, error) {
	policies := make(map[string]model.Policy, len(c.Editor.Policies))
	for _, pc := range c.Editor.Policies {
		p, err := model.ParsePolicy(pc.Policy)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "policy for %s", pc.Type)
		}
		policies[pc.Type] = p
	}
	r := c.Editor.Rules
	var conns map[string][]string
	if len(r.Connections) > 0 {
		conns = make(map[string][]string, len(r.Connections))
		for _, cr := range r.Connections {
			conns[cr.From] = append(conns[cr.From], cr.To...)
		}
	}
	return editor.Config{
		editor.ConfigCommandStack: editor.CommandStackConfig{MaxDepth: c.Editor.MaxDepth},
		editor.ConfigRegistry:     editor.RegistryConfig{Policies: policies},
		editor.ConfigRules: rules.ProcessOptions{
			AllowSelfLoops: r.AllowSelfLoops,
			MinWidth:       r.MinWidth,
			MinHeight:      r.MinHeight,
			Connections:    conns,
		},
	}, nil
}

// StoreOptions returns the options for [store.Open].
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Path:    c.Store.Path,
		Mongo: store.MongoOptions{
			URI:        c.Store.MongoURI,
			Database:   c.Store.MongoDatabase,
			Collection: c.Store.MongoCollection,
		},
	}
}

// OpenCache returns the configured render cache.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   "flowmodel:",
		})
	case "file", "":
		dir, err := c.CacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	default:
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
}

// CacheDir returns the directory of the file cache.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
