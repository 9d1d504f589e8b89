// Package config loads service settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment overrides.
const EnvPrefix = "SURVEYFLOW_"

// Config is the full service configuration.
type Config struct {
	Dir       string          `mapstructure:"dir"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Store     StoreConfig     `mapstructure:"store"`
	Responses ResponsesConfig `mapstructure:"responses"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Engine    EngineConfig    `mapstructure:"engine"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr    string   `mapstructure:"addr"`
	BaseURL string   `mapstructure:"baseUrl"`
	CORS    []string `mapstructure:"cors"`
}

// StoreConfig selects the attempt store: memory, file or redis.
type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryptionKey"`
	MaskPII       bool   `mapstructure:"maskPii"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// ResponsesConfig selects the response store: memory, redis or postgres.
type ResponsesConfig struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"databaseUrl"`
}

// PublisherConfig enables result announcements when AMQPURL is set.
type PublisherConfig struct {
	AMQPURL    string `mapstructure:"amqpUrl"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routingKey"`
}

type EngineConfig struct {
	MaxSteps int `mapstructure:"maxSteps"`
}

// envBindings lists the short variable names of each key, in precedence order.
// Every key is also reachable by its derived name, e.g. SURVEYFLOW_STORE_REDIS_ADDR.
var envBindings = map[string][]string{
	"dir":                   {EnvPrefix + "DIR"},
	"log.level":             {EnvPrefix + "LOG_LEVEL", "LOG_LEVEL"},
	"log.format":            {EnvPrefix + "LOG_FORMAT", "LOG_FORMAT"},
	"http.addr":             {EnvPrefix + "HTTP_ADDR"},
	"http.baseUrl":          {EnvPrefix + "BASE_URL"},
	"http.cors":             {EnvPrefix + "CORS"},
	"store.driver":          {EnvPrefix + "STORE"},
	"store.path":            {EnvPrefix + "STORE_PATH"},
	"store.encryptionKey":   {EnvPrefix + "ENCRYPTION_KEY"},
	"store.maskPii":         {EnvPrefix + "MASK_PII"},
	"store.redis.addr":      {EnvPrefix + "REDIS_ADDR", "REDIS_ADDR"},
	"store.redis.password":  {EnvPrefix + "REDIS_PASSWORD"},
	"store.redis.db":        {EnvPrefix + "REDIS_DB"},
	"store.redis.ttl":       {EnvPrefix + "REDIS_TTL"},
	"store.redis.prefix":    {EnvPrefix + "REDIS_PREFIX"},
	"responses.driver":      {EnvPrefix + "RESPONSES"},
	"responses.databaseUrl": {EnvPrefix + "DB_URL", "DB_URL"},
	"publisher.amqpUrl":     {EnvPrefix + "AMQP_URL", "AMQP_URL"},
	"publisher.exchange":    {EnvPrefix + "AMQP_EXCHANGE"},
	"publisher.routingKey":  {EnvPrefix + "AMQP_ROUTING_KEY"},
	"engine.maxSteps":       {EnvPrefix + "MAX_STEPS"},
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Dir:       ".",
		Log:       LogConfig{Level: "info", Format: "text"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Store:     StoreConfig{Driver: "memory", Path: ".surveyflow/attempts"},
		Responses: ResponsesConfig{Driver: "memory"},
	}
}

// Load reads path (optional) over the defaults and then applies environment overrides.
// Without a path, ./surveyflow.yaml is read when present.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("surveyflow")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Default(), fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// newViper returns an instance seeded with the defaults and the env bindings.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	d := Default()
	v.SetDefault("dir", d.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.baseUrl", d.HTTP.BaseURL)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.encryptionKey", d.Store.EncryptionKey)
	v.SetDefault("store.maskPii", d.Store.MaskPII)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("responses.driver", d.Responses.Driver)
	v.SetDefault("responses.databaseUrl", d.Responses.DatabaseURL)
	v.SetDefault("publisher.amqpUrl", d.Publisher.AMQPURL)
	v.SetDefault("publisher.exchange", d.Publisher.Exchange)
	v.SetDefault("publisher.routingKey", d.Publisher.RoutingKey)
	v.SetDefault("engine.maxSteps", d.Engine.MaxSteps)

	v.SetEnvPrefix(strings.TrimSuffix(EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

// Validate rejects unknown drivers and inconsistent settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "file":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Responses.Driver {
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for redis responses")
		}
	case "postgres":
		if c.Responses.DatabaseURL == "" {
			return errors.New("responses.databaseUrl (or DB_URL) is required for postgres responses")
		}
	default:
		return fmt.Errorf("unknown responses driver %q", c.Responses.Driver)
	}

	if c.Engine.MaxSteps < 0 {
		return errors.New("engine.maxSteps must not be negative")
	}
	return nil
}
