package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/graphwalk"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "GRAPHWALK_"

// Config is the CLI configuration. Values are layered: defaults, then the
// YAML file, then environment variables, then command line flags.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Spill   SpillConfig   `yaml:"spill"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects where datasets live.
type StoreConfig struct {
	// Kind is "local", "s3" or "minio".
	Kind      string `yaml:"kind"`
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	PathStyle bool   `yaml:"path_style"`
}

// EngineConfig tunes the walk engine.
type EngineConfig struct {
	BlockSize      int64  `yaml:"block_size"`
	CacheMemory    int64  `yaml:"cache_memory"`
	CacheSlots     int    `yaml:"cache_slots"`
	Threads        int    `yaml:"threads"`
	Sampler        string `yaml:"sampler"`
	Scheduler      string `yaml:"scheduler"`
	Seed           uint64 `yaml:"seed"`
	MaxIter        int    `yaml:"max_iter"`
	ExpectedLength bool   `yaml:"expected_length"`
	IOLimit        int64  `yaml:"io_limit"`
	RemoteCache    int64  `yaml:"remote_cache"`
}

// SpillConfig configures spilling of pending walkers.
type SpillConfig struct {
	Threshold     int    `yaml:"threshold"`
	Codec         string `yaml:"codec"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables it.
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Kind: "local",
			Dir:  ".",
		},
		Engine: EngineConfig{
			BlockSize:   graphwalk.DefaultBlockSize,
			CacheMemory: graphwalk.DefaultCacheMemory,
			Sampler:     "its",
			Scheduler:   "annealing",
			MaxIter:     30,
		},
		Spill: SpillConfig{
			Codec: "lz4",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig layers the YAML file at path (optional) and the environment
// over the defaults. envFile is loaded into the environment first; a missing
// envFile is ignored unless required.
func LoadConfig(path, envFile string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load env %s: %w", envFile, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var err error
	parse := func(key string, set func(string) error) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || err != nil {
			return
		}
		if perr := set(v); perr != nil {
			err = fmt.Errorf("parse %s%s=%q: %w", EnvPrefix, key, v, perr)
		}
	}
	i64 := func(dst *int64) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.ParseInt(s, 10, 64); return }
	}
	u64 := func(dst *uint64) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.ParseUint(s, 10, 64); return }
	}
	num := func(dst *int) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.Atoi(s); return }
	}
	boolean := func(dst *bool) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.ParseBool(s); return }
	}

	str("STORE", &c.Store.Kind)
	str("DATA_DIR", &c.Store.Dir)
	str("BUCKET", &c.Store.Bucket)
	str("PREFIX", &c.Store.Prefix)
	str("ENDPOINT", &c.Store.Endpoint)
	str("REGION", &c.Store.Region)
	str("ACCESS_KEY", &c.Store.AccessKey)
	str("SECRET_KEY", &c.Store.SecretKey)
	parse("SECURE", boolean(&c.Store.Secure))
	parse("PATH_STYLE", boolean(&c.Store.PathStyle))

	parse("BLOCK_SIZE", i64(&c.Engine.BlockSize))
	parse("CACHE_MEMORY", i64(&c.Engine.CacheMemory))
	parse("CACHE_SLOTS", num(&c.Engine.CacheSlots))
	parse("THREADS", num(&c.Engine.Threads))
	str("SAMPLER", &c.Engine.Sampler)
	str("SCHEDULER", &c.Engine.Scheduler)
	parse("SEED", u64(&c.Engine.Seed))
	parse("MAX_ITER", num(&c.Engine.MaxIter))
	parse("EXPECTED_LENGTH", boolean(&c.Engine.ExpectedLength))
	parse("IO_LIMIT", i64(&c.Engine.IOLimit))
	parse("REMOTE_CACHE", i64(&c.Engine.RemoteCache))

	parse("SPILL_THRESHOLD", num(&c.Spill.Threshold))
	str("SPILL_CODEC", &c.Spill.Codec)
	str("REDIS_ADDR", &c.Spill.RedisAddr)
	str("REDIS_PASSWORD", &c.Spill.RedisPassword)
	parse("REDIS_DB", num(&c.Spill.RedisDB))

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("METRICS_ADDR", &c.Metrics.Addr)
	return err
}

// Logger builds the configured logger.
func (c LogConfig) Logger() (*graphwalk.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}
	switch strings.ToLower(c.Format) {
	case "", "text":
		return graphwalk.NewTextLogger(level), nil
	case "json":
		return graphwalk.NewJSONLogger(level), nil
	case "none":
		return graphwalk.NoopLogger(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}
}
