package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/graphwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "local", cfg.Store.Kind)
	assert.Equal(t, graphwalk.DefaultBlockSize, cfg.Engine.BlockSize)
	assert.Equal(t, graphwalk.DefaultCacheMemory, cfg.Engine.CacheMemory)
	assert.Equal(t, "annealing", cfg.Engine.Scheduler)
	assert.Equal(t, "lz4", cfg.Spill.Codec)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphwalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  kind: minio
  endpoint: localhost:9000
  bucket: graphs
engine:
  block_size: 4096
  sampler: reject
  expected_length: true
spill:
  threshold: 1000
  codec: zstd
`), 0o644))

	cfg, err := LoadConfig(path, "", false)
	require.NoError(t, err)
	assert.Equal(t, "minio", cfg.Store.Kind)
	assert.Equal(t, "graphs", cfg.Store.Bucket)
	assert.Equal(t, int64(4096), cfg.Engine.BlockSize)
	assert.Equal(t, "reject", cfg.Engine.Sampler)
	assert.True(t, cfg.Engine.ExpectedLength)
	assert.Equal(t, 1000, cfg.Spill.Threshold)
	assert.Equal(t, "zstd", cfg.Spill.Codec)
	// Unset keys keep their defaults.
	assert.Equal(t, graphwalk.DefaultCacheMemory, cfg.Engine.CacheMemory)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GRAPHWALK_THREADS=3\nGRAPHWALK_SCHEDULER=greedy\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("GRAPHWALK_THREADS")
		os.Unsetenv("GRAPHWALK_SCHEDULER")
	})

	cfg, err := LoadConfig("", envFile, true)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.Threads)
	assert.Equal(t, "greedy", cfg.Engine.Scheduler)

	_, err = LoadConfig("", filepath.Join(dir, "missing.env"), false)
	require.NoError(t, err)
	_, err = LoadConfig("", filepath.Join(dir, "missing.env"), true)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"GRAPHWALK_STORE":           "s3",
		"GRAPHWALK_BUCKET":          "walks",
		"GRAPHWALK_PATH_STYLE":      "true",
		"GRAPHWALK_CACHE_MEMORY":    "1048576",
		"GRAPHWALK_SEED":            "42",
		"GRAPHWALK_SPILL_THRESHOLD": "10",
		"GRAPHWALK_REDIS_ADDR":      "localhost:6379",
		"GRAPHWALK_LOG_FORMAT":      "json",
		"UNRELATED":                 "x",
	}))
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Store.Kind)
	assert.Equal(t, "walks", cfg.Store.Bucket)
	assert.True(t, cfg.Store.PathStyle)
	assert.Equal(t, int64(1<<20), cfg.Engine.CacheMemory)
	assert.Equal(t, uint64(42), cfg.Engine.Seed)
	assert.Equal(t, 10, cfg.Spill.Threshold)
	assert.Equal(t, "localhost:6379", cfg.Spill.RedisAddr)
	assert.Equal(t, "json", cfg.Log.Format)

	err = DefaultConfig().applyEnv(mapLookup(map[string]string{"GRAPHWALK_THREADS": "many"}))
	require.ErrorContains(t, err, "GRAPHWALK_THREADS")
}

func TestLogConfig_Logger(t *testing.T) {
	for _, format := range []string{"text", "json", "none", ""} {
		l, err := LogConfig{Level: "debug", Format: format}.Logger()
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}

	_, err := LogConfig{Level: "loud"}.Logger()
	require.Error(t, err)
	_, err = LogConfig{Level: "info", Format: "xml"}.Logger()
	require.Error(t, err)
}
