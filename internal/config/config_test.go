package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INPUT_DIR", "/data/raw")
	t.Setenv("OUTPUT_DIR", "/data/cf")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/raw", cfg.InputDir)
	assert.Equal(t, "/data/cf", cfg.OutputDir)
	assert.False(t, cfg.Overwrite)
	assert.Zero(t, cfg.ScanInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.GeonamesEnabled)
	assert.Empty(t, cfg.GeonamesUsername)
	assert.Equal(t, 5*time.Second, cfg.GeonamesTimeout)
	assert.Equal(t, 1000, cfg.GeonamesCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "conversion-manifest", cfg.KafkaManifestTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/in")
	t.Setenv("OUTPUT_DIR", "/out")
	t.Setenv("OVERWRITE", "true")
	t.Setenv("SCAN_INTERVAL", "2m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("GEONAMES_USERNAME", "demo")
	t.Setenv("GEONAMES_TIMEOUT", "10s")
	t.Setenv("GEONAMES_CACHE_SIZE", "50")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_MANIFEST_TOPIC", "manifests")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Overwrite)
	assert.Equal(t, 2*time.Minute, cfg.ScanInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.GeonamesEnabled)
	assert.Equal(t, "demo", cfg.GeonamesUsername)
	assert.Equal(t, 10*time.Second, cfg.GeonamesTimeout)
	assert.Equal(t, 50, cfg.GeonamesCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "manifests", cfg.KafkaManifestTopic)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing input dir", map[string]string{"OUTPUT_DIR": "/out"}, "INPUT_DIR"},
		{"missing output dir", map[string]string{"INPUT_DIR": "/in"}, "OUTPUT_DIR"},
		{
			"geonames enabled without username",
			map[string]string{"INPUT_DIR": "/in", "OUTPUT_DIR": "/out", "GEONAMES_ENABLED": "true"},
			"GEONAMES_USERNAME",
		},
		{
			"bad scan interval",
			map[string]string{"INPUT_DIR": "/in", "OUTPUT_DIR": "/out", "SCAN_INTERVAL": "soon"},
			"SCAN_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
