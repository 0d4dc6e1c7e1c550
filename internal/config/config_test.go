package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetForTest clears keys for the duration of the test and restores them
// afterwards, including any value an env file sets in between.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ADVICE_URL", "https://api.adviceslip.com/advice")
	t.Setenv("NASA_APOD_URL", "https://api.nasa.gov/planetary/apod?api_key=")
	t.Setenv("NASA_API_KEY", "DEMO_KEY")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 8000, cfg.HTTPPort)
		assert.Equal(t, 9090, cfg.GRPCPort)
		assert.True(t, cfg.GRPCEnabled)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 10*time.Second, cfg.Upstream.RequestTimeout)
		assert.Equal(t, int64(1<<20), cfg.Upstream.MaxBodyBytes)
		assert.Zero(t, cfg.Upstream.RateLimit)
		assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
		assert.Equal(t, time.Second, cfg.Timeouts.ClockInterval)
		assert.Empty(t, cfg.Assets.TemplateDir)
		assert.Equal(t, ":8000", cfg.GetHTTPAddr())
		assert.Equal(t, ":9090", cfg.GetGRPCAddr())
	})

	t.Run("apod url concatenates key", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "https://api.nasa.gov/planetary/apod?api_key=DEMO_KEY", cfg.APODURL())
	})

	for _, key := range []string{"ADVICE_URL", "NASA_APOD_URL", "NASA_API_KEY"} {
		t.Run("missing "+key, func(t *testing.T) {
			setRequired(t)
			unsetForTest(t, key)

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}

	t.Run("env file", func(t *testing.T) {
		unsetForTest(t, "ADVICE_URL", "NASA_APOD_URL", "NASA_API_KEY", "STARGAZER_HTTP_PORT")

		path := filepath.Join(t.TempDir(), ".env")
		content := "ADVICE_URL=http://advice.test/advice\n" +
			"NASA_APOD_URL=http://apod.test/apod?api_key=\n" +
			"NASA_API_KEY=filekey\n" +
			"STARGAZER_HTTP_PORT=8081\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://advice.test/advice", cfg.Upstream.AdviceURL)
		assert.Equal(t, "http://apod.test/apod?api_key=filekey", cfg.APODURL())
		assert.Equal(t, 8081, cfg.HTTPPort)
	})

	t.Run("environment wins over env file", func(t *testing.T) {
		setRequired(t)

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("NASA_API_KEY=filekey\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "DEMO_KEY", cfg.Upstream.NASAAPIKey)
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		setRequired(t)

		_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
		require.NoError(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		setRequired(t)
		t.Setenv("UPSTREAM_REQUEST_TIMEOUT", "soon")

		_, err := Load("")
		require.Error(t, err)
	})
}

func validConfig() *Config {
	return &Config{
		HTTPPort:    8000,
		GRPCPort:    9090,
		GRPCEnabled: true,
		LogLevel:    "info",
		Upstream: UpstreamConfig{
			AdviceURL:      "https://api.adviceslip.com/advice",
			NASAAPODURL:    "https://api.nasa.gov/planetary/apod?api_key=",
			NASAAPIKey:     "DEMO_KEY",
			RequestTimeout: 10 * time.Second,
			RateBurst:      1,
			MaxBodyBytes:   1 << 20,
		},
		Timeouts: TimeoutConfig{
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			ClockInterval:     time.Second,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"http port zero", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"http port too large", func(c *Config) { c.HTTPPort = 70000 }, "invalid HTTP port"},
		{"grpc port invalid", func(c *Config) { c.GRPCPort = -1 }, "invalid gRPC port"},
		{"grpc port ignored when disabled", func(c *Config) { c.GRPCEnabled = false; c.GRPCPort = 0 }, ""},
		{"ports collide", func(c *Config) { c.GRPCPort = c.HTTPPort }, "must differ"},
		{"advice url not absolute", func(c *Config) { c.Upstream.AdviceURL = "advice" }, "invalid ADVICE_URL"},
		{"advice url scheme", func(c *Config) { c.Upstream.AdviceURL = "ftp://host/advice" }, "unsupported scheme"},
		{"apod url missing host", func(c *Config) { c.Upstream.NASAAPODURL = "http:///apod?api_key=" }, "missing host"},
		{"empty api key", func(c *Config) { c.Upstream.NASAAPIKey = "" }, "API key is required"},
		{"negative rate", func(c *Config) { c.Upstream.RateLimit = -1 }, "rate limit"},
		{"rate without burst", func(c *Config) { c.Upstream.RateLimit = 1; c.Upstream.RateBurst = 0 }, "rate burst"},
		{"body cap", func(c *Config) { c.Upstream.MaxBodyBytes = 0 }, "max body bytes"},
		{"clock interval", func(c *Config) { c.Timeouts.ClockInterval = 0 }, "clock interval"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
