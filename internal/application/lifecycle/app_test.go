package lifecycle

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aescanero/stargazer/internal/config"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func testConfig(t *testing.T, upstreamURL string) *config.Config {
	t.Helper()
	return &config.Config{
		HTTPPort:    freePort(t),
		GRPCPort:    freePort(t),
		GRPCEnabled: true,
		LogLevel:    "info",
		Upstream: config.UpstreamConfig{
			AdviceURL:      upstreamURL + "/advice",
			NASAAPODURL:    upstreamURL + "/apod?api_key=",
			NASAAPIKey:     "KEY",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Timeouts: config.TimeoutConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			ClockInterval:     time.Second,
		},
	}
}

func upstreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/advice", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{"slip": {"advice": "Test advice."}}`))
	})
	mux.HandleFunc("/apod", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = fmt.Fprintf(w, `{"title": "Nebula", "url": "http://example.com/img.jpg", "key": %q}`, r.URL.Query().Get("api_key"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := nethttp.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRunServesAndReleasesClient(t *testing.T) {
	up := upstreamServer(t)
	cfg := testConfig(t, up.URL)

	app, err := Build(cfg, zap.NewNop(), WithRegistry(promclient.NewRegistry()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTPPort)
	require.Eventually(t, func() bool {
		resp, err := nethttp.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == nethttp.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	status, body := get(t, base+"/advice")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, body, "Test advice.")

	status, body = get(t, base+"/apod")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, body, "Nebula")

	status, body = get(t, base+"/metrics")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, body, `stargazer_upstream_calls_total{outcome="ok",upstream="advice"} 1`)

	status, body = get(t, base+"/health")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, body, `"upstream_client":"ok"`)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, app.client.Closed())
}

func TestRunReleasesClientOnListenFailure(t *testing.T) {
	up := upstreamServer(t)
	cfg := testConfig(t, up.URL)
	cfg.GRPCEnabled = false

	busy, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	require.NoError(t, err)
	defer busy.Close()

	app, err := Build(cfg, zap.NewNop(), WithRegistry(promclient.NewRegistry()))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(context.Background()) }()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to start HTTP server")
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not fail")
	}

	assert.True(t, app.client.Closed())
}

func TestBuildAssetOverrides(t *testing.T) {
	t.Run("missing template dir", func(t *testing.T) {
		cfg := testConfig(t, "http://127.0.0.1:1")
		cfg.Assets.TemplateDir = filepath.Join(t.TempDir(), "absent")

		_, err := Build(cfg, zap.NewNop(), WithRegistry(promclient.NewRegistry()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load templates")
	})

	t.Run("static dir is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		cfg := testConfig(t, "http://127.0.0.1:1")
		cfg.Assets.StaticDir = file

		_, err := Build(cfg, zap.NewNop(), WithRegistry(promclient.NewRegistry()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("static dir override", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o600))

		cfg := testConfig(t, "http://127.0.0.1:1")
		cfg.Assets.StaticDir = dir

		app, err := Build(cfg, zap.NewNop(), WithRegistry(promclient.NewRegistry()))
		require.NoError(t, err)

		data, err := fs.ReadFile(app.static, "hello.txt")
		require.NoError(t, err)
		assert.Equal(t, "hi", string(data))
	})
}
