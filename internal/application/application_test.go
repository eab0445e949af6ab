package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/xuesi9527/async-http-client/config"
	"github.com/xuesi9527/async-http-client/internal/settings"
)

func baseTestSettings(t *testing.T, port string) settings.Settings {
	t.Helper()
	return settings.Settings{
		Port:                 port,
		PropertiesDirs:       []string{t.TempDir()},
		LogLevel:             "info",
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
	}
}

func TestNewConfigReadsSearchPaths(t *testing.T) {
	s := baseTestSettings(t, ":0")
	path := filepath.Join(s.PropertiesDirs[0], config.CustomResource)
	if err := os.WriteFile(path, []byte("org.asynchttpclient.maxRedirects=3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := NewConfig(s, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if got, err := cfg.GetInt("org.asynchttpclient.maxRedirects"); err != nil || got != 3 {
		t.Fatalf("expected 3, got %d (%v)", got, err)
	}
}

func TestNewConfigFailsOnMalformedProperties(t *testing.T) {
	s := baseTestSettings(t, ":0")
	path := filepath.Join(s.PropertiesDirs[0], config.CustomResource)
	if err := os.WriteFile(path, []byte("broken\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewConfig(s, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for malformed properties")
	}
}

func TestNewInitializesDependencies(t *testing.T) {
	s := baseTestSettings(t, ":8085")
	logger := zaptest.NewLogger(t)

	cfg, err := NewConfig(s, logger)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	app, err := New(s, cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server || app.Config() != cfg {
		t.Fatalf("accessors did not return underlying instances")
	}
	if app.watcher != nil {
		t.Fatalf("expected no watcher when watch is disabled")
	}

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/org.asynchttpclient.keepAlive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected packaged default to be served, got %d", rec.Code)
	}
}

func TestNewServerAppliesSettings(t *testing.T) {
	s := baseTestSettings(t, "9090")
	handler := http.NewServeMux()

	server := NewServer(s, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != s.ReadHeaderTimeout ||
		server.WriteTimeout != s.WriteTimeout ||
		server.IdleTimeout != s.IdleTimeout {
		t.Fatalf("server timeouts do not match settings")
	}
}

func TestWatchReloadsConfiguration(t *testing.T) {
	s := baseTestSettings(t, "127.0.0.1:0")
	s.Watch = true
	logger := zaptest.NewLogger(t)

	cfg, err := NewConfig(s, logger)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	app, err := New(s, cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if app.watcher == nil {
		t.Fatalf("expected watcher to be created")
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})

	if v, _ := cfg.GetString("org.asynchttpclient.userAgent"); v != "AHC/2.0" {
		t.Fatalf("expected packaged user agent, got %q", v)
	}

	path := filepath.Join(s.PropertiesDirs[0], config.CustomResource)
	if err := os.WriteFile(path, []byte("org.asynchttpclient.userAgent=watched\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := cfg.GetString("org.asynchttpclient.userAgent"); v == "watched" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected watcher to reload configuration")
}

func TestWatchFailsWithoutWatchableDirectory(t *testing.T) {
	s := baseTestSettings(t, ":0")
	s.Watch = true
	logger := zaptest.NewLogger(t)

	cfg, err := NewConfig(s, logger)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}

	s.PropertiesDirs = []string{filepath.Join(t.TempDir(), "absent")}
	if _, err := New(s, cfg, logger); err == nil {
		t.Fatalf("expected error when no directory can be watched")
	}
}
