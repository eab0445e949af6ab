package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/xuesi9527/async-http-client/config"
	"github.com/xuesi9527/async-http-client/internal/application"
	"github.com/xuesi9527/async-http-client/internal/settings"
)

func newRouter(t *testing.T, dir string) (http.Handler, *config.Config) {
	t.Helper()

	s := settings.Settings{
		Port:           "0",
		PropertiesDirs: []string{dir},
		LogLevel:       "info",
	}
	logger := zaptest.NewLogger(t)

	cfg, err := application.NewConfig(s, logger)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	app, err := application.New(s, cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return app.Server().Handler, cfg
}

func performRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func writeProperties(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, config.CustomResource), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestIntegrationFlow(t *testing.T) {
	dir := t.TempDir()
	writeProperties(t, dir, "org.asynchttpclient.requestTimeout=1000\n")
	handler, cfg := newRouter(t, dir)

	rec := performRequest(t, handler, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	var res config.Resolution
	rec = performRequest(t, handler, http.MethodGet, "/api/properties/org.asynchttpclient.requestTimeout")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from property lookup, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Value != "1000" || res.Layer != config.LayerCustom {
		t.Fatalf("unexpected resolution %+v", res)
	}

	// The admin view and the library share one cache.
	if got, err := cfg.GetInt("org.asynchttpclient.requestTimeout"); err != nil || got != 1000 {
		t.Fatalf("expected library lookup to agree, got %d (%v)", got, err)
	}

	writeProperties(t, dir, "org.asynchttpclient.readTimeout=2000\n")
	rec = performRequest(t, handler, http.MethodPost, "/api/reload")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from reload, got %d", rec.Code)
	}

	if got, err := cfg.GetInt("org.asynchttpclient.requestTimeout"); err != nil || got != 60000 {
		t.Fatalf("expected packaged default after custom key removal, got %d (%v)", got, err)
	}
	if got, err := cfg.GetInt("org.asynchttpclient.readTimeout"); err != nil || got != 2000 {
		t.Fatalf("expected reloaded readTimeout, got %d (%v)", got, err)
	}
}
