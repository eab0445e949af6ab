package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/xuesi9527/async-http-client/config"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Resolver is the part of *config.Config the admin API needs.
type Resolver interface {
	Lookup(key string) config.Resolution
	Keys() []string
	Reload() error
	LoadedAt() time.Time
}

// Handler exposes a Resolver over HTTP.
type Handler struct {
	resolver Resolver

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler for the given resolver.
func NewHandler(resolver Resolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		resolver: resolver,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListProperties(w http.ResponseWriter, _ *http.Request) {
	keys := h.resolver.Keys()
	props := make([]config.Resolution, 0, len(keys))
	for _, key := range keys {
		props = append(props, h.resolver.Lookup(key))
	}

	resp := propertiesResponse{
		Properties: props,
		Count:      len(props),
		LoadedAt:   h.resolver.LoadedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "key must not be empty")
		return
	}

	res := h.resolver.Lookup(key)
	if !res.Found {
		writeError(w, http.StatusNotFound, "Property not found", key,
			"Define it in ahc.properties or as a runtime override")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := h.resolver.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, "Reload failed", err.Error(),
			"The previous properties remain in effect; fix the file and retry")
		return
	}

	resp := reloadResponse{
		Message:  "Properties reloaded successfully",
		LoadedAt: h.resolver.LoadedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type propertiesResponse struct {
	Properties []config.Resolution `json:"properties"`
	Count      int                 `json:"count"`
	LoadedAt   time.Time           `json:"loadedAt"`
}

type reloadResponse struct {
	Message  string    `json:"message"`
	LoadedAt time.Time `json:"loadedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
