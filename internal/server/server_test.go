package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/Niiaks/Ledgerly/internal/config"
)

func TestHealthWithoutChecks(t *testing.T) {
	log := zerolog.Nop()
	s := NewServer(&config.Config{Observability: &config.ObservabilityConfig{}}, &log, nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthIgnoresUnknownChecks(t *testing.T) {
	log := zerolog.Nop()
	cfg := &config.Config{Observability: &config.ObservabilityConfig{
		HealthChecks: config.HealthChecksConfig{Enabled: true, Timeout: time.Second, Checks: []string{"kafka"}},
	}}
	s := NewServer(cfg, &log, nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartRequiresSetup(t *testing.T) {
	log := zerolog.Nop()
	s := NewServer(&config.Config{Server: config.ServerConfig{Port: "0"}, Primary: config.PrimaryConfig{Env: "test"}}, &log, nil, nil, nil)
	assert.EqualError(t, s.Start(), "HTTP server not initialized")
}
