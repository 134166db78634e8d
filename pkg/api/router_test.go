package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRouterHealth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewRouter(nil))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	if assert.NoError(t, err) {
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if assert.NoError(t, err) {
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestRouterMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "cafefs_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := httptest.NewServer(NewRouter(reg))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	if assert.NoError(t, err) {
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.applyDefaults()
	assert.Equal(t, 9090, cfg.Port)
	assert.NotZero(t, cfg.ReadTimeout)

	s := NewServer(Config{Port: 12345}, nil)
	assert.Equal(t, 12345, s.Port())
}
