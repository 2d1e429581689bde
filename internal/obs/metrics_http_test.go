package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetricsServer_Health(t *testing.T) {
	var failing error
	srv := createMetricsServer(":0", func(context.Context) error { return failing })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing = errors.New("last pass failed")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "last pass failed")

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBootstrapMetricsServer_Disabled(t *testing.T) {
	assert.Nil(t, BootstrapMetricsServer("", nil, zap.NewNop()))
	ShutdownMetricsServer(nil, 0)
}

func TestComponent_NilParent(t *testing.T) {
	l := Component(nil, "x")
	assert.NotNil(t, l)
	assert.NotNil(t, WithTrace(context.Background(), nil))
}
