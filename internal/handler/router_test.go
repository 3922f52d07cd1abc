package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourusername/quizmaster-api/internal/middleware"
	"github.com/yourusername/quizmaster-api/pkg/auth"
)

func newObservedRouter(t *testing.T, deps RouterDeps) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	jwtService, err := auth.NewJWTService("test-secret", "quizmaster-api")
	require.NoError(t, err)

	deps.Logger = zap.New(core)
	deps.Auth = middleware.NewAuthMiddleware(jwtService, zap.NewNop())
	router := NewRouter(deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return logs
}

func TestNewRouter_InvalidTrustedProxiesAreLogged(t *testing.T) {
	logs := newObservedRouter(t, RouterDeps{TrustedProxies: []string{"not-an-ip"}, Production: true})

	entries := logs.FilterMessage("Invalid trusted proxies list").All()
	require.Len(t, entries, 1, "Ошибка SetTrustedProxies должна попасть в лог")
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap()["error"], "not-an-ip")
}

func TestNewRouter_DefaultTrustedProxies(t *testing.T) {
	tests := []struct {
		name string
		deps RouterDeps
	}{
		{name: "production без списка", deps: RouterDeps{Production: true}},
		{name: "development без списка", deps: RouterDeps{}},
		{name: "явный список", deps: RouterDeps{TrustedProxies: []string{"10.0.0.1", "10.1.0.0/16"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := newObservedRouter(t, tt.deps)

			assert.Zero(t, logs.FilterMessage("Invalid trusted proxies list").Len())
		})
	}
}
