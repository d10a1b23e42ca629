package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cabins/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *HealthHandler, path string) (int, HealthResponse) {
	t.Helper()
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func testLogger() *logger.Logger {
	return logger.Discard()
}

func TestHealth(t *testing.T) {
	failing := map[string]Check{"mongo": func(ctx context.Context) error { return errors.New("down") }}
	code, body := serve(t, NewHealthHandler(failing, testLogger()), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("no reachable servers") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{"no dependencies", nil, http.StatusOK, "ready", map[string]string{}},
		{"all ok", map[string]Check{"mongo": ok, "redis": ok}, http.StatusOK, "ready", map[string]string{"mongo": "ok", "redis": "ok"}},
		{"one down", map[string]Check{"mongo": down, "redis": ok}, http.StatusServiceUnavailable, "unavailable", map[string]string{"mongo": "error", "redis": "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, NewHealthHandler(tt.checks, testLogger()), "/ready")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			if len(tt.wantChecks) == 0 {
				assert.Empty(t, body.Checks)
				return
			}
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestRedisCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	check := RedisCheck(rdb)

	assert.NoError(t, check(context.Background()))
	mr.Close()
	assert.Error(t, check(context.Background()))
}
