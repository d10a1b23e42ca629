package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"cabins/pkg/config"
	"cabins/pkg/logger"
	"cabins/pkg/middleware"
	"cabins/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	calls atomic.Int32
}

func (h *echoHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.calls.Add(1)
		p, _ := middleware.PrincipalFrom(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"` + p.ID + `"}`))
	})
}

func newTestApp(t *testing.T, mutate func(cfg *config.Config)) (*httptest.Server, *echoHandler) {
	t.Helper()
	cfg := config.Default(logger.Discard())
	if mutate != nil {
		mutate(cfg)
	}

	echo := &echoHandler{}
	a := NewApplication()
	a.SetApp(cfg, echo)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv, echo
}

func post(t *testing.T, srv *httptest.Server, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/echo", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func principalHeaders(id, role string) map[string]string {
	return map[string]string{
		middleware.PrincipalIDHeader:   id,
		middleware.PrincipalRoleHeader: role,
	}
}

func TestApplication_HealthBypassesPrincipal(t *testing.T) {
	srv, _ := newTestApp(t, nil)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestApplication_PrincipalRequired(t *testing.T) {
	srv, echo := newTestApp(t, nil)

	assert.Equal(t, http.StatusUnauthorized, post(t, srv, nil).StatusCode)
	assert.Equal(t, http.StatusCreated, post(t, srv, principalHeaders("u1", "client")).StatusCode)
	assert.EqualValues(t, 1, echo.calls.Load())
}

func TestApplication_GatewaySignature(t *testing.T) {
	srv, _ := newTestApp(t, func(cfg *config.Config) { cfg.GatewaySecret = "s3cret" })

	headers := principalHeaders("u1", "client")
	assert.Equal(t, http.StatusUnauthorized, post(t, srv, headers).StatusCode)

	headers[middleware.PrincipalSignatureHeader] = middleware.SignPrincipal(
		model.Principal{ID: "u1", Role: model.RoleClient}, "s3cret")
	assert.Equal(t, http.StatusCreated, post(t, srv, headers).StatusCode)
}

func TestApplication_RateLimitPerPrincipal(t *testing.T) {
	srv, _ := newTestApp(t, func(cfg *config.Config) { cfg.RateLimitRequests = 2 })

	u1 := principalHeaders("u1", "client")
	assert.Equal(t, http.StatusCreated, post(t, srv, u1).StatusCode)
	assert.Equal(t, http.StatusCreated, post(t, srv, u1).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, post(t, srv, u1).StatusCode)
	assert.Equal(t, http.StatusCreated, post(t, srv, principalHeaders("u2", "client")).StatusCode)
}

func TestApplication_IdempotentReplay(t *testing.T) {
	srv, echo := newTestApp(t, nil)

	headers := principalHeaders("u1", "client")
	headers["Idempotency-Key"] = "k-1"
	first := post(t, srv, headers)
	second := post(t, srv, headers)

	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.EqualValues(t, 1, echo.calls.Load())
}

func TestApplication_ContentType(t *testing.T) {
	srv, _ := newTestApp(t, nil)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/echo", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(middleware.PrincipalIDHeader, "u1")
	req.Header.Set(middleware.PrincipalRoleHeader, "client")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
