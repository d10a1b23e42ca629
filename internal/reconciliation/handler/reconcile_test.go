package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cabins/internal/calendar/validator"
	"cabins/internal/reconciliation/service"
	"cabins/internal/store/memory"
	"cabins/pkg/client"
	"cabins/pkg/config"
	"cabins/pkg/logger"
	"cabins/pkg/middleware"
	"cabins/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	cfg := config.Default(log)
	store := memory.New()
	for _, id := range []string{"A", "B"} {
		require.NoError(t, store.Rooms().Save(context.Background(), &model.Room{ID: id, RoomNumber: id, Capacity: 2, IsActive: true}))
	}

	rec := service.NewReconciler(store.TxManager(), store.Rooms(), store.Reservations(), store.Calendar(), store.Blocks(), cfg)
	router := httprouter.New()
	NewReconcileHandler(rec, validator.NewCalendarValidator(log), cfg).RegisterRoutes(router)

	srv := httptest.NewServer(middleware.Principal("/api/", "", log)(router))
	t.Cleanup(srv.Close)
	return srv
}

func TestReconcileHandler(t *testing.T) {
	srv := newServer(t)
	admin := client.NewAvailabilityAPI(srv.URL).As(model.Principal{ID: "ops", Role: model.RoleAdmin}, "")

	report, err := admin.Reconcile(model.ReconcileRequest{RoomIDs: []string{"A"}, From: "2024-06-01", To: "2024-06-11"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, report["rooms_examined"])
	assert.EqualValues(t, 10, report["created"])

	report, err = admin.Reconcile(model.ReconcileRequest{From: "2024-06-01", To: "2024-06-11"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, report["rooms_examined"])
	assert.EqualValues(t, 10, report["created"])
	assert.EqualValues(t, 10, report["unchanged"])

	report, err = admin.Reconcile(model.ReconcileRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2*config.DefaultReconcileHorizonDays, report["cells_examined"])
}

func TestReconcileHandler_Rejections(t *testing.T) {
	srv := newServer(t)

	_, err := client.NewAvailabilityAPI(srv.URL).
		As(model.Principal{ID: "u1", Role: model.RoleClient}, "").
		Reconcile(model.ReconcileRequest{})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = client.NewAvailabilityAPI(srv.URL).
		As(model.Principal{ID: "ops", Role: model.RoleAdmin}, "").
		Reconcile(model.ReconcileRequest{From: "2024-06-10", To: "2024-06-01"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}
