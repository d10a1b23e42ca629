package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cabins/internal/calendar/validator"
	"cabins/internal/reconciliation/service"
	"cabins/pkg/config"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	httputil "cabins/pkg/http"
	"cabins/pkg/middleware"
	"cabins/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReconcileHandler struct {
	reconciler service.Reconciler
	validator  *validator.CalendarValidator
	cfg        *config.Config
}

func NewReconcileHandler(reconciler service.Reconciler, validator *validator.CalendarValidator, cfg *config.Config) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		validator:  validator,
		cfg:        cfg,
	}
}

// Reconcile runs synchronously and returns the report. An empty body
// reconciles every room over the configured horizon.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}
	if !principal.IsAdmin() {
		h.writeError(w, apperrors.Forbidden("Only administrators can reconcile the calendar"))
		return
	}

	var req model.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	input, err := h.validator.ValidateReconcile(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rng := days.NewRange(input.From, input.To)
	if input.From.IsZero() {
		rng = service.Horizon(h.cfg, days.Today())
	}

	h.cfg.Log.Info("Reconcile triggered over HTTP",
		"principal_id", principal.ID,
		"request_id", middleware.RequestID(r.Context()),
		"rooms", len(input.RoomIDs),
		"range", rng.String(),
	)

	report, err := h.reconciler.Reconcile(r.Context(), input.RoomIDs, rng.From, rng.To)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.cfg.Log.Error("failed to write success response", "handler", "Reconcile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReconcileHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.cfg.Log.Error("failed to write error response", "handler", "Reconcile", "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReconcileHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/availability/reconcile", h.Reconcile)
}
