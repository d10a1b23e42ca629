package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"cabins/internal/calendar/service"
	"cabins/internal/calendar/validator"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	httputil "cabins/pkg/http"
	"cabins/pkg/logger"
	"cabins/pkg/middleware"
	"cabins/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// RoomCalendar is the body of a single-room availability query.
type RoomCalendar struct {
	RoomID    string               `json:"room_id"`
	Range     days.Range           `json:"range"`
	Available bool                 `json:"available"`
	Cells     []model.CalendarCell `json:"cells"`
}

type AvailabilityHandler struct {
	service   service.AvailabilityService
	validator *validator.CalendarValidator
	log       *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, validator *validator.CalendarValidator, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service:   service,
		validator: validator,
		log:       log,
	}
}

func (h *AvailabilityHandler) GetRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, to, err := httputil.ExtractDayRange(r, "from", "to")
	if err != nil {
		h.writeError(w, "GetRoom", err)
		return
	}

	roomID := ps.ByName("room_id")
	cells, err := h.service.GetCalendar(r.Context(), roomID, from, to)
	if err != nil {
		h.writeError(w, "GetRoom", err)
		return
	}

	available := true
	for _, c := range cells {
		if !c.Available {
			available = false
			break
		}
	}

	body := RoomCalendar{
		RoomID:    roomID,
		Range:     days.NewRange(from, to),
		Available: available,
		Cells:     cells,
	}
	if err := httputil.WriteSuccess(w, body); err != nil {
		h.log.Error("failed to write success response", "handler", "GetRoom", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, to, err := httputil.ExtractDayRange(r, "from", "to")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	minCapacity := 1
	if s := r.URL.Query().Get("min_capacity"); s != "" {
		minCapacity, err = strconv.Atoi(s)
		if err != nil || minCapacity < 1 {
			h.writeError(w, "Search", apperrors.InvalidInput("invalid min_capacity parameter: "+s))
			return
		}
	}

	rooms, err := h.service.FindAvailableRooms(r.Context(), from, to, minCapacity)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Block(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.changeBlock(w, r, "Block", h.service.Block)
}

func (h *AvailabilityHandler) Unblock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.changeBlock(w, r, "Unblock", h.service.Unblock)
}

type blockFunc func(ctx context.Context, principal model.Principal, in service.BlockInput) (*service.BlockResult, error)

func (h *AvailabilityHandler) changeBlock(w http.ResponseWriter, r *http.Request, handler string, apply blockFunc) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req model.BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, handler, apperrors.InvalidInput("Invalid request body"))
		return
	}

	input, err := h.validator.ValidateBlock(&req)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	result, err := apply(r.Context(), principal, input)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability/rooms/:room_id", h.GetRoom)
	router.GET("/api/v1/availability/search", h.Search)
	router.POST("/api/v1/availability/blocks", h.Block)
	router.DELETE("/api/v1/availability/blocks", h.Unblock)
}
