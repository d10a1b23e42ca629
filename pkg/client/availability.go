package client

import (
	"fmt"
	"net/http"
	"net/url"

	"cabins/pkg/model"
)

// AvailabilityAPI is a typed client for the availability and reconcile
// endpoints.
type AvailabilityAPI struct {
	http *HttpClient
}

func NewAvailabilityAPI(baseURL string) *AvailabilityAPI {
	return &AvailabilityAPI{http: NewHttpClient(baseURL)}
}

func (c *AvailabilityAPI) As(p model.Principal, signature string) *AvailabilityAPI {
	setPrincipal(c.http, p, signature)
	return c
}

// RoomCalendar mirrors the single-room availability body.
type RoomCalendar struct {
	RoomID    string               `json:"room_id"`
	Available bool                 `json:"available"`
	Cells     []model.CalendarCell `json:"cells"`
}

type BlockResult struct {
	RoomID  string `json:"room_id"`
	Days    int    `json:"days"`
	Changed int64  `json:"changed"`
}

func (c *AvailabilityAPI) Room(roomID, from, to string) (*RoomCalendar, error) {
	path := fmt.Sprintf("/api/v1/availability/rooms/%s?from=%s&to=%s",
		url.PathEscape(roomID), url.QueryEscape(from), url.QueryEscape(to))
	resp, err := c.http.GET(path)
	if err != nil {
		return nil, err
	}
	var out RoomCalendar
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AvailabilityAPI) Search(from, to string, minCapacity int) ([]model.Room, error) {
	path := fmt.Sprintf("/api/v1/availability/search?from=%s&to=%s&min_capacity=%d",
		url.QueryEscape(from), url.QueryEscape(to), minCapacity)
	resp, err := c.http.GET(path)
	if err != nil {
		return nil, err
	}
	var out []model.Room
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AvailabilityAPI) Block(req model.BlockRequest) (*BlockResult, error) {
	resp, err := c.http.POST("/api/v1/availability/blocks", req)
	if err != nil {
		return nil, err
	}
	var out BlockResult
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AvailabilityAPI) Unblock(req model.BlockRequest) (*BlockResult, error) {
	resp, err := c.http.DELETEWithBody("/api/v1/availability/blocks", req)
	if err != nil {
		return nil, err
	}
	var out BlockResult
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reconcile triggers a reconciliation run and returns the raw report.
func (c *AvailabilityAPI) Reconcile(req model.ReconcileRequest) (map[string]any, error) {
	resp, err := c.http.POST("/api/v1/availability/reconcile", req)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}
