package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"cabins/pkg/model"
)

// Gateway headers carrying the caller identity. They mirror the names the
// principal middleware reads.
const (
	userIDHeader        = "X-User-ID"
	userRoleHeader      = "X-User-Role"
	userSignatureHeader = "X-User-Signature"
)

// APIError is a non-2xx response decoded into its error kind.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// ReservationAPI is a typed client for the reservation endpoints.
type ReservationAPI struct {
	http *HttpClient
}

func NewReservationAPI(baseURL string) *ReservationAPI {
	return &ReservationAPI{http: NewHttpClient(baseURL)}
}

// As sets the principal sent on every following request. signature may be
// empty when the gateway secret is not configured.
func (c *ReservationAPI) As(p model.Principal, signature string) *ReservationAPI {
	setPrincipal(c.http, p, signature)
	return c
}

func setPrincipal(h *HttpClient, p model.Principal, signature string) {
	h.Headers[userIDHeader] = p.ID
	h.Headers[userRoleHeader] = string(p.Role)
	if signature != "" {
		h.Headers[userSignatureHeader] = signature
	} else {
		delete(h.Headers, userSignatureHeader)
	}
}

func (c *ReservationAPI) Create(req model.CreateReservationRequest) (*model.Reservation, error) {
	resp, err := c.http.POST("/api/v1/reservations", req)
	if err != nil {
		return nil, err
	}
	var out model.Reservation
	if err := decodeData(resp, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ReservationAPI) Get(id string) (*model.Reservation, error) {
	resp, err := c.http.GET("/api/v1/reservations/id/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var out model.Reservation
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ReservationAPI) List(limit int, offset int64) ([]model.Reservation, int64, error) {
	resp, err := c.http.GET(fmt.Sprintf("/api/v1/reservations?limit=%d&offset=%d", limit, offset))
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, apiError(resp)
	}
	var page struct {
		Data       []model.Reservation `json:"data"`
		TotalCount int64               `json:"total_count"`
	}
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return page.Data, page.TotalCount, nil
}

func (c *ReservationAPI) Modify(id string, req model.ModifyReservationRequest) (*model.Reservation, error) {
	resp, err := c.http.PATCH("/api/v1/reservations/id/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	var out model.Reservation
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelResult mirrors the body of a successful cancellation.
type CancelResult struct {
	Reservation      model.Reservation `json:"reservation"`
	AlreadyCancelled bool              `json:"already_cancelled"`
}

func (c *ReservationAPI) Cancel(id string) (*CancelResult, error) {
	resp, err := c.http.DELETE("/api/v1/reservations/id/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var out CancelResult
	if err := decodeData(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeData(resp *Response, want int, target any) error {
	if resp.StatusCode != want {
		return apiError(resp)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func apiError(resp *Response) *APIError {
	body := resp.errorBody()
	message := body.Message
	if message == "" {
		message = body.Code
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       body.Code,
		Message:    message,
		Details:    body.Details,
	}
}
