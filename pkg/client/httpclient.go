package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// HttpClient is a small JSON client. Headers are sent on every request.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Headers:    map[string]string{},
	}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// errorBody is the shape of every non-2xx answer from the service.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (r *Response) errorBody() errorBody {
	var body errorBody
	_ = r.DecodeJSON(&body)
	return body
}

func (c *HttpClient) GET(path string) (*Response, error) {
	return c.Do(context.Background(), http.MethodGet, path, nil)
}

func (c *HttpClient) POST(path string, body any) (*Response, error) {
	return c.Do(context.Background(), http.MethodPost, path, body)
}

func (c *HttpClient) PATCH(path string, body any) (*Response, error) {
	return c.Do(context.Background(), http.MethodPatch, path, body)
}

func (c *HttpClient) DELETE(path string) (*Response, error) {
	return c.Do(context.Background(), http.MethodDelete, path, nil)
}

func (c *HttpClient) DELETEWithBody(path string, body any) (*Response, error) {
	return c.Do(context.Background(), http.MethodDelete, path, body)
}

// Do sends body JSON encoded when non-nil and reads the whole response.
func (c *HttpClient) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Response: resp, Body: respBody}, nil
}

// GetErrorCode returns the error kind carried by a failed response.
func GetErrorCode(resp *Response) string {
	return resp.errorBody().Code
}
