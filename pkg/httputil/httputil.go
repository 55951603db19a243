// Package httputil wraps the http calls made to JSON APIs.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every request made with the default client.
const DefaultTimeout = 30 * time.Second

var client = &http.Client{Timeout: DefaultTimeout}

// SetTimeout changes the timeout of every request made from now on. A non
// positive timeout restores DefaultTimeout.
func SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client = &http.Client{Timeout: timeout}
}

// NewHTTPRequest makes a http call and returns the status code and the body
// of the response. A non nil body is JSON encoded.
func NewHTTPRequest(
	ctx context.Context, method, url string, body interface{},
	header map[string]string,
) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer rs.Body.Close()

	respBody, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return rs.StatusCode, respBody, nil
}

// GetJSON makes a GET call and decodes the JSON response into value.
func GetJSON(ctx context.Context, url string, value interface{}) error {
	status, body, err := NewHTTPRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return err
	}
	return decode(status, body, value)
}

// PostJSON makes a POST call with a JSON body and decodes the JSON response
// into value.
func PostJSON(
	ctx context.Context, url string, body, value interface{},
) error {
	status, respBody, err := NewHTTPRequest(
		ctx, http.MethodPost, url, body, nil,
	)
	if err != nil {
		return err
	}
	return decode(status, respBody, value)
}

// StatusError is returned for responses with a non 2xx status code.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

func decode(status int, body []byte, value interface{}) error {
	if status < 200 || status >= 300 {
		return &StatusError{status, body}
	}
	if value == nil {
		return nil
	}
	if err := json.Unmarshal(body, value); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
