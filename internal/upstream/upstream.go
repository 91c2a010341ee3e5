// File: internal/upstream/upstream.go
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single call to a collaborator service.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a collaborator's response is read.
const maxResponseBytes = 4 << 20

// Error is a failed call to a collaborator service. Code is the status the
// failure is reported with; Body is the collaborator's error payload.
type Error struct {
	Service string          `json:"-"`
	Code    int             `json:"code"`
	Message string          `json:"error"`
	Body    json.RawMessage `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Service, e.StatusCode(), e.Message)
}

// StatusCode is Code when it is a valid HTTP status, 500 otherwise.
func (e *Error) StatusCode() int {
	if e.Code < 400 || e.Code > 599 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Payload is what the client sees: the collaborator's JSON body when it sent
// one, otherwise the code and message.
func (e *Error) Payload() any {
	if len(e.Body) > 0 && json.Valid(e.Body) {
		return e.Body
	}
	return e
}

// AsError unwraps err into an *Error. Errors that did not come from a
// collaborator are wrapped with code 500.
func AsError(err error) *Error {
	var upstreamErr *Error
	if errors.As(err, &upstreamErr) {
		return upstreamErr
	}
	return &Error{Code: http.StatusInternalServerError, Message: err.Error()}
}

// Client performs JSON calls against one collaborator service.
type Client struct {
	Service  string
	BaseURL  string
	Username string
	Password string
	HTTP     *http.Client
}

// New returns a client with its own timeout. A zero timeout uses DefaultTimeout.
func New(service, baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Service:  service,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// DoJSON sends in (when non-nil) as the JSON body of method path?query and
// decodes a 2xx response into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", c.Service, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create HTTP request: %w", c.Service, err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Username != "" || c.Password != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &Error{Service: c.Service, Code: http.StatusInternalServerError, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Service: c.Service, Code: http.StatusInternalServerError, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(c.Service, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Service: c.Service, Code: http.StatusInternalServerError, Message: fmt.Sprintf("failed to parse response JSON: %v", err), Body: raw}
	}
	return nil
}

// decodeError prefers the code and message the collaborator put in its body.
func decodeError(service string, status int, raw []byte) *Error {
	upstreamErr := &Error{Service: service, Code: status, Message: http.StatusText(status), Body: raw}

	var payload struct {
		Code        json.Number `json:"code"`
		Error       string      `json:"error"`
		Description string      `json:"description"`
		Message     string      `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return upstreamErr
	}

	if code, err := payload.Code.Int64(); err == nil && code != 0 {
		upstreamErr.Code = int(code)
	}
	switch {
	case payload.Error != "":
		upstreamErr.Message = payload.Error
	case payload.Message != "":
		upstreamErr.Message = payload.Message
	case payload.Description != "":
		upstreamErr.Message = payload.Description
	}
	return upstreamErr
}
