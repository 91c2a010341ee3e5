// File: internal/upstream/upstream_test.go
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "apikey" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":401,"error":"Unauthorized"}`))
			return
		}
		if r.URL.Query().Get("version") != "2016-05-19" {
			t.Errorf("expected version query, got %q", r.URL.RawQuery)
		}

		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["text"]})
	}))
	defer srv.Close()

	t.Run("Success", func(t *testing.T) {
		client := New("tone", srv.URL+"/", "apikey", "secret", time.Second)

		var out struct {
			Echo string `json:"echo"`
		}
		err := client.DoJSON(context.Background(), http.MethodPost, "/v3/tone", url.Values{"version": {"2016-05-19"}}, map[string]string{"text": "hi"}, &out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Echo != "hi" {
			t.Errorf("expected echo hi, got %q", out.Echo)
		}
	})

	t.Run("Upstream error keeps code and body", func(t *testing.T) {
		client := New("tone", srv.URL, "apikey", "wrong", time.Second)

		err := client.DoJSON(context.Background(), http.MethodPost, "/v3/tone", url.Values{"version": {"2016-05-19"}}, map[string]string{"text": "hi"}, nil)

		var upstreamErr *Error
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if upstreamErr.StatusCode() != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", upstreamErr.StatusCode())
		}
		if upstreamErr.Message != "Unauthorized" {
			t.Errorf("expected message Unauthorized, got %q", upstreamErr.Message)
		}
		if _, ok := upstreamErr.Payload().(json.RawMessage); !ok {
			t.Errorf("expected raw upstream body as payload, got %T", upstreamErr.Payload())
		}
	})
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected int
		message  string
	}{
		{
			name:     "Code in body overrides status",
			status:   http.StatusBadRequest,
			body:     `{"code":404,"error":"Workspace not found"}`,
			expected: http.StatusNotFound,
			message:  "Workspace not found",
		},
		{
			name:     "Non JSON body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			expected: http.StatusBadGateway,
			message:  "Bad Gateway",
		},
		{
			name:     "Nested errors keep status",
			status:   http.StatusNotFound,
			body:     `{"errors":[{"code":34,"message":"Sorry, that page does not exist."}]}`,
			expected: http.StatusNotFound,
			message:  "Not Found",
		},
		{
			name:     "Zero code keeps status",
			status:   http.StatusTeapot,
			body:     `{"code":0,"message":"strange"}`,
			expected: http.StatusTeapot,
			message:  "strange",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError("svc", tt.status, []byte(tt.body))
			if err.StatusCode() != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, err.StatusCode())
			}
			if err.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Message)
			}
		})
	}
}

func TestAsErrorDefaultsTo500(t *testing.T) {
	err := AsError(errors.New("boom"))
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.StatusCode())
	}

	transport := &Error{Code: 0, Message: "dial tcp: refused"}
	if transport.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500 for code 0, got %d", transport.StatusCode())
	}
}
