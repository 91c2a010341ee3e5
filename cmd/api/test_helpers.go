// File: cmd/api/test_helpers.go
// Description: Test helper functions for API handler tests

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Pedro-J-Kukul/chatrelay/internal/conversation"
	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/dialog"
	"github.com/Pedro-J-Kukul/chatrelay/internal/tone"
)

const (
	testWorkspace = "ws-test"
	testLogUser   = "admin"
	testLogPass   = "s3cret-pass"
)

// fakeServices stands in for the dialog and tone services.
type fakeServices struct {
	server       *httptest.Server
	dialogCalls  atomic.Int32
	toneCalls    atomic.Int32
	dialogStatus int
	dialogError  string
	emotion      string
}

func newFakeServices(t *testing.T) *fakeServices {
	t.Helper()

	f := &fakeServices{emotion: "joy"}
	mux := http.NewServeMux()

	mux.HandleFunc("/v3/tone", func(w http.ResponseWriter, r *http.Request) {
		f.toneCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"document_tone": {"tone_categories": [
			{"category_id": "emotion_tone", "tones": [
				{"tone_id": "anger", "score": 0.1},
				{"tone_id": "`+f.emotion+`", "score": 0.9}
			]}
		]}}`)
	})

	mux.HandleFunc("/v1/workspaces/"+testWorkspace+"/message", func(w http.ResponseWriter, r *http.Request) {
		f.dialogCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")

		if f.dialogStatus != 0 {
			w.WriteHeader(f.dialogStatus)
			io.WriteString(w, f.dialogError)
			return
		}

		var req data.MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Context.ConversationID == "" {
			req.Context.ConversationID = "conv-1"
		}

		json.NewEncoder(w).Encode(data.MessageResponse{
			Input:    req.Input,
			Output:   &data.Output{Text: data.NewText("Hello there.")},
			Context:  req.Context,
			Intents:  []data.Intent{{Intent: "greeting", Confidence: 0.97}},
			Entities: []data.Entity{{Entity: "time", Value: "today"}},
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeServices) calls() int32 {
	return f.dialogCalls.Load() + f.toneCalls.Load()
}

// newTestApp builds an application wired to fake services and, when
// withLogs is set, an in-memory SQLite log store.
func newTestApp(t *testing.T, withLogs bool) (*app, *fakeServices) {
	t.Helper()

	services := newFakeServices(t)

	cfg := config{
		port:            4000,
		env:             "test",
		workspaceID:     testWorkspace,
		upstreamTimeout: 5 * time.Second,
	}
	cfg.logs.user = testLogUser
	cfg.logs.password = testLogPass

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testApp := &app{
		config: cfg,
		logger: logger,
		relay: &conversation.Relay{
			Dialog:      dialog.New(services.server.URL, "", "", cfg.upstreamTimeout),
			Annotator:   &conversation.Annotator{Tone: tone.New(services.server.URL, "", "", cfg.upstreamTimeout), Logger: logger},
			WorkspaceID: cfg.workspaceID,
			Timeout:     cfg.upstreamTimeout,
			Logger:      logger,
		},
	}

	if withLogs {
		store, err := openLogStore("sqlite::memory:")
		if err != nil {
			t.Fatalf("Failed to open log store: %v", err)
		}
		t.Cleanup(func() { store.Close() })

		hash, err := bcrypt.GenerateFromPassword([]byte(testLogPass), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}

		testApp.logs = store
		testApp.logPassHash = hash
		testApp.relay.Logs = store
	}

	return testApp, services
}

// executeRequest executes an HTTP request and returns the response recorder
func executeRequest(app *app, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

// makeRequest creates and executes an HTTP request. A string body is sent as is.
func makeRequest(t *testing.T, app *app, method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
	default:
		jsonBody, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return executeRequest(app, req)
}

// makeAuthRequest is makeRequest with the log endpoint credentials.
func makeAuthRequest(t *testing.T, app *app, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, url, nil)
	req.SetBasicAuth(testLogUser, testLogPass)
	return makeRequest(t, app, method, url, body, map[string]string{"Authorization": req.Header.Get("Authorization")})
}

// parseJSONResponse parses a JSON response into a destination struct
func parseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()

	err := json.NewDecoder(rr.Body).Decode(dest)
	if err != nil {
		t.Fatalf("Failed to parse JSON response: %v. Body: %s", err, rr.Body.String())
	}
}

// checkResponseCode checks if the response has the expected status code
func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()

	if expected != actual {
		t.Errorf("Expected status code %d, got %d", expected, actual)
	}
}

// sendMessage posts one turn and decodes the reply.
func sendMessage(t *testing.T, app *app, request any) *data.MessageResponse {
	t.Helper()

	rr := makeRequest(t, app, http.MethodPost, "/api/message", request, nil)
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp data.MessageResponse
	parseJSONResponse(t, rr, &resp)
	return &resp
}
