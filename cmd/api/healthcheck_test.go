// File: cmd/api/healthcheck_test.go
package main

import (
	"net/http"
	"testing"
)

func TestHealthcheckHandler(t *testing.T) {
	app, _ := newTestApp(t, true)

	rr := makeRequest(t, app, http.MethodGet, "/v1/healthcheck", nil, nil)
	checkResponseCode(t, http.StatusOK, rr.Code)

	var response struct {
		Status   string          `json:"status"`
		Version  string          `json:"version"`
		Features map[string]bool `json:"features"`
	}
	parseJSONResponse(t, rr, &response)

	if response.Status != "available" || response.Version != version {
		t.Errorf("Unexpected healthcheck %+v", response)
	}
	if !response.Features["logging"] || !response.Features["workspace_configured"] {
		t.Errorf("Expected logging and workspace to be reported, got %v", response.Features)
	}
	if response.Features["sheets_export"] || response.Features["personality"] {
		t.Errorf("Expected disabled integrations to be reported, got %v", response.Features)
	}
}
