// File: cmd/api/healthcheck.go
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/system"
)

// healthcheckHandler reports configuration state and host resource usage.
func (app *app) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	info := envelope{
		"status":      "available",
		"environment": app.config.env,
		"version":     version,
		"features": map[string]bool{
			"workspace_configured": app.relay.Configured(),
			"personality":          app.relay.Annotator != nil && app.relay.Annotator.Personality != nil,
			"logging":              app.logs != nil,
			"sheets_export":        app.sheetsService != nil,
			"email_export":         app.mailer != nil,
		},
	}

	if app.profiles != nil {
		cacheStatus := "available"
		if err := app.profiles.Ping(ctx); err != nil {
			app.logError(r, err)
			cacheStatus = "unavailable"
		}
		info["personality_cache"] = cacheStatus
	}

	stats, err := system.GetStats(ctx)
	if err != nil {
		app.logError(r, err)
	} else {
		info["system"] = stats
	}

	err = app.writeJSON(w, http.StatusOK, info, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
