// File: cmd/api/messages.go
// Description: conversation endpoint

package main

import (
	"net/http"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
)

// messageHandler runs one conversation turn and returns the dialog
// service's response with a personalized output text.
func (app *app) messageHandler(w http.ResponseWriter, r *http.Request) {
	var input data.MessageRequest

	// without a workspace every request gets the same fixed reply, so the body is never read
	if app.relay.Configured() {
		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	resp, err := app.relay.Message(r.Context(), &input)
	if err != nil {
		app.upstreamErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
