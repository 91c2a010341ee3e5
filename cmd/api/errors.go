package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Pedro-J-Kukul/chatrelay/internal/upstream"
)

// logs the error message along with the request method and URL
func (app *app) logError(r *http.Request, err error) {
	method := r.Method
	uri := r.URL.RequestURI()
	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// Sends an error response in JSON format
func (app *app) errorResponseJSON(w http.ResponseWriter, r *http.Request, status int, message any) {
	errorData := envelope{"error": message}
	err := app.writeJSON(w, status, errorData, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

// error response for total server failure with a 500 status code
func (app *app) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.errorResponseJSON(w, r, http.StatusInternalServerError, message)
}

// upstreamErrorResponse relays a collaborator failure with its own status
// code and body, 500 when it has none.
func (app *app) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	upstreamErr := upstream.AsError(err)
	if writeErr := app.writeJSON(w, upstreamErr.StatusCode(), upstreamErr.Payload(), nil); writeErr != nil {
		app.logError(r, writeErr)
		w.WriteHeader(500)
	}
}

// send an error response if our client messes up with a 404
func (app *app) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	app.errorResponseJSON(w, r, http.StatusNotFound, message)
}

// send an error response if our client messes up with a 405
func (app *app) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponseJSON(w, r, http.StatusMethodNotAllowed, message)
}

// send an error response if our client messes up with a 400 (bad request)
func (app *app) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponseJSON(w, r, http.StatusBadRequest, err.Error())
}

// error response for failed validation checks with a 422 status code
func (app *app) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.errorResponseJSON(w, r, http.StatusUnprocessableEntity, errors)
}

// For rate limit exceeded errors with a 429 status code
func (app *app) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	app.errorResponseJSON(w, r, http.StatusTooManyRequests, message)
}

// basic auth missing, the client should prompt for credentials
func (app *app) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="conversation logs", charset="UTF-8"`)
	message := "you must be authenticated to access this resource"
	app.errorResponseJSON(w, r, http.StatusUnauthorized, message)
}

// wrong username or password
func (app *app) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="conversation logs", charset="UTF-8"`)
	message := "invalid authentication credentials"
	app.errorResponseJSON(w, r, http.StatusUnauthorized, message)
}

// an optional integration is switched off
func (app *app) featureDisabledResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponseJSON(w, r, http.StatusNotFound, err.Error())
}

var (
	errSheetsDisabled = errors.New("google sheets export is not configured")
	errMailerDisabled = errors.New("email export is not configured")
)
