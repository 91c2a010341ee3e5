// Filename: /cmd/api/routes.go
// Description: connects the routes with an api

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *app) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Conversation
	router.HandlerFunc(http.MethodPost, "/api/message", app.messageHandler)

	// Conversation logs, all behind basic auth
	router.HandlerFunc(http.MethodGet, "/chats", app.requireBasicAuth(app.exportChatsHandler))
	router.HandlerFunc(http.MethodPost, "/clearDb", app.requireBasicAuth(app.clearChatsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/chats", app.requireBasicAuth(app.listChatsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/chats/sheets", app.requireBasicAuth(app.exportChatsToSheetsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/chats/email", app.requireBasicAuth(app.emailChatsHandler))

	return app.recoverPanic(app.rateLimit(app.enableCORS(router)))
}
