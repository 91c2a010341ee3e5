// File: cmd/api/chats.go
// Description: conversation log handlers

package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/mailer"
	"github.com/Pedro-J-Kukul/chatrelay/internal/sheets"
	"github.com/Pedro-J-Kukul/chatrelay/internal/validator"
)

const chatExportFileName = "chats.csv"

// exportChatsHandler returns every logged turn as CSV, or as a JSON array
// of rows with ?format=json.
func (app *app) exportChatsHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	format := app.getSingleQueryParam(r.URL.Query(), "format", "csv")
	v.Check(v.Permitted(format, "csv", "json"), "format", "must be csv or json")
	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	rows, err := app.chatRows()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if format == "json" {
		err = app.writeJSON(w, http.StatusOK, rows, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chatExportFileName))
	w.WriteHeader(http.StatusOK)

	if err := writeCSV(w, rows); err != nil {
		// headers are already sent
		app.logError(r, err)
	}
}

// clearChatsHandler deletes every logged turn.
func (app *app) clearChatsHandler(w http.ResponseWriter, r *http.Request) {
	err := app.logs.Clear()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.logger.Info("conversation logs cleared", "operator", app.contextGetOperator(r))

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Clearing db"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listChatsHandler returns one page of logged turns.
func (app *app) listChatsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := validator.New()

	var input data.LogFilter
	input.Filter.Page = app.getSingleIntegerParam(query, "page", 1, v)
	input.Filter.PageSize = app.getSingleIntegerParam(query, "page_size", 20, v)
	input.Filter.SortBy = app.getSingleQueryParam(query, "sort", "-time")
	input.Filter.SortSafeList = []string{"time", "-time"}

	data.ValidateFilters(v, input.Filter)
	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	entries, metadata, err := app.logs.GetAll(input)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"chats": entries, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// exportChatsToSheetsHandler writes the log export into a Google Sheet.
func (app *app) exportChatsToSheetsHandler(w http.ResponseWriter, r *http.Request) {
	if app.sheetsService == nil {
		app.featureDisabledResponse(w, r, errSheetsDisabled)
		return
	}

	var input struct {
		SheetName string `json:"sheet_name"`
	}

	// the body is optional
	if r.ContentLength != 0 {
		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	v := validator.New()
	v.Check(len(input.SheetName) <= 100, "sheet_name", "must not be more than 100 bytes long")
	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	if input.SheetName == "" {
		input.SheetName = sheets.GenerateSheetName(time.Now())
	}

	rows, err := app.chatRows()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	count, err := app.sheetsService.ExportChats(r.Context(), input.SheetName, rows, app.contextGetOperator(r))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"sheet_name": input.SheetName,
		"message":    fmt.Sprintf("Successfully exported %d conversation turns to sheet '%s'", count, input.SheetName),
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// emailChatsHandler mails the CSV export as an attachment.
func (app *app) emailChatsHandler(w http.ResponseWriter, r *http.Request) {
	if app.mailer == nil {
		app.featureDisabledResponse(w, r, errMailerDisabled)
		return
	}

	var input struct {
		Email string `json:"email"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.Email != "", "email", "must be provided")
	v.Check(v.Matches(input.Email, validator.EmailRX), "email", "must be a valid email address")
	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	rows, err := app.chatRows()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, rows); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	templateData := map[string]any{
		"FileName":   chatExportFileName,
		"Turns":      len(rows) - 1,
		"ExportedAt": time.Now().Format(time.RFC1123),
	}
	err = app.mailer.Send(input.Email, "chat_export.tmpl", templateData,
		mailer.Attachment{Name: chatExportFileName, Content: buf.Bytes()})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"message": fmt.Sprintf("Sent %d conversation turns to %s", len(rows)-1, input.Email),
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *app) chatRows() ([][]string, error) {
	entries, err := app.logs.Export()
	if err != nil {
		return nil, err
	}
	return data.ChatRows(entries), nil
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	return cw.WriteAll(rows)
}
