package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Pedro-J-Kukul/chatrelay/internal/validator"
)

// creating an envelope type
type envelope map[string]any

// writeJSON encodes data, usually an envelope, as the response body
func (app *app) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {

	// indent the output so it reads well in a terminal
	jsResponse, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	// finish the body with a newline
	jsResponse = append(jsResponse, '\n')

	// copy over any extra headers the handler asked for
	for key, value := range headers {
		w.Header()[key] = value
	}

	// every response from this api is json
	w.Header().Set("Content-Type", "application/json")

	// status has to go out before the body
	w.WriteHeader(status)

	// write the body and hand back any write error
	_, err = w.Write(jsResponse)
	return err
}

// readJSON decodes a single json value from the request body into dest
func (app *app) readJSON(w http.ResponseWriter, r *http.Request, dest any) error {

	// limit the size of the request body to 1MB, contexts can grow over a long conversation
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))


	// unknown top level keys are rejected, context keys are handled by data.Context
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	// decode the body
	err := dec.Decode(dest)

	// turn decoder errors into messages a client can act on
	if err != nil {
		// bad syntax
		var syntaxError *json.SyntaxError
		// wrong type for a field
		var unmarshalTypeError *json.UnmarshalTypeError
		// dest was not a pointer
		var invalidUnmarshalError *json.InvalidUnmarshalError
		// body over the limit
		var maxBytesError *http.MaxBytesError

		switch {
		// syntax error with the offset
		case errors.As(err, &syntaxError):
			return fmt.Errorf("the body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		// body cut off mid value
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("the body contains badly-formed JSON")
		// name the field when the decoder knows it
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("the body contains the incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("the body contains the incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		// nothing was sent
		case errors.Is(err, io.EOF):
			return errors.New("the body must not be empty")
		// key outside the request struct
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		// too large
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("the body must not be larger than %d bytes", maxBytesError.Limit)
		// programmer error, not the client's
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	// call decode again to check if there is only a single json value in the body
	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("the body must only contain a single JSON value")
	}

	return nil
}

// get single string query parameter
func (app *app) getSingleQueryParam(queryParameters url.Values, key string, defaultValue string) string {
	result := queryParameters.Get(key)
	// fall back when the parameter is missing
	if result == "" {
		return defaultValue
	}
	return result
}

// this method can cause a validation error if the parameter is not an integer
func (app *app) getSingleIntegerParam(queryParameters url.Values, key string, defaultValue int64, v *validator.Validator) int64 {
	result := queryParameters.Get(key)
	if result == "" {
		return defaultValue
	}

	// record a validation error instead of failing the request outright
	intResult, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return intResult
}
