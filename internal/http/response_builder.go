// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses,
// including the empty-state body and the error envelope.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"society/internal/core"
	"society/internal/ledger"
	"society/internal/services"
	"society/internal/settlement"
)

// EmptyMessage is shown in place of a result that has no rows.
const EmptyMessage = "No records found"

// Emptier is implemented by results that can have nothing to show.
type Emptier interface {
	Empty() bool
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Result sets v as the body. When v reports itself empty the body also
// carries "empty": true and the empty-state message next to v's own fields.
func (b *JSONResponseBuilder) Result(v any) *JSONResponseBuilder {
	e, ok := v.(Emptier)
	if !ok || !e.Empty() {
		return b.Body(v)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return b.Body(v)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return b.Body(v)
	}
	fields["empty"] = json.RawMessage("true")
	fields["message"], _ = json.Marshal(EmptyMessage)
	return b.Body(fields)
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if b.body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "component", "http", "error", err)
	}
}

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error   string            `json:"error"`
	Invalid []core.Settlement `json:"invalid,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ServiceError maps an error from the service layer to a response:
// incomplete bank details and empty selections are 422, selections that
// do not match the column are 409, unknown ids 404, bad input 400. Anything
// else is a 500 whose cause stays in the log.
func ServiceError(err error) *JSONResponseBuilder {
	var verr *settlement.ValidationError
	switch {
	case errors.As(err, &verr):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: verr.Error(), Invalid: verr.Invalid})
	case errors.Is(err, settlement.ErrEmptySelection):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, settlement.ErrInvalidTransition):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNoOwner):
		return ErrorResponse(http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrInvalidStatus), errors.Is(err, core.ErrInvalidMonth):
		return BadRequestError(err.Error())
	}
	return InternalServerError("internal error")
}
