// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors onto status codes in one place.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gameradar/internal/core"
	"gameradar/internal/reconciler"
	"gameradar/internal/sheets"
)

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":"encode response"}`)
	}
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body = append(data, '\n')
	return b
}

// Text sets a plain body with the given content type.
func (b *ResponseBuilder) Text(contentType, content string) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.body = []byte(content)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ErrorResponse creates a JSON error response with an explicit status.
func ErrorResponse(statusCode int, kind, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(errorBody{Error: message, Kind: kind})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "validation", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// FromError classifies err and builds the matching error response.
func FromError(err error) *ResponseBuilder {
	status, kind := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return ErrorResponse(status, kind, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, core.ErrParse):
		return http.StatusBadRequest, "parse"
	case errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, reconciler.ErrPollInProgress):
		return http.StatusConflict, "busy"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case core.IsUpstream(err):
		return http.StatusBadGateway, "upstream"
	case errors.Is(err, sheets.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
