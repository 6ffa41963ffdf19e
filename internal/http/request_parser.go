// Package http provides HTTP server and handler implementations.
//
// This file provides request body parsing shared by the JSON handlers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gameradar/internal/core"
)

// maxBodyBytes bounds JSON and form bodies. CSV imports use maxImportBytes.
const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 8 << 20
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = readLimited(r, maxBodyBytes)
	return p
}

// Parse attempts to parse the body as JSON or form data. Failures wrap
// core.ErrParse.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: invalid JSON body: %v", core.ErrParse, err)
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		p.err = fmt.Errorf("%w: invalid form body: %v", core.ErrParse, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Require returns the value for key or a validation error naming it.
func (p *RequestBodyParser) Require(key string) (string, error) {
	v := p.Get(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", core.ErrValidation, key)
	}
	return v, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// readLimited reads at most limit bytes, failing with a validation error
// when the body is larger.
func readLimited(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: request body exceeds %d bytes", core.ErrValidation, limit)
	}
	return data, nil
}

// readImportText returns the CSV text of an import request. JSON bodies
// carry it in a "csv" field, anything else is taken verbatim.
func readImportText(r *http.Request) (string, error) {
	data, err := readLimited(r, maxImportBytes)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			CSV *string `json:"csv"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return "", fmt.Errorf("%w: invalid JSON body: %v", core.ErrParse, err)
		}
		if body.CSV == nil {
			return "", errors.Join(core.ErrValidation, errors.New("csv is required"))
		}
		return *body.CSV, nil
	}
	return string(data), nil
}
