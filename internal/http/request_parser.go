// Package http provides the JSON REST API server and its handlers.
//
// This file implements the shared request decoding helpers: bounded JSON
// bodies, page parameters and path ids.

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
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// DecodeJSON reads a single JSON value from the request body into a T.
// Errors raised by the value's own decoders (amounts, dates) are returned
// unwrapped so callers can match them; anything else wraps errBadBody.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &maxErr),
			errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return v, fmt.Errorf("%w: %v", errBadBody, err)
		default:
			return v, err
		}
	}
	if dec.More() {
		return v, fmt.Errorf("%w: trailing data", errBadBody)
	}
	return v, nil
}

// ParsePage reads the 1-based page parameter. ok is false when the
// parameter is absent, which asks for the full list. Unparseable or
// non-positive values read as page 1.
func ParsePage(query url.Values) (page int, ok bool) {
	raw, present := query["page"]
	if !present {
		return 0, false
	}
	v := ""
	if len(raw) > 0 {
		v = strings.TrimSpace(raw[0])
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1, true
	}
	return n, true
}

// PathID returns the sanitized {id} path segment.
func PathID(r *http.Request) string {
	return sanitizeInput(r.PathValue("id"))
}
