package authapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

var errTrailingData = errors.New("extra data after JSON object")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

// writeValidation answers 422 with every field message, as {"errors": {"field": ["msg", ...]}}.
func writeValidation(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, struct {
		Errors map[string][]string `json:"errors"`
	}{Errors: fields})
}

// readUser decodes a {"user": {...}} body into T. A missing "user" object,
// unknown fields, trailing data or an oversized body answer 400/413 and return false.
func readUser[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (T, bool) {
	var env userEnvelope[*T]
	err := decodeJSON(w, r, maxBytes, &env)
	if err == nil && env.User != nil {
		return *env.User, true
	}

	var zero T
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return zero, false
	}
	writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
	return zero, false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errTrailingData
	}
	return nil
}
