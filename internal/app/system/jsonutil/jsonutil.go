// Package jsonutil writes the JSON bodies of the public and back-office
// APIs. Every error body has the shape {"error": message}; field-level
// validation failures add a "fields" list.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// JSON writes data with status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func OK(w http.ResponseWriter, data any)      { JSON(w, http.StatusOK, data) }
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// NoContent writes 204 with no body.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error writes {"error": message} with status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func BadRequest(w http.ResponseWriter, message string)   { Error(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message string) { Error(w, http.StatusUnauthorized, message) }
func Forbidden(w http.ResponseWriter, message string)    { Error(w, http.StatusForbidden, message) }
func NotFound(w http.ResponseWriter, message string)     { Error(w, http.StatusNotFound, message) }
func Conflict(w http.ResponseWriter, message string)     { Error(w, http.StatusConflict, message) }

// InternalError writes 500. Log the cause separately; message is shown to
// the caller.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// Unavailable writes 503 with a Retry-After hint in seconds.
func Unavailable(w http.ResponseWriter, message string, retryAfter int) {
	retry(w, retryAfter)
	Error(w, http.StatusServiceUnavailable, message)
}

// TooManyRequests writes 429 with a Retry-After hint in seconds.
func TooManyRequests(w http.ResponseWriter, message string, retryAfter int) {
	retry(w, retryAfter)
	Error(w, http.StatusTooManyRequests, message)
}

func retry(w http.ResponseWriter, seconds int) {
	if seconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
}

// FieldError names one invalid field and why.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// FieldErrors writes 422 listing every invalid field.
func FieldErrors(w http.ResponseWriter, message string, fields []FieldError) {
	if fields == nil {
		fields = []FieldError{}
	}
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  message,
		"fields": fields,
	})
}

var (
	// ErrEmptyBody is returned by Decode when the request has no body.
	ErrEmptyBody = errors.New("request body is empty")
	// ErrTrailingData is returned by Decode when more than one JSON value
	// was sent.
	ErrTrailingData = errors.New("request body has data after the JSON value")
)

// Decode reads exactly one JSON value from the request body into v.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}
