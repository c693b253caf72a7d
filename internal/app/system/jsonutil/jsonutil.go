// Package jsonutil provides helper functions for JSON API responses.
//
// Every response body carries a "success" flag; error bodies add "message"
// and, for auth failures, a machine-readable "code" the client keys off to
// start a re-authorization flow.
package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codehaven/codehaven/internal/domain/apperr"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response, merging "success": true into the payload.
func OK(w http.ResponseWriter, payload map[string]any) {
	JSON(w, http.StatusOK, withSuccess(payload))
}

// Created writes a 201 Created JSON response with "success": true.
func Created(w http.ResponseWriter, payload map[string]any) {
	JSON(w, http.StatusCreated, withSuccess(payload))
}

// NoContent writes a 204 No Content response (no body).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func withSuccess(payload map[string]any) map[string]any {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true
	return payload
}

// Fail writes an error response: {"success": false, "message": message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// FailCode writes an error response with a machine-readable code.
func FailCode(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"message": message,
		"code":    code,
	})
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, message)
}

// Auth failure codes. The client starts the consent flow on AuthRequired
// and the token refresh flow on AuthExpired.
const (
	CodeAuthRequired = "DRIVE_AUTH_REQUIRED"
	CodeAuthExpired  = "DRIVE_AUTH_EXPIRED"
)

// WriteErr maps a domain error to an HTTP error response. Unknown errors
// become a generic 500; callers log the underlying error separately.
func WriteErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		Fail(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrInvalidOperation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrPermissionDenied):
		Fail(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, apperr.ErrAuthRequired):
		FailCode(w, http.StatusUnauthorized, CodeAuthRequired, "storage authorization required")
	case errors.Is(err, apperr.ErrAuthExpired):
		FailCode(w, http.StatusUnauthorized, CodeAuthExpired, "storage authorization expired")
	case errors.Is(err, apperr.ErrRemoteUnavailable):
		Fail(w, http.StatusBadGateway, "remote storage unavailable")
	default:
		Fail(w, http.StatusInternalServerError, "internal server error")
	}
}

// Decode reads and decodes JSON from the request body into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
