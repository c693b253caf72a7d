package jsonutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codehaven/codehaven/internal/domain/apperr"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	return got
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]any{"project": "demo"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	got := decodeBody(t, rec)
	if got["success"] != true {
		t.Errorf("success = %v, want true", got["success"])
	}
	if got["project"] != "demo" {
		t.Errorf("project = %v, want demo", got["project"])
	}
}

func TestOK_NilPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, nil)

	got := decodeBody(t, rec)
	if got["success"] != true {
		t.Errorf("success = %v, want true", got["success"])
	}
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]any{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	got := decodeBody(t, rec)
	if got["success"] != true || got["id"] != "abc" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusBadRequest, "content is required")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	got := decodeBody(t, rec)
	if got["success"] != false {
		t.Errorf("success = %v, want false", got["success"])
	}
	if got["message"] != "content is required" {
		t.Errorf("message = %v", got["message"])
	}
}

func TestWriteErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperr.ErrNotFound, http.StatusNotFound, ""},
		{"wrapped not found", fmt.Errorf("file: %w", apperr.ErrNotFound), http.StatusNotFound, ""},
		{"conflict", apperr.ErrConflict, http.StatusConflict, ""},
		{"invalid operation", apperr.ErrInvalidOperation, http.StatusBadRequest, ""},
		{"permission denied", apperr.ErrPermissionDenied, http.StatusForbidden, ""},
		{"auth required", apperr.ErrAuthRequired, http.StatusUnauthorized, CodeAuthRequired},
		{"auth expired", apperr.ErrAuthExpired, http.StatusUnauthorized, CodeAuthExpired},
		{"remote unavailable", apperr.ErrRemoteUnavailable, http.StatusBadGateway, ""},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteErr(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			got := decodeBody(t, rec)
			if got["success"] != false {
				t.Errorf("success = %v, want false", got["success"])
			}
			if tt.wantCode != "" && got["code"] != tt.wantCode {
				t.Errorf("code = %v, want %q", got["code"], tt.wantCode)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type input struct {
		Name    string  `json:"name"`
		Content *string `json:"content"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"main.js","content":""}`))
	var in input
	if err := Decode(req, &in); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if in.Name != "main.js" {
		t.Errorf("name = %q", in.Name)
	}
	// Empty string content must stay distinct from missing content
	if in.Content == nil || *in.Content != "" {
		t.Errorf("content = %v, want empty string", in.Content)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"main.js"}`))
	in = input{}
	if err := Decode(req, &in); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if in.Content != nil {
		t.Errorf("missing content should decode to nil, got %q", *in.Content)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	if err := Decode(req, &in); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
