package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteConflictWithCode(rec, ErrCodeDuplicateEmail, "Email already registered")

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != ErrCodeDuplicateEmail || body.Error.Message != "Email already registered" {
		t.Errorf("body = %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@b.c"}`, false},
		{"empty", ``, true},
		{"malformed", `{"email":`, true},
		{"two objects", `{"email":"a"}{"email":"b"}`, true},
		{"too large", `{"email":"` + strings.Repeat("a", MaxJSONBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				Email string `json:"email"`
			}
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
