package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"hobbyhub/internal/model"
)

type stubResolver map[string]int64

func (s stubResolver) ResolveCaller(ctx context.Context, credential string) model.Caller {
	return model.Caller{UserID: s[credential]}
}

type stubUsers map[int64]*model.User

func (s stubUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if id == 500 {
		return nil, errors.New("db down")
	}
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

// echoUser writes the user id seen in the context, or 0.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	w.Header().Set("X-User", strconv.FormatInt(userID, 10))
	w.WriteHeader(http.StatusOK)
})

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"case-insensitive scheme", "bearer abc", "", "abc"},
		{"header wins over cookie", "Bearer abc", "def", "abc"},
		{"cookie fallback", "", "def", "def"},
		{"non-bearer header falls back to cookie", "Basic xyz", "def", "def"},
		{"empty bearer falls back to cookie", "Bearer ", "def", "def"},
		{"blank bearer falls back to cookie", "Bearer   ", "def", "def"},
		{"empty bearer without cookie", "Bearer ", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			if got := ExtractToken(req); got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(stubResolver{"good": 3})(echoUser)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantUser   string
	}{
		{"valid token", "good", http.StatusOK, "3"},
		{"unknown token", "bad", http.StatusUnauthorized, ""},
		{"missing token", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-User"); got != tt.wantUser {
				t.Errorf("user = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	handler := OptionalAuthMiddleware(stubResolver{"good": 3})(echoUser)

	for token, want := range map[string]string{"good": "3", "bad": "0", "": "0"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("token %q: status = %d, want 200", token, rec.Code)
		}
		if got := rec.Header().Get("X-User"); got != want {
			t.Errorf("token %q: user = %q, want %q", token, got, want)
		}
	}
}

func TestAdminOnly(t *testing.T) {
	users := stubUsers{
		1: {ID: 1, IsAdmin: true},
		2: {ID: 2},
	}
	resolver := stubResolver{"admin": 1, "member": 2, "ghost": 9, "broken": 500}
	handler := AuthMiddleware(resolver)(AdminOnly(users)(echoUser))

	tests := []struct {
		token      string
		wantStatus int
	}{
		{"admin", http.StatusOK},
		{"member", http.StatusForbidden},
		{"ghost", http.StatusUnauthorized},
		{"broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
