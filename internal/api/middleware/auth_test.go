package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/careconnect/backend/internal/domain/entities"
)

type stubVerifier map[string]*entities.Caller

func (s stubVerifier) Verify(token string) (*entities.Caller, error) {
	if caller, ok := s[token]; ok {
		return caller, nil
	}
	return nil, errors.New("invalid token")
}

func TestAuthMiddleware(t *testing.T) {
	verifier := stubVerifier{"good": {UserID: "u1"}}

	var seen *entities.Caller
	handler := AuthMiddleware(verifier, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   *entities.Caller
	}{
		{"valid bearer", "Bearer good", &entities.Caller{UserID: "u1"}},
		{"case-insensitive scheme", "bearer good", &entities.Caller{UserID: "u1"}},
		{"invalid token stays anonymous", "Bearer bad", nil},
		{"other scheme", "Basic good", nil},
		{"no header", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/api/functions/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestAuthMiddleware_StreamQueryToken(t *testing.T) {
	verifier := stubVerifier{"good": {UserID: "u1"}}

	var seen *entities.Caller
	handler := AuthMiddleware(verifier, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFromContext(r.Context())
	}))

	t.Run("event stream accepts access_token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/stream/changes?access_token=good", nil)
		req.Header.Set("Accept", "text/event-stream")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, &entities.Caller{UserID: "u1"}, seen)
	})

	t.Run("other requests ignore access_token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/local/appointments?access_token=good", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Nil(t, seen)
	})
}

func TestRequireCallerAndAdmin(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	tests := []struct {
		name   string
		guard  func(http.HandlerFunc) http.HandlerFunc
		caller *entities.Caller
		want   int
	}{
		{"caller: anonymous", RequireCaller, nil, http.StatusUnauthorized},
		{"caller: empty id", RequireCaller, &entities.Caller{}, http.StatusUnauthorized},
		{"caller: patient", RequireCaller, &entities.Caller{UserID: "p1", UserType: entities.UserTypePatient}, http.StatusNoContent},
		{"admin: anonymous", RequireAdmin, nil, http.StatusUnauthorized},
		{"admin: doctor", RequireAdmin, &entities.Caller{UserID: "d1", UserType: entities.UserTypeDoctor}, http.StatusForbidden},
		{"admin: no role claim", RequireAdmin, &entities.Caller{UserID: "u1"}, http.StatusForbidden},
		{"admin: admin", RequireAdmin, &entities.Caller{UserID: "a1", UserType: entities.UserTypeAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/local/appointments", nil)
			if tt.caller != nil {
				req = req.WithContext(WithCaller(req.Context(), tt.caller))
			}
			rec := httptest.NewRecorder()
			tt.guard(ok)(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
