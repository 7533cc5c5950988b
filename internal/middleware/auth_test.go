package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkpress/internal/models"
	"inkpress/internal/service"
)

// stubResolver resolves one known token and fails everything else.
type stubResolver struct {
	token    string
	identity *models.Identity
	err      error
	calls    int
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*models.Identity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, &service.Error{Kind: service.KindUnauthenticated, Message: service.MsgInvalidToken}
	}
	return s.identity, nil
}

// identityHandler records the identity it saw.
func identityHandler() (http.Handler, **models.Identity, *bool) {
	var seen *models.Identity
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = IdentityFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &seen, &called
}

func messageOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body.Message
}

var ada = &models.Identity{ID: "65a1b2c3d4e5f60718293a4b", Name: "Ada", Email: "ada@x.com", Role: models.RoleMember}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		reject string
	}{
		{"missing", "", "", msgNoToken},
		{"bearer", "Bearer abc", "abc", ""},
		{"lower-case scheme", "bearer abc", "abc", ""},
		{"extra spaces", "Bearer   abc", "abc", ""},
		{"token only", "abc", "", msgTokenError},
		{"three parts", "Bearer abc def", "", msgTokenError},
		{"basic scheme", "Basic YWxhZGRpbjpvcGVu", "", msgTokenError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, reject := bearerToken(req)
			if token != tt.token || reject != tt.reject {
				t.Errorf("got (%q, %q), want (%q, %q)", token, reject, tt.token, tt.reject)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"no header", "", http.StatusUnauthorized, "No token provided"},
		{"malformed header", "good", http.StatusUnauthorized, "Token error"},
		{"bad token", "Bearer bad", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &stubResolver{token: "good", identity: ada}
			next, seen, called := identityHandler()
			handler := NewAuthenticator(resolver).Required(next)

			req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if *seen != ada {
					t.Errorf("identity: got %+v, want ada", *seen)
				}
				return
			}
			if *called {
				t.Error("next handler must not run")
			}
			if got := messageOf(t, rr); got != tt.wantMsg {
				t.Errorf("message: got %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestRequiredAccountGone(t *testing.T) {
	resolver := &stubResolver{err: &service.Error{Kind: service.KindUnauthenticated, Message: service.MsgUserNotFound}}
	next, _, _ := identityHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rr := httptest.NewRecorder()
	NewAuthenticator(resolver).Required(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized || messageOf(t, rr) != "User not found" {
		t.Errorf("got %d %s", rr.Code, rr.Body.String())
	}
}

func TestRequiredStoreFailure(t *testing.T) {
	captureLogs(t)
	resolver := &stubResolver{err: errors.New("connection refused")}
	next, _, called := identityHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	NewAuthenticator(resolver).Required(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	if *called {
		t.Error("next handler must not run")
	}
}

func TestOptional(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		err          error
		wantIdentity bool
		wantResolve  bool
	}{
		{"valid token", "Bearer good", nil, true, true},
		{"no header", "", nil, false, false},
		{"malformed header", "good", nil, false, false},
		{"bad token", "Bearer bad", nil, false, true},
		{"store failure", "Bearer good", errors.New("connection refused"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLogs(t)
			resolver := &stubResolver{token: "good", identity: ada, err: tt.err}
			next, seen, called := identityHandler()
			handler := NewAuthenticator(resolver).Optional(next)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !*called || rr.Code != http.StatusOK {
				t.Fatalf("optional auth must always proceed: called=%v status=%d", *called, rr.Code)
			}
			if got := *seen != nil; got != tt.wantIdentity {
				t.Errorf("identity attached: got %v, want %v", got, tt.wantIdentity)
			}
			if got := resolver.calls > 0; got != tt.wantResolve {
				t.Errorf("resolver called: got %v, want %v", got, tt.wantResolve)
			}
		})
	}
}

func TestIdentityFromCtx(t *testing.T) {
	if got := IdentityFromCtx(context.Background()); got != nil {
		t.Errorf("expected nil identity, got %+v", got)
	}

	ctx := WithIdentity(context.Background(), ada)
	if got := IdentityFromCtx(ctx); got != ada {
		t.Errorf("got %+v, want ada", got)
	}

	ctx = context.WithValue(context.Background(), IdentityKey, "not-an-identity")
	if got := IdentityFromCtx(ctx); got != nil {
		t.Errorf("expected nil for wrong type, got %+v", got)
	}
}
