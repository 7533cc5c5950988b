package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkpress/internal/models"
)

func testUser() *models.User {
	return &models.User{ID: "65a1b2c3d4e5f60718293a4b", Name: "Ada", Email: "ada@x.com", Role: models.RoleMember}
}

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("test-secret", 0)

	token, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token does not look like a JWT: %q", token)
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "65a1b2c3d4e5f60718293a4b" {
		t.Errorf("UserID: got %q", claims.UserID)
	}
	if claims.Name != "Ada" || claims.Email != "ada@x.com" {
		t.Errorf("claims: got %+v", claims)
	}
}

// TestIssueExpiry verifies tokens expire seven days after issuance.
func TestIssueExpiry(t *testing.T) {
	iss := NewIssuer("test-secret", 0)
	issuedAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return issuedAt }

	token, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(issuedAt); got != 7*24*time.Hour {
		t.Errorf("expiry: got %v after issuance, want 168h", got)
	}

	// Just before expiry the token is still valid.
	iss.now = func() time.Time { return issuedAt.Add(7*24*time.Hour - time.Minute) }
	if _, err := iss.Verify(token); err != nil {
		t.Errorf("Verify before expiry: %v", err)
	}

	// After expiry it is rejected.
	iss.now = func() time.Time { return issuedAt.Add(7*24*time.Hour + time.Minute) }
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify after expiry: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	good, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewIssuer("other-secret", time.Hour).Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "65a1b2c3d4e5f60718293a4b",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "65a1b2c3d4e5f60718293a4b",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign no expiry: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: other},
		{name: "tampered", token: good[:len(good)-2] + "xx"},
		{name: "alg none", token: none},
		{name: "missing expiry", token: noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%s): got %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}
