package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var issuedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestIssuer(secret string) *TokenIssuer {
	return NewTokenIssuer(secret, DefaultTokenTTL).WithClock(fixedClock(issuedAt))
}

func TestIssueRoundTrip(t *testing.T) {
	issuer := newTestIssuer("test-secret")

	token, err := issuer.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if token.Value == "" {
		t.Fatal("Issue() returned empty token")
	}
	if !token.ExpiresAt.Equal(issuedAt.Add(7 * 24 * time.Hour)) {
		t.Errorf("Issue() ExpiresAt = %v, want %v", token.ExpiresAt, issuedAt.Add(7*24*time.Hour))
	}

	claims, err := issuer.Verify(token.Value)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("Verify() UserID = %q, want %q", claims.UserID, "user-42")
	}
	if !claims.ExpiresAt.Time.Equal(token.ExpiresAt) {
		t.Errorf("Verify() ExpiresAt = %v, want %v", claims.ExpiresAt.Time, token.ExpiresAt)
	}
}

func TestVerifyWithinValidityWindow(t *testing.T) {
	token, err := newTestIssuer("test-secret").Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	later := newTestIssuer("test-secret").WithClock(fixedClock(issuedAt.Add(7*24*time.Hour - time.Second)))
	if _, err := later.Verify(token.Value); err != nil {
		t.Errorf("Verify() one second before expiry: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	token, err := newTestIssuer("test-secret").Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	for _, at := range []time.Time{
		issuedAt.Add(7 * 24 * time.Hour),
		issuedAt.Add(7*24*time.Hour + time.Second),
	} {
		verifier := newTestIssuer("test-secret").WithClock(fixedClock(at))
		if _, err := verifier.Verify(token.Value); err != ErrInvalidToken {
			t.Errorf("Verify() at %v error = %v, want ErrInvalidToken", at, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := newTestIssuer("correct-secret").Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	if _, err := newTestIssuer("wrong-secret").Verify(token.Value); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	issuer := newTestIssuer("test-secret")
	for _, bad := range []string{"", "not-a-valid-token", "a.b.c", "logged-in"} {
		if _, err := issuer.Verify(bad); err != ErrInvalidToken {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func signWith(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}
	return s
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
		UserID: "user-42",
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"HS384 with same secret", signWith(t, jwt.SigningMethodHS384, []byte("test-secret"), validClaims())},
		{"HS512 with same secret", signWith(t, jwt.SigningMethodHS512, []byte("test-secret"), validClaims())},
		{"unsigned", signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.token); err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyClaimChecks(t *testing.T) {
	issuer := newTestIssuer("test-secret")

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	noUser := validClaims()
	noUser.UserID = ""

	for name, claims := range map[string]Claims{
		"wrong issuer":   wrongIssuer,
		"wrong audience": wrongAudience,
		"missing exp":    noExpiry,
		"missing user":   noUser,
	} {
		t.Run(name, func(t *testing.T) {
			token := signWith(t, jwt.SigningMethodHS256, []byte("test-secret"), claims)
			if _, err := issuer.Verify(token); err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestMissingSecret(t *testing.T) {
	issuer := newTestIssuer("")

	if _, err := issuer.Issue("user-42"); err != ErrMissingSecret {
		t.Errorf("Issue() error = %v, want ErrMissingSecret", err)
	}
	if _, err := issuer.Verify("anything"); err != ErrMissingSecret {
		t.Errorf("Verify() error = %v, want ErrMissingSecret", err)
	}
}

func TestNewTokenIssuerDefaultTTL(t *testing.T) {
	if got := NewTokenIssuer("s", 0).TTL(); got != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTokenTTL)
	}
}
