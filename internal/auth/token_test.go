package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager() *Manager {
	return NewManager("test-secret", "secure-chat", time.Hour)
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if id != 42 {
		t.Errorf("UserID = %d, want 42", id)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
}

func TestValidateRejectsMalformedToken(t *testing.T) {
	m := newTestManager()

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", "secure-chat", -time.Minute)

	token, err := m.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate of expired token = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", "secure-chat", time.Hour)
	validator := NewManager("secret-b", "secure-chat", time.Hour)

	token, err := issuer.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := validator.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate with wrong secret = %v, want ErrInvalidToken", err)
	}
}

// signRaw produces a token signed with the manager's secret but with an
// arbitrary claim set, to exercise the missing-claims paths.
func signRaw(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestValidateRejectsMissingClaims(t *testing.T) {
	m := newTestManager()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no subject", jwt.MapClaims{"username": "alice", "exp": exp}},
		{"non-numeric subject", jwt.MapClaims{"sub": "not-a-number", "username": "alice", "exp": exp}},
		{"no username", jwt.MapClaims{"sub": "42", "exp": exp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(signRaw(t, tt.claims))
			if !errors.Is(err, ErrMissingClaims) {
				t.Errorf("Validate = %v, want ErrMissingClaims", err)
			}
		})
	}
}

func TestValidateDistinguishesInvalidFromMissingClaims(t *testing.T) {
	m := newTestManager()
	exp := time.Now().Add(time.Hour).Unix()

	// Valid signature, missing subject: MissingClaims, not Invalid.
	tok := signRaw(t, jwt.MapClaims{"username": "alice", "exp": exp})
	if _, err := m.Validate(tok); errors.Is(err, ErrInvalidToken) {
		t.Error("missing claims on a well-signed token must not report ErrInvalidToken")
	}
}
