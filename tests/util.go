package testutil

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/examprep/portal/core/session"
)

const tokenSecret = "backend-secret"

// Token signs a backend-like token for subject. The portal never verifies the signature.
func Token(t *testing.T, subject string, roles ...string) string {
	return signToken(t, session.Claims{
		StandardClaims: jwt.StandardClaims{Subject: subject, ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Roles:          roles,
	})
}

// ExpiredToken signs a token that expired an hour ago.
func ExpiredToken(t *testing.T, subject string, roles ...string) string {
	return signToken(t, session.Claims{
		StandardClaims: jwt.StandardClaims{Subject: subject, ExpiresAt: time.Now().Add(-time.Hour).Unix()},
		Roles:          roles,
	})
}

func signToken(t *testing.T, claims session.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenSecret))
	if err != nil {
		t.Fatalf("signToken() failed: %v", err)
	}
	return token
}
