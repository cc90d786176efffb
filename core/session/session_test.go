package session

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims Claims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return ss
}

func TestNew(t *testing.T) {
	now := time.Now()
	admin := signedToken(t, Claims{
		StandardClaims: jwt.StandardClaims{Subject: "u1", ExpiresAt: now.Add(time.Hour).Unix()},
		Email:          "admin@test.cd",
		Role:           "ADMIN",
	})
	student := signedToken(t, Claims{
		StandardClaims: jwt.StandardClaims{Subject: "u2", ExpiresAt: now.Add(-time.Hour).Unix()},
		Roles:          []string{RoleStudent},
	})

	tests := []struct {
		name        string
		token       string
		wantToken   bool
		wantSubject string
		wantAdmin   bool
		wantExpired bool
	}{
		{name: "anonymous"},
		{name: "blank", token: "   "},
		{name: "malformed", token: "lol.lmao", wantToken: true},
		{name: "admin", token: admin, wantToken: true, wantSubject: "u1", wantAdmin: true},
		{name: "expired student", token: student, wantToken: true, wantSubject: "u2", wantExpired: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := New(tt.token)
			assert.Equal(t, tt.wantToken, sess.HasToken())
			assert.Equal(t, tt.wantSubject, sess.Subject())
			assert.Equal(t, tt.wantAdmin, sess.IsAdmin())
			assert.Equal(t, tt.wantExpired, sess.Expired(now))
		})
	}
}

func TestSession_HasRole(t *testing.T) {
	sess := New(signedToken(t, Claims{Roles: []string{"student", "Admin"}}))
	assert.True(t, sess.HasRole(RoleStudent))
	assert.True(t, sess.IsAdmin())
	assert.False(t, Anonymous().HasRole(RoleStudent))
}
