package session

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"

	"github.com/examprep/portal/core"
)

// Roles, as issued by the backend
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Claims are the parts of the backend token the portal cares about.
type Claims struct {
	jwt.StandardClaims
	Email string   `json:"email,omitempty"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Session wraps the token issued by the backend.
// Claims are decoded without verifying the signature: they only drive what the portal shows,
// the backend verifies the token on every forwarded call.
type Session struct {
	Token  string
	claims *Claims
}

// New decodes token. A malformed token still yields a Session so it can be forwarded
// (and rejected) by the backend.
func New(token string) Session {
	token = strings.TrimSpace(token)
	sess := Session{Token: token}
	if token == "" {
		return sess
	}
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err == nil {
		sess.claims = claims
	}
	return sess
}

// Anonymous is a visitor without a token.
func Anonymous() Session { return Session{} }

// HasToken reports whether the visitor sent a token at all; it says nothing about its validity.
func (s Session) HasToken() bool { return s.Token != "" }

func (s Session) Subject() string {
	if s.claims == nil {
		return ""
	}
	return s.claims.Subject
}

func (s Session) Email() string {
	if s.claims == nil {
		return ""
	}
	return s.claims.Email
}

func (s Session) HasRole(role string) bool {
	if s.claims == nil {
		return false
	}
	if strings.EqualFold(s.claims.Role, role) {
		return true
	}
	for _, r := range s.claims.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (s Session) IsAdmin() bool { return s.HasRole(RoleAdmin) }

// Expired reports whether the token carries an expiry in the past.
// Tokens without readable claims are never considered expired here.
func (s Session) Expired(now time.Time) bool {
	if s.claims == nil || s.claims.ExpiresAt == 0 {
		return false
	}
	return now.Unix() > s.claims.ExpiresAt
}

// Profile is the student profile returned by the backend session check.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type (
	// Authenticator is the backend's authentication surface.
	Authenticator interface {
		Login(ctx context.Context, req LoginRequest) (token string, profile Profile, err error)
		Profile(ctx context.Context, token string) (Profile, error)
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
