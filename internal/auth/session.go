// Package auth validates sessions, evaluates role and permission policies,
// and throttles clients by fingerprint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the authenticated account attached to a request.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Session describes the validated session backing a request.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionResult is the outcome of validating a token. When Valid is false
// Reason explains why.
type SessionResult struct {
	Valid   bool
	User    *User
	Session *Session
	Reason  string
}

// SessionValidator validates bearer tokens against the auth provider.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (SessionResult, error)
}

// ExtractBearerToken reads the token from the Authorization header. The
// "Bearer " prefix is optional and matched case-insensitively.
func ExtractBearerToken(h http.Header) string {
	raw := strings.TrimSpace(h.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = raw[7:]
	}
	return strings.TrimSpace(raw)
}

// sessionClaims is the JWT payload issued by the auth provider.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
}

// JWTValidator validates HS256 session tokens.
type JWTValidator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTValidator constructs a JWTValidator. now may be nil.
func NewJWTValidator(secret, issuer string, now func() time.Time) (*JWTValidator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &JWTValidator{secret: []byte(secret), issuer: issuer, now: now}, nil
}

// ValidateSession parses and verifies token. Invalid or expired tokens are
// reported through the result, not as an error.
func (v *JWTValidator) ValidateSession(_ context.Context, token string) (SessionResult, error) {
	var claims sessionClaims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return SessionResult{Valid: false, Reason: jwtReason(err)}, nil
	}
	if claims.Subject == "" {
		return SessionResult{Valid: false, Reason: "session has no subject"}, nil
	}

	role := Role(claims.Role)
	if !role.Valid() {
		role = RoleParticipant
	}
	user := &User{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: role}
	session := &Session{ID: claims.SessionID, UserID: claims.Subject}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return SessionResult{Valid: true, User: user, Session: session}, nil
}

// IssueToken signs a session token for user. It is used by tooling and tests.
func (v *JWTValidator) IssueToken(user User, sessionID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		SessionID: sessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func jwtReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "session expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid token signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "invalid token issuer"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "token is missing required claims"
	default:
		return "invalid session"
	}
}

type identityKey struct{}

// Identity is what the auth middleware attaches to a request.
type Identity struct {
	User    *User
	Session *Session
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.User == nil {
		return Identity{}, false
	}
	return id, true
}

// UserFrom returns the authenticated user in ctx or nil.
func UserFrom(ctx context.Context) *User {
	if id, ok := IdentityFrom(ctx); ok {
		return id.User
	}
	return nil
}
