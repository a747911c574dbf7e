// Package auth turns bearer tokens into notification recipients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hostelhub/roomcast/internal/hostel"
	"github.com/hostelhub/roomcast/internal/notify"
	"github.com/hostelhub/roomcast/models"
)

var (
	ErrMissingToken   = errors.New("auth: missing token")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrUnknownStudent = errors.New("auth: unknown student")
	ErrNoSecret       = errors.New("auth: signing secret not configured")
)

// Resolver maps a bearer token to the recipient it identifies.
type Resolver interface {
	Resolve(ctx context.Context, token string) (notify.RecipientID, error)
}

// StudentLookup finds students by username.
type StudentLookup interface {
	FindByUsername(ctx context.Context, username string) (models.Student, error)
}

// Claims are the token claims roomcast reads. The username travels in the
// subject, or in a "username" claim for issuers that keep sub for ids.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) username() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Username
}

// JWTResolver verifies HS256 tokens and resolves their username to a student.
type JWTResolver struct {
	secret   []byte
	students StudentLookup
	parser   *jwt.Parser
}

// NewJWTResolver returns a resolver verifying tokens with secret.
func NewJWTResolver(secret string, students StudentLookup) *JWTResolver {
	return &JWTResolver{
		secret:   []byte(secret),
		students: students,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

// Username validates token and returns the username it carries. The student
// is not looked up.
func (r *JWTResolver) Username(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	if len(r.secret) == 0 {
		return "", ErrNoSecret
	}
	var claims Claims
	_, err := r.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	username := claims.username()
	if username == "" {
		return "", fmt.Errorf("%w: no username claim", ErrInvalidToken)
	}
	return username, nil
}

// Resolve validates token and returns the student id it names.
func (r *JWTResolver) Resolve(ctx context.Context, token string) (notify.RecipientID, error) {
	username, err := r.Username(token)
	if err != nil {
		return 0, err
	}
	st, err := r.students.FindByUsername(ctx, username)
	if errors.Is(err, hostel.ErrStudentNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStudent, username)
	}
	if err != nil {
		return 0, err
	}
	return notify.RecipientID(st.ID), nil
}

// Issuer mints tokens accepted by JWTResolver.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for username valid for ttl.
func (i *Issuer) Issue(username string, ttl time.Duration) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
