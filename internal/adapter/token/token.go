// Package token issues and checks the signed remember-me tokens that keep a
// user logged in after the session expires.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "storefront"

var ErrInvalidToken = errors.New("invalid token")

type Remember struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Opt func(*Remember)

// NowOpt replaces the clock used to stamp and check tokens.
func NowOpt(now func() time.Time) Opt {
	return func(r *Remember) { r.now = now }
}

func NewRemember(secret string, ttl time.Duration, opts ...Opt) (Remember, error) {
	if secret == "" {
		return Remember{}, errors.New("NewRemember: empty secret")
	}
	if ttl <= 0 {
		return Remember{}, fmt.Errorf("NewRemember: invalid ttl %s", ttl)
	}
	r := Remember{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(&r)
	}
	return r, nil
}

// Issue signs a token for the user and reports when it expires.
func (r Remember) Issue(userID int64) (string, time.Time, error) {
	const op = "Remember.Issue"

	now := r.now()
	expires := now.Add(r.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(r.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, expires, nil
}

// Parse returns the user id carried by a valid token.
func (r Remember) Parse(signed string) (int64, error) {
	const op = "Remember.Parse"

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(signed, &claims,
		func(t *jwt.Token) (any, error) {
			return r.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%s: %w: bad subject", op, ErrInvalidToken)
	}
	return userID, nil
}
