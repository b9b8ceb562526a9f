// Package session keeps per-visitor state between requests: the logged in
// user and the anonymous basket.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID     string
	UserID int64
	Basket domain.AnonymousBasket
}

// New returns an empty session with a random id.
func New() Session {
	return Session{ID: uuid.NewString()}
}

func (s Session) Authenticated() bool {
	return s.UserID != 0
}

type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}
