package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
)

func (s Service) Register(
	ctx context.Context, username, password string,
) (domain.User, error) {
	const op = "Service.Register"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	u, err := s.usersStorage.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s Service) ReadUser(ctx context.Context, id int64) (domain.User, error) {
	const op = "Service.ReadUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.usersStorage.ReadUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s Service) ReadUserByUsername(
	ctx context.Context, username string,
) (domain.User, error) {
	const op = "Service.ReadUserByUsername"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.usersStorage.ReadUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (Service) VerifyPassword(u domain.User, candidate string) bool {
	err := bcrypt.CompareHashAndPassword(
		[]byte(u.PasswordHash), []byte(candidate),
	)
	return err == nil
}
