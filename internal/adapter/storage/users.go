package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.UsersStorage = (*UsersRepository)(nil)

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

func (r UsersRepository) CreateUser(
	ctx context.Context, u domain.User,
) (domain.User, error) {
	const op = "UsersRepository.CreateUser"

	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id;`

	err := r.sqldb.QueryRowContext(ctx, query, u.Username, u.PasswordHash).
		Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrDuplicateUsername)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r UsersRepository) ReadUser(
	ctx context.Context, id int64,
) (domain.User, error) {
	const op = "UsersRepository.ReadUser"

	query := `SELECT id, username, password_hash FROM users WHERE id = $1;`

	var u domain.User
	err := r.sqldb.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

func (r UsersRepository) ReadUserByUsername(
	ctx context.Context, username string,
) (domain.User, error) {
	const op = "UsersRepository.ReadUserByUsername"

	query := `
		SELECT id, username, password_hash
		FROM users WHERE username = $1;`

	var u domain.User
	err := r.sqldb.QueryRowContext(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}
