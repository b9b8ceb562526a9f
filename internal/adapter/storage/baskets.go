package storage

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.BasketsStorage = (*BasketsRepository)(nil)

type BasketsRepository struct {
	sqldb sqldb
}

func NewBasketsRepository(sqldb sqldb) BasketsRepository {
	return BasketsRepository{sqldb}
}

func (r BasketsRepository) ReadBasket(
	ctx context.Context, userID int64,
) (domain.Basket, error) {
	const op = "BasketsRepository.ReadBasket"

	query := `SELECT id FROM baskets WHERE user_id = $1;`

	b := domain.Basket{UserID: userID}
	err := r.sqldb.QueryRowContext(ctx, query, userID).Scan(&b.ID)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%s: %w", op, notFound(err))
	}

	b.Products, err = r.readProducts(ctx, b.ID)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// ReadOrCreateBasket returns the user's basket, creating an empty one first
// when it does not exist.
func (r BasketsRepository) ReadOrCreateBasket(
	ctx context.Context, userID int64,
) (domain.Basket, error) {
	const op = "BasketsRepository.ReadOrCreateBasket"

	query := `
		INSERT INTO baskets (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id;`

	b := domain.Basket{UserID: userID}
	err := r.sqldb.QueryRowContext(ctx, query, userID).Scan(&b.ID)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%s: %w", op, err)
	}

	b.Products, err = r.readProducts(ctx, b.ID)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func (r BasketsRepository) AddBasketProduct(
	ctx context.Context, basketID, productID int64,
) error {
	const op = "BasketsRepository.AddBasketProduct"

	query := `
		INSERT INTO basket_products (basket_id, product_id) VALUES ($1, $2)
		ON CONFLICT (basket_id, product_id) DO NOTHING;`

	if _, err := r.sqldb.ExecContext(ctx, query, basketID, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r BasketsRepository) RemoveBasketProduct(
	ctx context.Context, basketID, productID int64,
) error {
	const op = "BasketsRepository.RemoveBasketProduct"

	query := `
		DELETE FROM basket_products
		WHERE basket_id = $1 AND product_id = $2;`

	if _, err := r.sqldb.ExecContext(ctx, query, basketID, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r BasketsRepository) readProducts(
	ctx context.Context, basketID int64,
) ([]domain.Product, error) {
	const op = "BasketsRepository.readProducts"

	query := `
		SELECT p.id, p.name, p.price, p.description, p.carbon_footprint, p.image
		FROM basket_products bp
		JOIN products p ON p.id = bp.product_id
		WHERE bp.basket_id = $1
		ORDER BY p.id;`

	rows, err := r.sqldb.QueryContext(ctx, query, basketID)
	if err != nil {
		return nil, err
	}
	defer closeRows(op, rows)

	ps := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}
