package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const productColumns = `id, name, price, description, carbon_footprint, image`

type rowScanner interface {
	Scan(dest ...any) error
}

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.CreateProduct"

	query := `
		INSERT INTO products (name, price, description, carbon_footprint, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;`

	err := r.sqldb.QueryRowContext(ctx, query,
		p.Name, p.Price, p.Description, p.CarbonFootprint, p.Image,
	).Scan(&p.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r ProductsRepository) ListProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ListProducts"

	query := `SELECT ` + productColumns + ` FROM products ORDER BY id;`

	ps, err := r.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return p, nil
}

func (r ProductsRepository) ReadProductsByIDs(
	ctx context.Context, ids []int64,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ReadProductsByIDs"

	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + `
		FROM products WHERE id = ANY($1) ORDER BY id;`

	ps, err := r.queryProducts(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) ReadProductByImage(
	ctx context.Context, image string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProductByImage"

	// Rows written before empty images were stored as '' hold NULL.
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE image = $1 OR ($1 = '' AND image IS NULL)
		ORDER BY id LIMIT 1;`

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, image))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return p, nil
}

func (r ProductsRepository) queryProducts(
	ctx context.Context, query string, args ...any,
) (ps []domain.Product, err error) {
	const op = "ProductsRepository.queryProducts"

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(op, rows)

	ps = make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p     domain.Product
		image sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Description, &p.CarbonFootprint, &image,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Image = image.String
	return p, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func closeRows(op string, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "op", op, "err", err)
	}
}
