package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (s Service) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.productsStorage.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publishCreated(ctx, created)
	return created, nil
}

func (s Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.productsStorage.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s Service) ReadProduct(ctx context.Context, id int64) (domain.Product, error) {
	const op = "Service.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.productsStorage.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s Service) SortProducts(
	ctx context.Context, key domain.SortKey,
) ([]domain.Product, error) {
	const op = "Service.SortProducts"

	ps, err := s.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return SortBy(ps, key), nil
}

func (s Service) SearchProducts(
	ctx context.Context, query string,
) ([]domain.Product, error) {
	const op = "Service.SearchProducts"

	ps, err := s.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return Search(query, ps), nil
}

func (s Service) publishCreated(ctx context.Context, ps ...domain.Product) {
	const op = "Service.publishCreated"

	if s.eventsProducer == nil || len(ps) == 0 {
		return
	}

	if err := s.eventsProducer.ProduceProductsCreated(ctx, ps); err != nil {
		slog.Warn("failed to publish product events",
			"op", op, "nProducts", len(ps), "err", err)
	}
}
