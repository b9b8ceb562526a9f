package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (s Service) AddToAnonymousBasket(
	ctx context.Context, b *domain.AnonymousBasket, productID int64,
) error {
	const op = "Service.AddToAnonymousBasket"

	if _, err := s.ReadProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.Add(strconv.FormatInt(productID, 10))
	return nil
}

func (Service) RemoveFromAnonymousBasket(
	b *domain.AnonymousBasket, productID int64,
) {
	b.Remove(strconv.FormatInt(productID, 10))
}

func (s Service) ComputeAnonymousBasket(
	ctx context.Context, b domain.AnonymousBasket,
) (domain.BasketSummary, error) {
	const op = "Service.ComputeAnonymousBasket"

	if err := ctx.Err(); err != nil {
		return domain.BasketSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int64, 0, len(b))
	for _, v := range b {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return domain.NewBasketSummary(nil), nil
	}

	ps, err := s.productsStorage.ReadProductsByIDs(ctx, ids)
	if err != nil {
		return domain.BasketSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.NewBasketSummary(ps), nil
}

func (s Service) AddToUserBasket(
	ctx context.Context, userID, productID int64,
) error {
	const op = "Service.AddToUserBasket"

	p, err := s.ReadProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.basketsStorage.ReadOrCreateBasket(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if containsProduct(b.Products, p.ID) {
		return nil
	}

	err = s.basketsStorage.AddBasketProduct(ctx, b.ID, p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) RemoveFromUserBasket(
	ctx context.Context, userID, productID int64,
) error {
	const op = "Service.RemoveFromUserBasket"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.basketsStorage.ReadBasket(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.basketsStorage.RemoveBasketProduct(ctx, b.ID, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) ComputeUserBasket(
	ctx context.Context, userID int64,
) (domain.BasketSummary, error) {
	const op = "Service.ComputeUserBasket"

	if err := ctx.Err(); err != nil {
		return domain.BasketSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.basketsStorage.ReadBasket(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewBasketSummary(nil), nil
		}
		return domain.BasketSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.NewBasketSummary(b.Products), nil
}

func containsProduct(ps []domain.Product, id int64) bool {
	for _, p := range ps {
		if p.ID == id {
			return true
		}
	}
	return false
}
