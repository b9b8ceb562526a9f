package port

import (
	"context"
	"io"

	"github.com/niksmo/storefront/internal/core/domain"
)

type Catalog interface {
	CreateProduct(context.Context, domain.Product) (domain.Product, error)
	ListProducts(context.Context) ([]domain.Product, error)
	ReadProduct(ctx context.Context, id int64) (domain.Product, error)
	SortProducts(context.Context, domain.SortKey) ([]domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
}

type Identity interface {
	Register(ctx context.Context, username, password string) (domain.User, error)
	ReadUser(ctx context.Context, id int64) (domain.User, error)
	ReadUserByUsername(ctx context.Context, username string) (domain.User, error)
	VerifyPassword(u domain.User, candidate string) bool
}

type Basket interface {
	AddToAnonymousBasket(ctx context.Context, b *domain.AnonymousBasket, productID int64) error
	RemoveFromAnonymousBasket(b *domain.AnonymousBasket, productID int64)
	ComputeAnonymousBasket(context.Context, domain.AnonymousBasket) (domain.BasketSummary, error)

	AddToUserBasket(ctx context.Context, userID, productID int64) error
	RemoveFromUserBasket(ctx context.Context, userID, productID int64) error
	ComputeUserBasket(ctx context.Context, userID int64) (domain.BasketSummary, error)
}

// A ProductsIngester creates products that are not known yet.
//
// Products are matched by image filename.
type ProductsIngester interface {
	IngestProducts(context.Context, []domain.Product) (int, error)
}

type ProductsStorage interface {
	CreateProduct(context.Context, domain.Product) (domain.Product, error)
	ListProducts(context.Context) ([]domain.Product, error)
	ReadProduct(ctx context.Context, id int64) (domain.Product, error)
	ReadProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	ReadProductByImage(ctx context.Context, image string) (domain.Product, error)
}

type UsersStorage interface {
	CreateUser(context.Context, domain.User) (domain.User, error)
	ReadUser(ctx context.Context, id int64) (domain.User, error)
	ReadUserByUsername(ctx context.Context, username string) (domain.User, error)
}

type BasketsStorage interface {
	ReadBasket(ctx context.Context, userID int64) (domain.Basket, error)
	ReadOrCreateBasket(ctx context.Context, userID int64) (domain.Basket, error)
	AddBasketProduct(ctx context.Context, basketID, productID int64) error
	RemoveBasketProduct(ctx context.Context, basketID, productID int64) error
}

type ProductEventsProducer interface {
	ProduceProductsCreated(context.Context, []domain.Product) error
}

type ImageStorage interface {
	SaveImage(ctx context.Context, name string, r io.Reader, contentType string) error
	ImageURL(name string) string
}
