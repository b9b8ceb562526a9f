package httphandler_test

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
)

var (
	_ port.Catalog  = (*fakeShop)(nil)
	_ port.Identity = (*fakeShop)(nil)
	_ port.Basket   = (*fakeShop)(nil)
)

// fakeShop keeps the whole shop in memory. Passwords are stored as
// "hash:<password>".
type fakeShop struct {
	mu       sync.Mutex
	products []domain.Product
	users    []domain.User
	baskets  map[int64][]int64
}

func newFakeShop(ps ...domain.Product) *fakeShop {
	return &fakeShop{products: ps, baskets: make(map[int64][]int64)}
}

func (s *fakeShop) CreateProduct(
	_ context.Context, p domain.Product,
) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = int64(len(s.products) + 1)
	s.products = append(s.products, p)
	return p, nil
}

func (s *fakeShop) ListProducts(context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products), nil
}

func (s *fakeShop) ReadProduct(_ context.Context, id int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product(id)
}

func (s *fakeShop) product(id int64) (domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *fakeShop) SortProducts(
	ctx context.Context, key domain.SortKey,
) ([]domain.Product, error) {
	ps, _ := s.ListProducts(ctx)
	return service.SortBy(ps, key), nil
}

func (s *fakeShop) SearchProducts(
	ctx context.Context, query string,
) ([]domain.Product, error) {
	ps, _ := s.ListProducts(ctx)
	return service.Search(query, ps), nil
}

func (s *fakeShop) Register(
	_ context.Context, username, password string,
) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return domain.User{}, domain.ErrDuplicateUsername
		}
	}
	u := domain.User{
		ID:           int64(len(s.users) + 1),
		Username:     username,
		PasswordHash: "hash:" + password,
	}
	s.users = append(s.users, u)
	return u, nil
}

func (s *fakeShop) ReadUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *fakeShop) ReadUserByUsername(
	_ context.Context, username string,
) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *fakeShop) VerifyPassword(u domain.User, candidate string) bool {
	return u.PasswordHash == "hash:"+candidate
}

func (s *fakeShop) AddToAnonymousBasket(
	ctx context.Context, b *domain.AnonymousBasket, productID int64,
) error {
	if _, err := s.ReadProduct(ctx, productID); err != nil {
		return err
	}
	b.Add(strconv.FormatInt(productID, 10))
	return nil
}

func (s *fakeShop) RemoveFromAnonymousBasket(
	b *domain.AnonymousBasket, productID int64,
) {
	b.Remove(strconv.FormatInt(productID, 10))
}

func (s *fakeShop) ComputeAnonymousBasket(
	_ context.Context, b domain.AnonymousBasket,
) (domain.BasketSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ps []domain.Product
	for _, raw := range b {
		id, _ := strconv.ParseInt(raw, 10, 64)
		if p, err := s.product(id); err == nil {
			ps = append(ps, p)
		}
	}
	return domain.NewBasketSummary(ps), nil
}

func (s *fakeShop) AddToUserBasket(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.product(productID); err != nil {
		return err
	}
	if !slices.Contains(s.baskets[userID], productID) {
		s.baskets[userID] = append(s.baskets[userID], productID)
	}
	return nil
}

func (s *fakeShop) RemoveFromUserBasket(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.baskets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	s.baskets[userID] = slices.DeleteFunc(ids, func(id int64) bool {
		return id == productID
	})
	return nil
}

func (s *fakeShop) ComputeUserBasket(
	_ context.Context, userID int64,
) (domain.BasketSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ps []domain.Product
	for _, id := range s.baskets[userID] {
		if p, err := s.product(id); err == nil {
			ps = append(ps, p)
		}
	}
	return domain.NewBasketSummary(ps), nil
}
