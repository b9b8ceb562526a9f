package service_test

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// memStorage keeps products, users and baskets in memory.
type memStorage struct {
	mu       sync.Mutex
	products []domain.Product
	users    []domain.User
	baskets  map[int64]*domain.Basket
	nextID   int64
}

func newMemStorage(ps ...domain.Product) *memStorage {
	s := &memStorage{baskets: make(map[int64]*domain.Basket)}
	for _, p := range ps {
		_, _ = s.CreateProduct(context.Background(), p)
	}
	return s
}

func (s *memStorage) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStorage) CreateProduct(
	_ context.Context, p domain.Product,
) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.products = append(s.products, p)
	return p, nil
}

func (s *memStorage) ListProducts(context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products), nil
}

func (s *memStorage) ReadProduct(
	_ context.Context, id int64,
) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *memStorage) ReadProductsByIDs(
	_ context.Context, ids []int64,
) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ps []domain.Product
	for _, p := range s.products {
		if slices.Contains(ids, p.ID) {
			ps = append(ps, p)
		}
	}
	return ps, nil
}

func (s *memStorage) ReadProductByImage(
	_ context.Context, image string,
) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Image == image {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *memStorage) CreateUser(
	_ context.Context, u domain.User,
) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Username == u.Username {
			return domain.User{}, domain.ErrDuplicateUsername
		}
	}
	u.ID = s.id()
	s.users = append(s.users, u)
	return u, nil
}

func (s *memStorage) ReadUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *memStorage) ReadUserByUsername(
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

func (s *memStorage) ReadBasket(
	_ context.Context, userID int64,
) (domain.Basket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baskets[userID]
	if !ok {
		return domain.Basket{}, domain.ErrNotFound
	}
	return s.resolve(*b), nil
}

func (s *memStorage) ReadOrCreateBasket(
	_ context.Context, userID int64,
) (domain.Basket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baskets[userID]
	if !ok {
		b = &domain.Basket{ID: s.id(), UserID: userID}
		s.baskets[userID] = b
	}
	return s.resolve(*b), nil
}

func (s *memStorage) AddBasketProduct(
	_ context.Context, basketID, productID int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.baskets {
		if b.ID == basketID {
			b.Products = append(b.Products, domain.Product{ID: productID})
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStorage) RemoveBasketProduct(
	_ context.Context, basketID, productID int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.baskets {
		if b.ID == basketID {
			b.Products = slices.DeleteFunc(b.Products, func(p domain.Product) bool {
				return p.ID == productID
			})
			return nil
		}
	}
	return domain.ErrNotFound
}

// resolve replaces product references with current catalog records.
func (s *memStorage) resolve(b domain.Basket) domain.Basket {
	var ps []domain.Product
	for _, ref := range b.Products {
		for _, p := range s.products {
			if p.ID == ref.ID {
				ps = append(ps, p)
			}
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	b.Products = ps
	return b
}

// basketRows counts join rows of the user's basket.
func (s *memStorage) basketRows(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baskets[userID]
	if !ok {
		return 0
	}
	return len(b.Products)
}

type MockEventsProducer struct {
	mock.Mock
}

func (m *MockEventsProducer) ProduceProductsCreated(
	ctx context.Context, ps []domain.Product,
) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}
