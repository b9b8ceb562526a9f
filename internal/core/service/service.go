package service

import (
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

var _ port.Catalog = (*Service)(nil)
var _ port.Identity = (*Service)(nil)
var _ port.Basket = (*Service)(nil)
var _ port.ProductsIngester = (*Service)(nil)

type Opt func(*Service) error

// EventsProducerOpt enables publishing of product-created events.
func EventsProducerOpt(p port.ProductEventsProducer) Opt {
	return func(s *Service) error {
		if p == nil {
			return errors.New("events producer is nil")
		}
		s.eventsProducer = p
		return nil
	}
}

func PasswordCostOpt(cost int) Opt {
	return func(s *Service) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("password cost %d out of range", cost)
		}
		s.passwordCost = cost
		return nil
	}
}

type Service struct {
	productsStorage port.ProductsStorage
	usersStorage    port.UsersStorage
	basketsStorage  port.BasketsStorage
	eventsProducer  port.ProductEventsProducer
	passwordCost    int
}

func New(
	productsStorage port.ProductsStorage,
	usersStorage port.UsersStorage,
	basketsStorage port.BasketsStorage,
	opts ...Opt,
) (Service, error) {
	const op = "service.New"

	s := Service{
		productsStorage: productsStorage,
		usersStorage:    usersStorage,
		basketsStorage:  basketsStorage,
		passwordCost:    bcrypt.DefaultCost,
	}

	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Service{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return s, nil
}
