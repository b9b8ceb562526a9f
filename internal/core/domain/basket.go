package domain

import "github.com/shopspring/decimal"

type Basket struct {
	ID       int64
	UserID   int64
	Products []Product
}

// An AnonymousBasket holds product identifiers of a guest session.
//
// Identifiers are kept in insertion order and never repeat.
type AnonymousBasket []string

// Add appends id unless it is already present.
func (b *AnonymousBasket) Add(id string) {
	if *b == nil {
		*b = AnonymousBasket{}
	}
	if b.Contains(id) {
		return
	}
	*b = append(*b, id)
}

// Remove drops every occurrence of id.
func (b *AnonymousBasket) Remove(id string) {
	if *b == nil {
		return
	}
	kept := make(AnonymousBasket, 0, len(*b))
	for _, v := range *b {
		if v != id {
			kept = append(kept, v)
		}
	}
	*b = kept
}

func (b AnonymousBasket) Contains(id string) bool {
	for _, v := range b {
		if v == id {
			return true
		}
	}
	return false
}

// A BasketSummary is the resolved content of a basket.
//
// Total is the sum of the current product prices rounded to 2 decimal places.
type BasketSummary struct {
	Products []Product
	Total    decimal.Decimal
}

func NewBasketSummary(ps []Product) BasketSummary {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(decimal.NewFromFloat(p.Price))
	}
	return BasketSummary{Products: ps, Total: total.Round(2)}
}
