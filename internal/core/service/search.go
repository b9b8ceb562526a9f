package service

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/niksmo/storefront/internal/core/domain"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {},
}

type tokenSet map[string]struct{}

// Tokenize lower-cases s, drops every rune that is neither a word rune nor
// whitespace, trims it and splits it on single spaces.
//
// Consecutive spaces produce empty tokens.
func Tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Split(strings.TrimSpace(b.String()), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func queryTokens(query string) tokenSet {
	set := make(tokenSet)
	for _, t := range Tokenize(query) {
		if _, ok := stopWords[t]; ok {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

func nameTokens(name string) tokenSet {
	set := make(tokenSet)
	for _, t := range Tokenize(name) {
		set[t] = struct{}{}
	}
	return set
}

func (s tokenSet) intersects(other tokenSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for t := range small {
		if _, ok := large[t]; ok {
			return true
		}
	}
	return false
}

// Search returns the products whose name shares at least one token with query.
//
// Stop-words are removed from the query only. The result keeps catalog order.
func Search(query string, catalog []domain.Product) []domain.Product {
	qt := queryTokens(query)
	if len(qt) == 0 {
		return []domain.Product{}
	}

	found := make([]domain.Product, 0)
	for _, p := range catalog {
		if qt.intersects(nameTokens(p.Name)) {
			found = append(found, p)
		}
	}
	return found
}

// SortBy returns a stably sorted copy of catalog.
//
// An unknown key returns the catalog order unchanged.
func SortBy(catalog []domain.Product, key domain.SortKey) []domain.Product {
	ps := slices.Clone(catalog)

	var less func(i, j int) bool
	switch key {
	case domain.SortPriceDesc:
		less = func(i, j int) bool { return ps[i].Price < ps[j].Price }
	case domain.SortPriceAsc:
		less = func(i, j int) bool { return ps[i].Price > ps[j].Price }
	case domain.SortName:
		less = func(i, j int) bool { return ps[i].Name < ps[j].Name }
	case domain.SortCarbonFootprint:
		less = func(i, j int) bool {
			return ps[i].CarbonFootprint < ps[j].CarbonFootprint
		}
	default:
		return ps
	}

	sort.SliceStable(ps, less)
	return ps
}
