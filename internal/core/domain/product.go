package domain

type Product struct {
	ID              int64
	Name            string
	Price           float64
	Description     string
	CarbonFootprint float64
	Image           string
}

// SortKey names the catalog ordering requested by the client.
type SortKey string

const (
	// SortPriceDesc orders by price ascending (inverted label, kept for link compatibility).
	SortPriceDesc SortKey = "price_desc"
	// SortPriceAsc orders by price descending, see [SortPriceDesc].
	SortPriceAsc        SortKey = "price_asc"
	SortName            SortKey = "name"
	SortCarbonFootprint SortKey = "carbon_footprint"
)
