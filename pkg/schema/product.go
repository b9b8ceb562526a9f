package schema

import "github.com/hamba/avro/v2"

// ProductSchemaTextV1 describes a catalog product as it travels through the
// broker. Image is the file name of the product picture.
const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.catalog",
	"name": "product",
	"fields": [
		{"name": "product_id", "type": "long", "default": 0},
		{"name": "name", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "description", "type": "string", "default": ""},
		{"name": "carbon_footprint", "type": "double", "default": 0},
		{"name": "image", "type": "string", "default": ""}
	]
}`

type ProductV1 struct {
	ProductID       int64   `avro:"product_id"`
	Name            string  `avro:"name"`
	Price           float64 `avro:"price"`
	Description     string  `avro:"description"`
	CarbonFootprint float64 `avro:"carbon_footprint"`
	Image           string  `avro:"image"`
}

// ProductV1Avro panics when the schema text is invalid.
func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}
