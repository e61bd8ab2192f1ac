package types

import "time"

const DefaultProductImage = "https://via.placeholder.com/300"

// ProductCategories lists the categories a product may belong to.
var ProductCategories = []string{"electronics", "jewelery", "men's clothing", "women's clothing"}

type Rating struct {
	Rate  float64 `json:"rate" bson:"rate"`
	Count int     `json:"count" bson:"count"`
}

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Rating      Rating    `json:"rating"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductParams is a full product write (create or replace).
type ProductParams struct {
	Title       string
	Price       float64
	Description string
	Category    string
	Image       string
	Rating      Rating
}

// ProductPatch holds the optional fields of a partial update.
type ProductPatch struct {
	Title       *string
	Price       *float64
	Description *string
	Category    *string
	Image       *string
	Rating      *Rating
}

// SortOrder orders listings by creation time.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Category string
	Limit    int
	Sort     SortOrder
}
