package products

import (
	"strings"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

type RatingInput struct {
	Rate  float64 `json:"rate" validate:"gte=0,lte=5" message:"Rating must be between 0 and 5" example:"4.5"`
	Count int     `json:"count" validate:"gte=0" message:"Rating count cannot be negative" example:"120"`
}

// ProductRequest is the body of POST /products and PUT /products/{id}.
type ProductRequest struct {
	Title       string       `json:"title" validate:"required" message:"Product title is required" example:"Mens Casual Slim Fit"`
	Price       *float64     `json:"price" validate:"required,gte=0" message:"Price must be a positive number" example:"15.99"`
	Description string       `json:"description" example:"The color could be slightly different between on the screen and in practice."`
	Category    string       `json:"category" validate:"required,product_category" example:"men's clothing"`
	Image       string       `json:"image" example:"https://fakestoreapi.com/img/71YXzeOuslL._AC_UY879_.jpg"`
	Rating      *RatingInput `json:"rating"`
}

func (r *ProductRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Image = strings.TrimSpace(r.Image)
}

func (r *ProductRequest) params() types.ProductParams {
	p := types.ProductParams{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Image:       r.Image,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if p.Image == "" {
		p.Image = types.DefaultProductImage
	}
	if r.Rating != nil {
		p.Rating = types.Rating{Rate: r.Rating.Rate, Count: r.Rating.Count}
	}
	return p
}

// ProductPatchRequest is the body of PATCH /products/{id}. Absent fields are
// left untouched.
type ProductPatchRequest struct {
	Title       *string      `json:"title" validate:"omitnil,min=1" message:"Product title is required"`
	Price       *float64     `json:"price" validate:"omitnil,gte=0" message:"Price must be a positive number"`
	Description *string      `json:"description"`
	Category    *string      `json:"category" validate:"omitnil,product_category"`
	Image       *string      `json:"image"`
	Rating      *RatingInput `json:"rating"`
}

func (r *ProductPatchRequest) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.Title)
	trim(r.Category)
	trim(r.Image)
}

func (r *ProductPatchRequest) patch() types.ProductPatch {
	p := types.ProductPatch{
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		Category:    r.Category,
		Image:       r.Image,
	}
	if r.Rating != nil {
		p.Rating = &types.Rating{Rate: r.Rating.Rate, Count: r.Rating.Count}
	}
	return p
}

// CategoriesResponse lists the categories that currently have products.
type CategoriesResponse []string
