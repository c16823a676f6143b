package models

// Product is a catalog entry. Products are only created by seeding.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	Size        string `json:"size"`
	Image       string `json:"image"`
}

// CreateProductRequest carries the fields of a product to insert.
type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	Size        string `json:"size"`
	Image       string `json:"image"`
}
