package models

import "time"

// Product is a catalogue entry. Attributes hold free-form document data
// (colour, size, brand, ...) and are persisted as a JSON column.
type Product struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Image       string         `json:"image"`
	Stock       int            `json:"stock"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ProductRequest is the payload for creating or replacing a product
type ProductRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Image       string         `json:"image"`
	Stock       int            `json:"stock"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// ProductListFilter narrows the product list
type ProductListFilter struct {
	Page   int
	Count  int
	Search string
}
