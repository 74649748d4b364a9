package catalog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"` // display-facing, PRD-%06d
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	PriceCents  int       `json:"price_cents"`
	Stock       int       `json:"stock"`
	Condition   string    `json:"condition"`
	Size        string    `json:"size,omitempty"`
	Material    string    `json:"material,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	PriceCents  int    `json:"price_cents"`
	Stock       int    `json:"stock"`
	Condition   string `json:"condition"`
	Size        string `json:"size"`
	Material    string `json:"material"`
	Description string `json:"description"`
	Image       string `json:"image"`
}
