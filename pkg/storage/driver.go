// Package storage defines the ingredient store used by the HTTP surface and
// the recipe suggestion flow.
package storage

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultCategory is assigned to ingredients added without a category.
	DefaultCategory = "uncategorized"

	// DefaultUnit is assigned to ingredients added without a unit.
	DefaultUnit = "unit"

	// DefaultQuantity is assigned to ingredients added without a quantity.
	DefaultQuantity = 1.0
)

// Ingredient is one pantry item.
type Ingredient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	AddedDate time.Time `json:"added_date"`
}

// NewIngredient normalizes user input into an Ingredient ready to be added.
// The name is lower-cased and trimmed and empty fields get their defaults.
func NewIngredient(name, category string, quantity float64, unit string) Ingredient {
	if category == "" {
		category = DefaultCategory
	}
	if quantity == 0 {
		quantity = DefaultQuantity
	}
	if unit == "" {
		unit = DefaultUnit
	}

	return Ingredient{
		Name:     strings.ToLower(strings.TrimSpace(name)),
		Category: category,
		Quantity: quantity,
		Unit:     unit,
	}
}

// IngredientUpdate holds the fields to change on an existing ingredient.
// Nil fields are left untouched.
type IngredientUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Category *string  `json:"category,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
}

// Apply copies the set fields of u onto ing.
func (u IngredientUpdate) Apply(ing *Ingredient) {
	if u.Name != nil {
		ing.Name = *u.Name
	}
	if u.Category != nil {
		ing.Category = *u.Category
	}
	if u.Quantity != nil {
		ing.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		ing.Unit = *u.Unit
	}
}

// Driver defines the interface for persisting and querying ingredients.
type Driver interface {
	// List returns every ingredient, newest first.
	List(ctx context.Context) ([]Ingredient, error)

	// Add inserts the given ingredients and returns them with their ID and
	// added date set.
	Add(ctx context.Context, ingredients ...Ingredient) ([]Ingredient, error)

	// Update changes an existing ingredient. Returns NotFoundError when no
	// ingredient has the given ID.
	Update(ctx context.Context, id int64, update IngredientUpdate) (Ingredient, error)

	// Delete removes one ingredient. Returns NotFoundError when no
	// ingredient has the given ID.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every ingredient and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Search returns ingredients whose name contains query, ignoring case,
	// ordered by name.
	Search(ctx context.Context, query string) ([]Ingredient, error)

	// ByCategory returns ingredients in the given category ordered by name.
	ByCategory(ctx context.Context, category string) ([]Ingredient, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the store and releases any resources.
	Close() error
}

// Names returns the names of the given ingredients in order.
func Names(ingredients []Ingredient) []string {
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = ing.Name
	}
	return names
}
