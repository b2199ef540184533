// Package inmemory provides a map-backed storage driver for tests and local
// runs without a database.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/larder/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the ingredient map
	mu sync.RWMutex

	// ingredients is keyed by ingredient ID
	ingredients map[int64]storage.Ingredient

	// nextID is the ID assigned to the next added ingredient
	nextID int64

	// now stamps added dates
	now func() time.Time
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		ingredients: make(map[int64]storage.Ingredient),
		nextID:      1,
		now:         time.Now,
	}
}

// List returns every ingredient, newest first.
func (d *Driver) List(_ context.Context) ([]storage.Ingredient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := d.collect(func(storage.Ingredient) bool { return true })
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].AddedDate.Equal(result[j].AddedDate) {
			return result[i].ID > result[j].ID
		}
		return result[i].AddedDate.After(result[j].AddedDate)
	})
	return result, nil
}

// Add inserts the given ingredients.
func (d *Driver) Add(_ context.Context, ingredients ...storage.Ingredient) ([]storage.Ingredient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	added := make([]storage.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		ing.ID = d.nextID
		d.nextID++
		if ing.AddedDate.IsZero() {
			ing.AddedDate = d.now().UTC()
		}
		d.ingredients[ing.ID] = ing
		added = append(added, ing)
	}
	return added, nil
}

// Update changes an existing ingredient.
func (d *Driver) Update(_ context.Context, id int64, update storage.IngredientUpdate) (storage.Ingredient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ing, ok := d.ingredients[id]
	if !ok {
		return storage.Ingredient{}, storage.NotFoundError{ID: id}
	}

	update.Apply(&ing)
	d.ingredients[id] = ing
	return ing, nil
}

// Delete removes one ingredient.
func (d *Driver) Delete(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ingredients[id]; !ok {
		return storage.NotFoundError{ID: id}
	}
	delete(d.ingredients, id)
	return nil
}

// DeleteAll removes every ingredient.
func (d *Driver) DeleteAll(_ context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := int64(len(d.ingredients))
	d.ingredients = make(map[int64]storage.Ingredient)
	return n, nil
}

// Search returns ingredients whose name contains query, ignoring case.
func (d *Driver) Search(_ context.Context, query string) ([]storage.Ingredient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	q := strings.ToLower(query)
	result := d.collect(func(ing storage.Ingredient) bool {
		return strings.Contains(strings.ToLower(ing.Name), q)
	})
	sortByName(result)
	return result, nil
}

// ByCategory returns ingredients in the given category.
func (d *Driver) ByCategory(_ context.Context, category string) ([]storage.Ingredient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := d.collect(func(ing storage.Ingredient) bool {
		return ing.Category == category
	})
	sortByName(result)
	return result, nil
}

// Ping always succeeds.
func (d *Driver) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// collect must be called with mu held.
func (d *Driver) collect(keep func(storage.Ingredient) bool) []storage.Ingredient {
	result := make([]storage.Ingredient, 0, len(d.ingredients))
	for _, ing := range d.ingredients {
		if keep(ing) {
			result = append(result, ing)
		}
	}
	return result
}

func sortByName(ingredients []storage.Ingredient) {
	sort.SliceStable(ingredients, func(i, j int) bool {
		if ingredients[i].Name == ingredients[j].Name {
			return ingredients[i].ID < ingredients[j].ID
		}
		return ingredients[i].Name < ingredients[j].Name
	})
}
