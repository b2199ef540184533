// Package sqlite provides a SQLite-backed ingredient store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/larder/pkg/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS ingredients (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	category   TEXT    NOT NULL DEFAULT 'uncategorized',
	quantity   REAL    NOT NULL DEFAULT 1,
	unit       TEXT    NOT NULL DEFAULT 'unit',
	added_date DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS ingredients_category_idx ON ingredients (category);`

const selectColumns = `SELECT id, name, category, quantity, unit, added_date FROM ingredients`

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// List returns every ingredient, newest first.
func (d *Driver) List(ctx context.Context) ([]storage.Ingredient, error) {
	return d.query(ctx, selectColumns+` ORDER BY added_date DESC, id DESC`)
}

// Add inserts the given ingredients in a single transaction.
func (d *Driver) Add(ctx context.Context, ingredients ...storage.Ingredient) ([]storage.Ingredient, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ingredients (name, category, quantity, unit, added_date) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	added := make([]storage.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.AddedDate.IsZero() {
			ing.AddedDate = time.Now().UTC()
		}

		res, err := stmt.ExecContext(ctx, ing.Name, ing.Category, ing.Quantity, ing.Unit, ing.AddedDate)
		if err != nil {
			return nil, fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
		}

		ing.ID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read ingredient id: %w", err)
		}
		added = append(added, ing)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ingredients: %w", err)
	}
	return added, nil
}

// Update changes an existing ingredient.
func (d *Driver) Update(ctx context.Context, id int64, update storage.IngredientUpdate) (storage.Ingredient, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Ingredient{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ing, err := scanIngredient(tx.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Ingredient{}, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return storage.Ingredient{}, fmt.Errorf("failed to load ingredient %d: %w", id, err)
	}

	update.Apply(&ing)

	_, err = tx.ExecContext(ctx,
		`UPDATE ingredients SET name = ?, category = ?, quantity = ?, unit = ? WHERE id = ?`,
		ing.Name, ing.Category, ing.Quantity, ing.Unit, id,
	)
	if err != nil {
		return storage.Ingredient{}, fmt.Errorf("failed to update ingredient %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Ingredient{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return ing, nil
}

// Delete removes one ingredient.
func (d *Driver) Delete(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}
	return nil
}

// DeleteAll removes every ingredient.
func (d *Driver) DeleteAll(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM ingredients`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ingredients: %w", err)
	}
	return res.RowsAffected()
}

// Search returns ingredients whose name contains query, ignoring case.
func (d *Driver) Search(ctx context.Context, query string) ([]storage.Ingredient, error) {
	return d.query(ctx,
		selectColumns+` WHERE lower(name) LIKE '%' || lower(?) || '%' ORDER BY name, id`,
		query,
	)
}

// ByCategory returns ingredients in the given category.
func (d *Driver) ByCategory(ctx context.Context, category string) ([]storage.Ingredient, error) {
	return d.query(ctx, selectColumns+` WHERE category = ? ORDER BY name, id`, category)
}

// Ping checks the database connection.
func (d *Driver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) query(ctx context.Context, q string, args ...any) ([]storage.Ingredient, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	result := []storage.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		result = append(result, ing)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIngredient(s scanner) (storage.Ingredient, error) {
	var ing storage.Ingredient
	err := s.Scan(&ing.ID, &ing.Name, &ing.Category, &ing.Quantity, &ing.Unit, &ing.AddedDate)
	return ing, err
}
