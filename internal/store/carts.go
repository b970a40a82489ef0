package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
)

type Carts struct {
	db  *sql.DB
	hub *hub
}

// Upsert writes the line for (username, isbn), replacing its quantity if
// it already exists. Replacing keeps the line's original position.
func (c *Carts) Upsert(ctx context.Context, item models.CartItem) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cart_items (username, book_isbn, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username, book_isbn) DO UPDATE SET quantity = EXCLUDED.quantity`,
		item.Username, item.BookISBN, item.Quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}

	c.hub.cartChanged(ctx, item.Username)
	return nil
}

// Increment adds delta to the line, creating it with quantity delta when
// absent, and returns the resulting line.
func (c *Carts) Increment(ctx context.Context, username, isbn string, delta int) (models.CartItem, error) {
	item := models.CartItem{Username: username, BookISBN: isbn}

	err := c.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (username, book_isbn, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username, book_isbn) DO UPDATE
		     SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING quantity`,
		username, isbn, delta).Scan(&item.Quantity)
	if err != nil {
		return models.CartItem{}, fmt.Errorf("increment cart item: %w", err)
	}

	c.hub.cartChanged(ctx, username)
	return item, nil
}

// Items returns the user's lines in the order they were first added.
func (c *Carts) Items(ctx context.Context, username string) ([]models.CartItem, error) {
	return c.hub.carts.Snapshot(ctx, username)
}

func (c *Carts) Watch(ctx context.Context, username string) (<-chan []models.CartItem, error) {
	return c.hub.carts.Subscribe(ctx, username)
}

// Delete removes one line; deleting a missing line is not an error.
func (c *Carts) Delete(ctx context.Context, username, isbn string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE username = $1 AND book_isbn = $2`,
		username, isbn)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	c.hub.cartChanged(ctx, username)
	return nil
}

func (c *Carts) Clear(ctx context.Context, username string) error {
	if err := clearCart(ctx, c.db, username); err != nil {
		return err
	}

	c.hub.cartChanged(ctx, username)
	return nil
}

func clearCart(ctx context.Context, q database.Querier, username string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE username = $1`, username); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func listCartItems(ctx context.Context, q database.Querier, username string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT username, book_isbn, quantity
		 FROM cart_items
		 WHERE username = $1
		 ORDER BY added_seq ASC`,
		username)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.Username, &item.BookISBN, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
