package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
)

// CommitOrder performs a checkout in one transaction: the order and its
// details are inserted, stock is written back according to the store's
// stock policy and the user's cart is emptied. Any failure rolls all of
// it back.
func (s *Store) CommitOrder(ctx context.Context, commit models.OrderCommit) (models.Order, error) {
	var saved models.Order

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, _, err := insertOrderWithDetails(ctx, tx, commit.Order, commit.Details)
		if err != nil {
			return err
		}

		for _, change := range commit.Stock {
			if err := s.writeStock(ctx, tx, change); err != nil {
				return err
			}
		}

		if err := clearCart(ctx, tx, commit.Order.Username); err != nil {
			return err
		}

		saved = order
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	s.hub.orderPlaced(ctx, saved.Username, saved.ID)
	s.hub.booksChanged(ctx)
	s.hub.cartChanged(ctx, saved.Username)

	return saved, nil
}

func (s *Store) writeStock(ctx context.Context, tx *sql.Tx, change models.StockChange) error {
	switch s.policy {
	case config.StockOverwrite:
		return updateBook(ctx, tx, change.Remaining())
	case config.StockGuarded:
		return decrementStock(ctx, tx, change.Book.ISBN13, change.Quantity)
	default:
		return fmt.Errorf("unknown stock policy %q", s.policy)
	}
}
