package store

import (
	"context"
	"database/sql"

	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
)

// Seed inserts users and books that are not present yet, in one
// transaction, and reports how many of each were added.
func (s *Store) Seed(ctx context.Context, users []models.User, books []models.Book) (int, int, error) {
	var usersAdded, booksAdded int

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		usersAdded, booksAdded = 0, 0

		for _, user := range users {
			added, err := insertUserIfAbsent(ctx, tx, user)
			if err != nil {
				return err
			}
			if added {
				usersAdded++
			}
		}

		for _, book := range books {
			added, err := insertBookIfAbsent(ctx, tx, book)
			if err != nil {
				return err
			}
			if added {
				booksAdded++
			}
		}

		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if booksAdded > 0 {
		s.hub.booksChanged(ctx)
	}

	return usersAdded, booksAdded, nil
}
