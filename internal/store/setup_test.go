package store

import (
	"context"
	"testing"
	"time"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/database/dbtest"
	"github.com/safar/go-bookshop/internal/logging"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
)

func setupTestStore(t *testing.T, policy config.StockPolicy) *Store {
	t.Helper()
	return New(dbtest.Start(t), logging.Discard(), Options{StockPolicy: policy})
}

func testBook(isbn, title string, retail string, stock int) models.Book {
	return models.Book{
		ISBN13:          isbn,
		Title:           title,
		Author:          "Test Author",
		PublicationDate: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Description:     "Test",
		CoverImageURL:   "https://example.com/" + isbn + ".jpg",
		TradePrice:      decimal.RequireFromString("1.00"),
		RetailPrice:     decimal.RequireFromString(retail),
		QuantityInStock: stock,
	}
}

func mustUser(t *testing.T, s *Store, username string) {
	t.Helper()
	if _, err := s.Users.InsertIfAbsent(context.Background(), models.User{Username: username, PasswordHash: "x"}); err != nil {
		t.Fatalf("Insert user %s: %v", username, err)
	}
}

func mustBook(t *testing.T, s *Store, book models.Book) {
	t.Helper()
	if err := s.Catalog.Upsert(context.Background(), book); err != nil {
		t.Fatalf("Upsert book %s: %v", book.ISBN13, err)
	}
}
