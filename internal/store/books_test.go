package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
)

func TestCatalogUpsertReplacesWholeRow(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()

	first := testBook("9780000000001", "Original Title", "10.00", 5)
	mustBook(t, s, first)

	second := testBook("9780000000001", "New Title", "12.50", 7)
	second.Description = ""
	second.Author = "Someone Else"
	mustBook(t, s, second)

	got, err := s.Catalog.Get(ctx, "9780000000001")
	if err != nil {
		t.Fatalf("Get book: %v", err)
	}

	if got.Title != "New Title" || got.Author != "Someone Else" || got.Description != "" {
		t.Errorf("Expected full replacement, got %+v", got)
	}
	if !got.RetailPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("Expected retail price 12.50, got %s", got.RetailPrice)
	}
	if got.QuantityInStock != 7 {
		t.Errorf("Expected stock 7, got %d", got.QuantityInStock)
	}

	books, err := s.Catalog.List(ctx)
	if err != nil {
		t.Fatalf("List books: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("Expected 1 book, got %d", len(books))
	}
}

func TestCatalogGetMissing(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)

	_, err := s.Catalog.Get(context.Background(), "9789999999999")
	if !errors.Is(err, database.ErrBookNotFound) {
		t.Errorf("Expected book not found, got: %v", err)
	}
}

func TestCatalogListOrderedByTitle(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)

	mustBook(t, s, testBook("9780000000003", "Charlie", "1.00", 1))
	mustBook(t, s, testBook("9780000000001", "Alpha", "1.00", 1))
	mustBook(t, s, testBook("9780000000002", "Bravo", "1.00", 1))

	books, err := s.Catalog.List(context.Background())
	if err != nil {
		t.Fatalf("List books: %v", err)
	}

	want := []string{"Alpha", "Bravo", "Charlie"}
	for i, title := range want {
		if books[i].Title != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, books[i].Title)
		}
	}
}

func TestCatalogWatchSeesUpserts(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := s.Catalog.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch catalog: %v", err)
	}

	if initial := <-updates; len(initial) != 0 {
		t.Fatalf("Expected empty initial snapshot, got %d books", len(initial))
	}

	mustBook(t, s, testBook("9780000000001", "Alpha", "1.00", 1))

	select {
	case books := <-updates:
		if len(books) != 1 || books[0].Title != "Alpha" {
			t.Errorf("Unexpected snapshot: %+v", books)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for catalog update")
	}
}

func TestCatalogUpdateManyIsAllOrNothing(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()

	a := testBook("9780000000001", "Alpha", "1.00", 10)
	mustBook(t, s, a)

	a.QuantityInStock = 4
	missing := testBook("9780000000099", "Ghost", "1.00", 1)

	err := s.Catalog.UpdateMany(ctx, []models.Book{a, missing})
	if !errors.Is(err, database.ErrBookNotFound) {
		t.Fatalf("Expected book not found, got: %v", err)
	}

	got, err := s.Catalog.Get(ctx, a.ISBN13)
	if err != nil {
		t.Fatalf("Get book: %v", err)
	}
	if got.QuantityInStock != 10 {
		t.Errorf("Stock should remain unchanged at 10, got %d", got.QuantityInStock)
	}

	if err := s.Catalog.UpdateMany(ctx, []models.Book{a}); err != nil {
		t.Fatalf("Update many: %v", err)
	}
	got, _ = s.Catalog.Get(ctx, a.ISBN13)
	if got.QuantityInStock != 4 {
		t.Errorf("Expected stock 4, got %d", got.QuantityInStock)
	}
}
