package store

import (
	"context"
	"testing"
	"time"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/models"
)

func TestCartUpsertKeepsOneRowPerBook(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()

	for _, item := range []models.CartItem{
		{Username: "alice", BookISBN: "A", Quantity: 1},
		{Username: "alice", BookISBN: "B", Quantity: 2},
		{Username: "alice", BookISBN: "A", Quantity: 5},
	} {
		if err := s.Carts.Upsert(ctx, item); err != nil {
			t.Fatalf("Upsert cart item: %v", err)
		}
	}

	items, err := s.Carts.Items(ctx, "alice")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(items))
	}
	if items[0].BookISBN != "A" || items[0].Quantity != 5 {
		t.Errorf("Expected first line A x5, got %+v", items[0])
	}
	if items[1].BookISBN != "B" || items[1].Quantity != 2 {
		t.Errorf("Expected second line B x2, got %+v", items[1])
	}
}

func TestCartIncrement(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()

	item, err := s.Carts.Increment(ctx, "alice", "A", 1)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("Expected quantity 1, got %d", item.Quantity)
	}

	item, err = s.Carts.Increment(ctx, "alice", "A", 1)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if item.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", item.Quantity)
	}
}

func TestCartDeleteAndClear(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()

	_ = s.Carts.Upsert(ctx, models.CartItem{Username: "alice", BookISBN: "A", Quantity: 1})
	_ = s.Carts.Upsert(ctx, models.CartItem{Username: "alice", BookISBN: "B", Quantity: 1})
	_ = s.Carts.Upsert(ctx, models.CartItem{Username: "bob", BookISBN: "A", Quantity: 3})

	if err := s.Carts.Delete(ctx, "alice", "missing"); err != nil {
		t.Errorf("Deleting a missing line should succeed: %v", err)
	}
	if err := s.Carts.Delete(ctx, "alice", "A"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	items, _ := s.Carts.Items(ctx, "alice")
	if len(items) != 1 || items[0].BookISBN != "B" {
		t.Errorf("Expected only B left, got %+v", items)
	}

	for i := 0; i < 2; i++ {
		if err := s.Carts.Clear(ctx, "alice"); err != nil {
			t.Fatalf("Clear attempt %d: %v", i, err)
		}
	}

	items, _ = s.Carts.Items(ctx, "alice")
	if len(items) != 0 {
		t.Errorf("Expected empty cart, got %+v", items)
	}

	bobs, _ := s.Carts.Items(ctx, "bob")
	if len(bobs) != 1 {
		t.Errorf("Clearing alice must not touch bob, got %+v", bobs)
	}
}

func TestCartWatchIsPerUser(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := s.Carts.Watch(ctx, "alice")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	<-updates

	_ = s.Carts.Upsert(ctx, models.CartItem{Username: "bob", BookISBN: "A", Quantity: 1})
	_ = s.Carts.Upsert(ctx, models.CartItem{Username: "alice", BookISBN: "B", Quantity: 2})

	select {
	case items := <-updates:
		if len(items) != 1 || items[0].BookISBN != "B" {
			t.Errorf("Unexpected snapshot: %+v", items)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for cart update")
	}
}
