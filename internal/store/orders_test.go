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

func newOrder(username string, at time.Time, total string) models.Order {
	return models.Order{
		Username:    username,
		OrderDate:   at,
		TotalAmount: decimal.RequireFromString(total),
	}
}

func TestInsertWithDetailsStampsOrderID(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()
	mustUser(t, s, "alice")

	order, details, err := s.Orders.InsertWithDetails(ctx,
		newOrder("alice", time.Now(), "23.00"),
		[]models.OrderDetail{
			{BookISBN: "A", Quantity: 2, PricePerUnit: decimal.RequireFromString("10.00")},
		})
	if err != nil {
		t.Fatalf("Insert order: %v", err)
	}

	if order.ID == 0 {
		t.Fatal("Order ID should not be 0")
	}
	if len(details) != 1 || details[0].ParentOrderID != order.ID || details[0].ID == 0 {
		t.Errorf("Details not stamped with order id: %+v", details)
	}

	got, err := s.Orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("23.00")) {
		t.Errorf("Expected total 23.00, got %s", got.TotalAmount)
	}
}

func TestInsertWithDetailsIsAtomic(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()
	mustUser(t, s, "alice")

	// The second detail violates the quantity check, so the failure lands
	// after the header and first detail were written.
	_, _, err := s.Orders.InsertWithDetails(ctx,
		newOrder("alice", time.Now(), "10.00"),
		[]models.OrderDetail{
			{BookISBN: "A", Quantity: 1, PricePerUnit: decimal.RequireFromString("10.00")},
			{BookISBN: "B", Quantity: 0, PricePerUnit: decimal.RequireFromString("1.00")},
		})
	if err == nil {
		t.Fatal("Expected insert to fail")
	}
	if !database.IsConstraintViolation(err) {
		t.Errorf("Expected constraint violation, got: %v", err)
	}

	orders, err := s.Orders.ForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("No order should be visible after rollback, got %+v", orders)
	}

	var detailCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_details`).Scan(&detailCount); err != nil {
		t.Fatalf("Count details: %v", err)
	}
	if detailCount != 0 {
		t.Errorf("Expected no details, got %d", detailCount)
	}
}

func TestInsertWithDetailsRejectsEmpty(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	mustUser(t, s, "alice")

	_, _, err := s.Orders.InsertWithDetails(context.Background(), newOrder("alice", time.Now(), "0"), nil)
	if !errors.Is(err, database.ErrEmptyOrder) {
		t.Errorf("Expected empty order error, got: %v", err)
	}
}

func TestOrderGetMissing(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)

	_, err := s.Orders.Get(context.Background(), 4242)
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected order not found, got: %v", err)
	}
}

func TestOrdersForUserNewestFirst(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()
	mustUser(t, s, "alice")
	mustUser(t, s, "bob")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	detail := []models.OrderDetail{{BookISBN: "A", Quantity: 1, PricePerUnit: decimal.NewFromInt(1)}}

	for i, at := range []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour)} {
		if _, _, err := s.Orders.InsertWithDetails(ctx, newOrder("alice", at, "1"), detail); err != nil {
			t.Fatalf("Insert order %d: %v", i, err)
		}
	}
	if _, _, err := s.Orders.InsertWithDetails(ctx, newOrder("bob", base, "1"), detail); err != nil {
		t.Fatalf("Insert bob order: %v", err)
	}

	orders, err := s.Orders.ForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("Expected 3 orders, got %d", len(orders))
	}
	for i := 1; i < len(orders); i++ {
		if orders[i].OrderDate.After(orders[i-1].OrderDate) {
			t.Errorf("Orders not descending at %d", i)
		}
	}
}

func TestOrdersPage(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()
	mustUser(t, s, "alice")

	base := time.Now().Add(-time.Hour)
	detail := []models.OrderDetail{{BookISBN: "A", Quantity: 1, PricePerUnit: decimal.NewFromInt(1)}}
	for i := 0; i < 15; i++ {
		if _, _, err := s.Orders.InsertWithDetails(ctx, newOrder("alice", base.Add(time.Duration(i)*time.Minute), "1"), detail); err != nil {
			t.Fatalf("Insert order %d: %v", i, err)
		}
	}

	page1, err := s.Orders.Page(ctx, "alice", "", 10)
	if err != nil {
		t.Fatalf("Page 1: %v", err)
	}
	if !page1.HasMore || page1.NextCursor == "" || len(page1.Items) != 10 {
		t.Fatalf("Unexpected page 1: more=%v cursor=%q items=%d", page1.HasMore, page1.NextCursor, len(page1.Items))
	}

	page2, err := s.Orders.Page(ctx, "alice", page1.NextCursor, 10)
	if err != nil {
		t.Fatalf("Page 2: %v", err)
	}
	if page2.HasMore || len(page2.Items) != 5 {
		t.Errorf("Unexpected page 2: more=%v items=%d", page2.HasMore, len(page2.Items))
	}
}

func TestDetailedOrderInfoIsInnerJoin(t *testing.T) {
	s := setupTestStore(t, config.StockGuarded)
	ctx := context.Background()
	mustUser(t, s, "alice")
	mustBook(t, s, testBook("9780000000001", "Alpha", "10.00", 5))

	order, _, err := s.Orders.InsertWithDetails(ctx, newOrder("alice", time.Now(), "21.00"),
		[]models.OrderDetail{
			{BookISBN: "9780000000001", Quantity: 2, PricePerUnit: decimal.RequireFromString("10.00")},
			{BookISBN: "9780000000404", Quantity: 1, PricePerUnit: decimal.RequireFromString("1.00")},
		})
	if err != nil {
		t.Fatalf("Insert order: %v", err)
	}

	lines, err := s.Orders.Details(ctx, order.ID)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected 1 joined line, got %d", len(lines))
	}
	if lines[0].Book.Title != "Alpha" || lines[0].Detail.Quantity != 2 {
		t.Errorf("Unexpected line: %+v", lines[0])
	}
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cursor, err := DecodeCursor(EncodeCursor(OrderCursor{OrderDate: at, ID: 9}))
	if err != nil {
		t.Fatalf("Decode cursor: %v", err)
	}
	if !cursor.OrderDate.Equal(at) || cursor.ID != 9 {
		t.Errorf("Unexpected cursor: %+v", cursor)
	}

	if _, err := DecodeCursor("%%%"); err == nil {
		t.Error("Expected error for malformed cursor")
	}
}
