package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/safar/go-bookshop/internal/api"
	"github.com/safar/go-bookshop/internal/auth"
	"github.com/safar/go-bookshop/internal/cart"
	"github.com/safar/go-bookshop/internal/checkout"
	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/database/dbtest"
	"github.com/safar/go-bookshop/internal/logging"
	"github.com/safar/go-bookshop/internal/metadata"
	"github.com/safar/go-bookshop/internal/seed"
	"github.com/safar/go-bookshop/internal/stock"
	"github.com/safar/go-bookshop/internal/store"
)

const lastCopyISBN = "9780000000777"

func newStack(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	db := dbtest.Start(t)
	log := logging.Discard()
	st := store.New(db, log, store.Options{StockPolicy: config.StockGuarded})

	data, err := seed.Default()
	if err != nil {
		t.Fatalf("Load seed data: %v", err)
	}
	if err := seed.Run(context.Background(), st, data, auth.HashPassword, log); err != nil {
		t.Fatalf("Seed database: %v", err)
	}

	lookup := metadata.NewClient(config.MetadataConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, log)

	handler := api.NewRouter(api.Deps{
		Auth:     auth.NewService(st.Users, log),
		Tokens:   auth.NewTokens(config.AuthConfig{Secret: "stack", TokenTTL: time.Hour}),
		Catalog:  st.Catalog,
		Cart:     cart.NewService(st.Carts, st.Catalog, log),
		Checkout: checkout.NewService(checkout.StoreRepository(st), log),
		Orders:   st.Orders,
		Stock:    stock.NewService(st.Catalog, lookup, log),
		Health:   db.PingContext,
		Logger:   log,
	})
	return handler, st
}

func call(t *testing.T, h http.Handler, method, path, token, body string, out any) int {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("Decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	code := call(t, h, http.MethodPost, "/login", "", `{"username":"`+username+`","password":"p455w0rd"}`, &resp)
	if code != http.StatusOK {
		t.Fatalf("Login %s: status %d", username, code)
	}
	return resp.Token
}

func TestShopperJourney(t *testing.T) {
	h, st := newStack(t)
	ctx := context.Background()

	if code := call(t, h, http.MethodGet, "/health", "", "", nil); code != http.StatusOK {
		t.Fatalf("Expected healthy service, got %d", code)
	}

	admin := login(t, h, "admin")
	code := call(t, h, http.MethodPut, "/admin/books/"+lastCopyISBN, admin,
		`{"title":"Last Copy","retail_price":"10.00","quantity":5}`, nil)
	if code != http.StatusOK {
		t.Fatalf("Save book: status %d", code)
	}

	shopper := login(t, h, "customer1")
	for i := 0; i < 2; i++ {
		if code := call(t, h, http.MethodPost, "/cart", shopper, `{"isbn":"`+lastCopyISBN+`"}`, nil); code != http.StatusOK {
			t.Fatalf("Add to cart: status %d", code)
		}
	}

	var draft struct {
		Total string `json:"total"`
	}
	if code := call(t, h, http.MethodPost, "/checkout/prepare", shopper, "", &draft); code != http.StatusOK {
		t.Fatalf("Prepare: status %d", code)
	}
	if draft.Total != "23" {
		t.Errorf("Expected total 23, got %s", draft.Total)
	}

	if code := call(t, h, http.MethodPost, "/checkout/place", shopper, "", nil); code != http.StatusCreated {
		t.Fatalf("Place order: status %d", code)
	}

	book, err := st.Catalog.Get(ctx, lastCopyISBN)
	if err != nil {
		t.Fatalf("Get book: %v", err)
	}
	if book.QuantityInStock != 3 {
		t.Errorf("Expected stock 3, got %d", book.QuantityInStock)
	}

	items, err := st.Carts.Items(ctx, "customer1")
	if err != nil {
		t.Fatalf("Cart items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty cart, got %d lines", len(items))
	}

	var page store.CursorPage
	if code := call(t, h, http.MethodGet, "/orders", shopper, "", &page); code != http.StatusOK {
		t.Fatalf("List orders: status %d", code)
	}
	if len(page.Items) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(page.Items))
	}
}

func TestRaceForLastCopy(t *testing.T) {
	h, _ := newStack(t)

	admin := login(t, h, "admin")
	call(t, h, http.MethodPut, "/admin/books/"+lastCopyISBN, admin, `{"title":"Last Copy","quantity":1}`, nil)

	shoppers := []string{login(t, h, "customer1"), login(t, h, "customer2")}
	for _, tok := range shoppers {
		call(t, h, http.MethodPost, "/cart", tok, `{"isbn":"`+lastCopyISBN+`"}`, nil)
		if code := call(t, h, http.MethodPost, "/checkout/prepare", tok, "", nil); code != http.StatusOK {
			t.Fatalf("Prepare: status %d", code)
		}
	}

	var wg sync.WaitGroup
	codes := make([]int, len(shoppers))
	for i, tok := range shoppers {
		wg.Add(1)
		go func(i int, tok string) {
			defer wg.Done()
			codes[i] = call(t, h, http.MethodPost, "/checkout/place", tok, "", nil)
		}(i, tok)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("Unexpected status %d", code)
		}
	}

	if created != 1 || conflicts != 1 {
		t.Errorf("Expected one order and one conflict, got %d and %d", created, conflicts)
	}
}
