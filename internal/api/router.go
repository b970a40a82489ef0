// Package api exposes the bookshop over HTTP as JSON endpoints and
// server-sent event streams.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/safar/go-bookshop/internal/auth"
	"github.com/safar/go-bookshop/internal/cart"
	"github.com/safar/go-bookshop/internal/checkout"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/safar/go-bookshop/internal/stock"
	"github.com/safar/go-bookshop/internal/store"
	"github.com/sirupsen/logrus"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
	Parse(raw string) (auth.Identity, error)
}

type Catalog interface {
	List(ctx context.Context) ([]models.Book, error)
	Get(ctx context.Context, isbn string) (*models.Book, error)
	Watch(ctx context.Context) (<-chan []models.Book, error)
}

type Carts interface {
	AddToCart(ctx context.Context, username, isbn string) (models.CartItem, error)
	AddScanned(ctx context.Context, username, code string) (models.CartItem, bool, error)
	SetQuantity(ctx context.Context, username, isbn string, quantity int) error
	Remove(ctx context.Context, username, isbn string) error
	Clear(ctx context.Context, username string) error
	View(ctx context.Context, username string) (cart.View, error)
	Watch(ctx context.Context, username string) (<-chan cart.View, error)
}

type Checkouts interface {
	Session(username string) *checkout.Session
}

type Orders interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
	Page(ctx context.Context, username, cursor string, limit int) (*store.CursorPage, error)
	WatchForUser(ctx context.Context, username string) (<-chan []models.Order, error)
	Details(ctx context.Context, orderID int64) ([]models.OrderDetailWithBook, error)
	WatchDetails(ctx context.Context, orderID int64) (<-chan []models.OrderDetailWithBook, error)
}

type StockAdmin interface {
	NewForm() stock.Form
	Edit(ctx context.Context, isbn string) (stock.Form, error)
	FillFromLookup(ctx context.Context, form stock.Form) (stock.Form, bool)
	Save(ctx context.Context, form stock.Form) (stock.Form, error)
}

type Deps struct {
	Auth     Authenticator
	Tokens   TokenIssuer
	Catalog  Catalog
	Cart     Carts
	Checkout Checkouts
	Orders   Orders
	Stock    StockAdmin
	// Health reports whether the backing services are reachable.
	Health func(ctx context.Context) error
	Logger logrus.FieldLogger
}

type handler struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	h := &handler{Deps: d}

	r := mux.NewRouter()
	r.Use(requestLogger(d.Logger))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(authenticate(d.Tokens))

	api.HandleFunc("/books", h.listBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/stream", h.streamBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/{isbn}", h.getBook).Methods(http.MethodGet)

	api.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.addToCart).Methods(http.MethodPost)
	api.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/scan", h.scanToCart).Methods(http.MethodPost)
	api.HandleFunc("/cart/stream", h.streamCart).Methods(http.MethodGet)
	api.HandleFunc("/cart/{isbn}", h.setCartQuantity).Methods(http.MethodPut)
	api.HandleFunc("/cart/{isbn}", h.removeFromCart).Methods(http.MethodDelete)

	api.HandleFunc("/checkout", h.getCheckout).Methods(http.MethodGet)
	api.HandleFunc("/checkout/prepare", h.prepareCheckout).Methods(http.MethodPost)
	api.HandleFunc("/checkout/address", h.updateAddress).Methods(http.MethodPatch)
	api.HandleFunc("/checkout/place", h.placeOrder).Methods(http.MethodPost)

	api.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/stream", h.streamOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}/stream", h.streamOrderDetails).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin)
	admin.HandleFunc("/books/{isbn}", h.saveBook).Methods(http.MethodPut)
	admin.HandleFunc("/lookup/{isbn}", h.lookupBook).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			logger(r).WithError(err).Warn("health check failed")
			respondError(w, r, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
