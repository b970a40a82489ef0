// Package store persists the bookshop's books, users, carts and orders in
// Postgres and republishes affected live queries after every successful
// write.
package store

import (
	"context"
	"database/sql"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/live"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/sirupsen/logrus"
)

type Options struct {
	StockPolicy config.StockPolicy
}

type Store struct {
	db     *sql.DB
	hub    *hub
	policy config.StockPolicy

	Catalog *Catalog
	Users   *Users
	Carts   *Carts
	Orders  *Orders
}

func New(db *sql.DB, logger logrus.FieldLogger, opts Options) *Store {
	if opts.StockPolicy == "" {
		opts.StockPolicy = config.StockGuarded
	}

	h := &hub{log: logger.WithField("component", "store")}
	h.books = live.NewFeed(func(ctx context.Context) ([]models.Book, error) {
		return listBooks(ctx, db)
	})
	h.carts = live.NewTopic(func(ctx context.Context, username string) ([]models.CartItem, error) {
		return listCartItems(ctx, db, username)
	})
	h.orders = live.NewTopic(func(ctx context.Context, username string) ([]models.Order, error) {
		return listOrdersForUser(ctx, db, username)
	})
	h.details = live.NewTopic(func(ctx context.Context, orderID int64) ([]models.OrderDetailWithBook, error) {
		return listDetailedOrderInfo(ctx, db, orderID)
	})

	return &Store{
		db:      db,
		hub:     h,
		policy:  opts.StockPolicy,
		Catalog: &Catalog{db: db, hub: h},
		Users:   &Users{db: db},
		Carts:   &Carts{db: db, hub: h},
		Orders:  &Orders{db: db, hub: h},
	}
}

// hub owns every live query and knows which ones a write invalidates.
type hub struct {
	log     logrus.FieldLogger
	books   *live.Feed[[]models.Book]
	carts   *live.Topic[string, []models.CartItem]
	orders  *live.Topic[string, []models.Order]
	details *live.Topic[int64, []models.OrderDetailWithBook]
}

// Publishing happens after the write has committed, so it must not be
// cut short by the writer's cancellation and its failures are only logged.

func (h *hub) booksChanged(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if err := h.books.Publish(ctx); err != nil {
		h.log.WithError(err).Warn("publish catalog")
	}
	if err := h.details.PublishAll(ctx); err != nil {
		h.log.WithError(err).Warn("publish order details")
	}
}

func (h *hub) cartChanged(ctx context.Context, username string) {
	if err := h.carts.Publish(context.WithoutCancel(ctx), username); err != nil {
		h.log.WithError(err).WithField("username", username).Warn("publish cart")
	}
}

func (h *hub) orderPlaced(ctx context.Context, username string, orderID int64) {
	ctx = context.WithoutCancel(ctx)
	if err := h.orders.Publish(ctx, username); err != nil {
		h.log.WithError(err).WithField("username", username).Warn("publish orders")
	}
	if err := h.details.Publish(ctx, orderID); err != nil {
		h.log.WithError(err).WithField("order_id", orderID).Warn("publish order details")
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}
