package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/sirupsen/logrus"
)

type State int

const (
	Idle State = iota
	Prepared
	Placed
)

func (s State) String() string {
	switch s {
	case Prepared:
		return "prepared"
	case Placed:
		return "placed"
	default:
		return "idle"
	}
}

// Repository is the slice of the store a checkout reads and writes.
type Repository interface {
	CartItems(ctx context.Context, username string) ([]models.CartItem, error)
	Books(ctx context.Context) ([]models.Book, error)
	CommitOrder(ctx context.Context, commit models.OrderCommit) (models.Order, error)
}

// Result reports what PlaceOrder did. Placed is false when there was
// nothing in stock to buy.
type Result struct {
	Placed bool
	Order  models.Order
}

// Session is one user's checkout. It moves Idle -> Prepared -> Placed;
// preparing again starts over.
type Session struct {
	username string
	repo     Repository
	now      func() time.Time
	log      logrus.FieldLogger

	mu    sync.Mutex
	state State
	draft Draft
	order models.Order
}

func NewSession(username string, repo Repository, logger logrus.FieldLogger) *Session {
	return &Session{
		username: username,
		repo:     repo,
		now:      time.Now,
		log:      logger.WithField("username", username),
	}
}

func (s *Session) Username() string {
	return s.username
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.clone()
}

// Order is the order created by the last successful PlaceOrder.
func (s *Session) Order() (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order, s.state == Placed
}

// Prepare takes one-shot snapshots of the cart and catalog and prices the
// cart against them. Prices and stock stay frozen until the next Prepare.
func (s *Session) Prepare(ctx context.Context) (Draft, error) {
	const op = "checkout.prepare"

	cart, err := s.repo.CartItems(ctx, s.username)
	if err != nil {
		return Draft{}, apperr.E(op, apperr.KindPersistenceFailure, fmt.Errorf("read cart: %w", err))
	}

	books, err := s.repo.Books(ctx)
	if err != nil {
		return Draft{}, apperr.E(op, apperr.KindPersistenceFailure, fmt.Errorf("read catalog: %w", err))
	}

	draft := Price(cart, books)

	s.mu.Lock()
	s.state = Prepared
	s.draft = draft
	s.order = models.Order{}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"lines":    len(draft.Lines),
		"in_stock": len(draft.Purchasable()),
		"total":    draft.Total.StringFixed(2),
	}).Debug("checkout prepared")

	return draft.clone(), nil
}

// Update applies fn to the prepared draft. Only the address may change;
// lines and amounts produced by Prepare are kept.
func (s *Session) Update(fn func(Draft) Draft) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Prepared {
		return Draft{}, apperr.E("checkout.update", apperr.KindInvalid, fmt.Errorf("checkout is %s", s.state))
	}

	next := fn(s.draft.clone())
	s.draft.Address = next.Address
	return s.draft.clone(), nil
}

// UseLocation fills the whole address from loc. When no address can be
// resolved the draft is left as it was.
func (s *Session) UseLocation(ctx context.Context, loc Locator) (Draft, bool, error) {
	address, ok := loc.CurrentAddress(ctx)
	if !ok {
		return s.Draft(), false, nil
	}

	draft, err := s.Update(func(d Draft) Draft { return d.WithAddress(address) })
	if err != nil {
		return Draft{}, false, err
	}
	return draft, true, nil
}

// PlaceOrder buys every in-stock line of the prepared draft at the prices
// captured by Prepare, writes stock back and empties the cart, all in one
// commit. When no line is in stock nothing happens. On failure the
// session stays Prepared with its draft unchanged.
func (s *Session) PlaceOrder(ctx context.Context) (Result, error) {
	const op = "checkout.place"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Prepared {
		return Result{}, apperr.E(op, apperr.KindInvalid, fmt.Errorf("checkout is %s", s.state))
	}

	lines := s.draft.Purchasable()
	if len(lines) == 0 {
		return Result{}, nil
	}

	commit := models.OrderCommit{
		Order: models.Order{
			Username:    s.username,
			OrderDate:   s.now(),
			TotalAmount: s.draft.Total,
		},
		Details: make([]models.OrderDetail, 0, len(lines)),
		Stock:   make([]models.StockChange, 0, len(lines)),
	}
	for _, line := range lines {
		commit.Details = append(commit.Details, models.OrderDetail{
			BookISBN:     line.Book.ISBN13,
			Quantity:     line.Quantity,
			PricePerUnit: line.Book.RetailPrice,
		})
		commit.Stock = append(commit.Stock, models.StockChange{
			Book:     line.Book,
			Quantity: line.Quantity,
		})
	}

	order, err := s.repo.CommitOrder(ctx, commit)
	if err != nil {
		s.log.WithError(err).Warn("place order failed")
		if errors.Is(err, database.ErrInsufficientStock) {
			return Result{}, apperr.E(op, apperr.KindConflict, err)
		}
		return Result{}, apperr.E(op, apperr.KindPersistenceFailure, err)
	}

	s.state = Placed
	s.order = order

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("order placed")

	return Result{Placed: true, Order: order}, nil
}
