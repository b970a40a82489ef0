// Package cart implements the shopper-facing cart operations on top of the
// cart and catalog stores.
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Items interface {
	Upsert(ctx context.Context, item models.CartItem) error
	Increment(ctx context.Context, username, isbn string, delta int) (models.CartItem, error)
	Items(ctx context.Context, username string) ([]models.CartItem, error)
	Watch(ctx context.Context, username string) (<-chan []models.CartItem, error)
	Delete(ctx context.Context, username, isbn string) error
	Clear(ctx context.Context, username string) error
}

type Books interface {
	List(ctx context.Context) ([]models.Book, error)
	Watch(ctx context.Context) (<-chan []models.Book, error)
}

type Service struct {
	items    Items
	books    Books
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewService(items Items, books Books, logger logrus.FieldLogger) *Service {
	return &Service{
		items:    items,
		books:    books,
		validate: validator.New(),
		log:      logger.WithField("component", "cart"),
	}
}

type lineKey struct {
	Username string `validate:"required"`
	ISBN     string `validate:"required"`
}

func (s *Service) check(op, username, isbn string) error {
	if err := s.validate.Struct(lineKey{Username: username, ISBN: isbn}); err != nil {
		return apperr.E(op, apperr.KindInvalid, err)
	}
	return nil
}

// AddToCart adds one copy of the book, creating the line if needed.
func (s *Service) AddToCart(ctx context.Context, username, isbn string) (models.CartItem, error) {
	const op = "cart.add"
	if err := s.check(op, username, isbn); err != nil {
		return models.CartItem{}, err
	}

	item, err := s.items.Increment(ctx, username, isbn, 1)
	if err != nil {
		return models.CartItem{}, apperr.E(op, apperr.KindPersistenceFailure, err)
	}

	s.log.WithFields(logrus.Fields{
		"username": username,
		"isbn":     isbn,
		"quantity": item.Quantity,
	}).Debug("added to cart")

	return item, nil
}

// AddScanned adds the book identified by a scanned barcode. A blank scan
// is ignored and reports false.
func (s *Service) AddScanned(ctx context.Context, username, code string) (models.CartItem, bool, error) {
	isbn := strings.TrimSpace(code)
	if isbn == "" {
		return models.CartItem{}, false, nil
	}

	item, err := s.AddToCart(ctx, username, isbn)
	if err != nil {
		return models.CartItem{}, false, err
	}
	return item, true, nil
}

// SetQuantity replaces the line's quantity. Zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, username, isbn string, quantity int) error {
	const op = "cart.set_quantity"
	if err := s.check(op, username, isbn); err != nil {
		return err
	}

	if quantity <= 0 {
		return s.Remove(ctx, username, isbn)
	}

	item := models.CartItem{Username: username, BookISBN: isbn, Quantity: quantity}
	if err := s.items.Upsert(ctx, item); err != nil {
		return apperr.E(op, apperr.KindPersistenceFailure, err)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, username, isbn string) error {
	if err := s.items.Delete(ctx, username, isbn); err != nil {
		return apperr.E("cart.remove", apperr.KindPersistenceFailure, err)
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, username string) error {
	if err := s.items.Clear(ctx, username); err != nil {
		return apperr.E("cart.clear", apperr.KindPersistenceFailure, err)
	}
	return nil
}

// View returns the cart as it is now.
func (s *Service) View(ctx context.Context, username string) (View, error) {
	const op = "cart.view"

	items, err := s.items.Items(ctx, username)
	if err != nil {
		return View{}, apperr.E(op, apperr.KindPersistenceFailure, fmt.Errorf("read cart: %w", err))
	}
	books, err := s.books.List(ctx)
	if err != nil {
		return View{}, apperr.E(op, apperr.KindPersistenceFailure, fmt.Errorf("read catalog: %w", err))
	}

	return Join(items, books), nil
}

// Available filters the catalog down to what the storefront shows.
func Available(books []models.Book) []models.Book {
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if b.InStock() {
			out = append(out, b)
		}
	}
	return out
}

type Line struct {
	Book     models.Book `json:"book"`
	Quantity int         `json:"quantity"`
}

func (l Line) Amount() decimal.Decimal {
	return l.Book.RetailPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type View struct {
	Lines      []Line          `json:"lines"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Join resolves cart lines against the catalog, keeping cart order.
// Lines whose book is gone are left out.
func Join(items []models.CartItem, books []models.Book) View {
	byISBN := make(map[string]models.Book, len(books))
	for _, b := range books {
		byISBN[b.ISBN13] = b
	}

	view := View{Lines: make([]Line, 0, len(items)), TotalPrice: decimal.Zero}
	for _, item := range items {
		book, ok := byISBN[item.BookISBN]
		if !ok {
			continue
		}
		line := Line{Book: book, Quantity: item.Quantity}
		view.Lines = append(view.Lines, line)
		view.ItemCount += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(line.Amount())
	}
	return view
}
