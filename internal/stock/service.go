package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/metadata"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/sirupsen/logrus"
)

type Catalog interface {
	Upsert(ctx context.Context, book models.Book) error
	Get(ctx context.Context, isbn string) (*models.Book, error)
}

type Lookup interface {
	Lookup(ctx context.Context, isbn string) (*metadata.Volume, bool)
}

type Service struct {
	catalog  Catalog
	lookup   Lookup
	validate *validator.Validate
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewService(catalog Catalog, lookup Lookup, logger logrus.FieldLogger) *Service {
	return &Service{
		catalog:  catalog,
		lookup:   lookup,
		validate: validator.New(),
		now:      time.Now,
		log:      logger.WithField("component", "stock"),
	}
}

func (s *Service) NewForm() Form {
	return NewForm(s.now())
}

// Edit loads the stored book into a form.
func (s *Service) Edit(ctx context.Context, isbn string) (Form, error) {
	const op = "stock.edit"

	book, err := s.catalog.Get(ctx, isbn)
	if err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			return Form{}, apperr.E(op, apperr.KindNotFound, err)
		}
		return Form{}, apperr.E(op, apperr.KindPersistenceFailure, err)
	}
	return FormFor(*book), nil
}

// FillFromLookup copies the remote description of the form's ISBN into
// it. When the lookup has nothing the form is returned untouched.
func (s *Service) FillFromLookup(ctx context.Context, form Form) (Form, bool) {
	volume, ok := s.lookup.Lookup(ctx, form.ISBN13)
	if !ok {
		return form, false
	}

	return form.
		WithTitle(volume.Title).
		WithAuthor(volume.AuthorLine()).
		WithDescription(volume.Description).
		WithCoverImageURL(volume.CoverURL()), true
}

// Save writes the form to the catalog, replacing any book with the same
// ISBN, and returns a fresh form for the next entry.
func (s *Service) Save(ctx context.Context, form Form) (Form, error) {
	const op = "stock.save"

	if err := s.check(form); err != nil {
		return form, apperr.E(op, apperr.KindInvalid, err)
	}

	if err := s.catalog.Upsert(ctx, form.Book()); err != nil {
		return form, apperr.E(op, apperr.KindPersistenceFailure, err)
	}

	s.log.WithFields(logrus.Fields{
		"isbn":     form.ISBN13,
		"quantity": form.Quantity,
	}).Info("book saved")

	return s.NewForm(), nil
}

func (s *Service) check(form Form) error {
	if err := s.validate.Struct(form); err != nil {
		return err
	}
	if form.TradePrice.IsNegative() {
		return fmt.Errorf("trade price must not be negative")
	}
	if form.RetailPrice.IsNegative() {
		return fmt.Errorf("retail price must not be negative")
	}
	return nil
}
