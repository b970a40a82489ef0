// Package stock backs the admin screen that adds books to the catalog or
// edits them.
package stock

import (
	"time"

	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
)

var (
	defaultTradePrice  = decimal.NewFromInt(10)
	defaultRetailPrice = decimal.NewFromInt(15)
)

const defaultQuantity = 5

// Form is the admin's draft of a catalog entry. Setters return a changed
// copy.
type Form struct {
	ISBN13          string          `json:"isbn13" validate:"len=13"`
	Title           string          `json:"title" validate:"required"`
	Author          string          `json:"author"`
	PublicationDate time.Time       `json:"publication_date"`
	Description     string          `json:"description"`
	CoverImageURL   string          `json:"cover_image_url" validate:"omitempty,url"`
	TradePrice      decimal.Decimal `json:"trade_price"`
	RetailPrice     decimal.Decimal `json:"retail_price"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
}

// NewForm returns a blank form with the shop's defaults.
func NewForm(now time.Time) Form {
	return Form{
		PublicationDate: now,
		TradePrice:      defaultTradePrice,
		RetailPrice:     defaultRetailPrice,
		Quantity:        defaultQuantity,
	}
}

// FormFor loads an existing book for editing.
func FormFor(b models.Book) Form {
	return Form{
		ISBN13:          b.ISBN13,
		Title:           b.Title,
		Author:          b.Author,
		PublicationDate: b.PublicationDate,
		Description:     b.Description,
		CoverImageURL:   b.CoverImageURL,
		TradePrice:      b.TradePrice,
		RetailPrice:     b.RetailPrice,
		Quantity:        b.QuantityInStock,
	}
}

func (f Form) WithISBN(v string) Form {
	f.ISBN13 = v
	return f
}

func (f Form) WithTitle(v string) Form {
	f.Title = v
	return f
}

func (f Form) WithAuthor(v string) Form {
	f.Author = v
	return f
}

func (f Form) WithPublicationDate(v time.Time) Form {
	f.PublicationDate = v
	return f
}

func (f Form) WithDescription(v string) Form {
	f.Description = v
	return f
}

func (f Form) WithCoverImageURL(v string) Form {
	f.CoverImageURL = v
	return f
}

func (f Form) WithTradePrice(v decimal.Decimal) Form {
	f.TradePrice = v
	return f
}

func (f Form) WithRetailPrice(v decimal.Decimal) Form {
	f.RetailPrice = v
	return f
}

func (f Form) WithQuantity(v int) Form {
	f.Quantity = v
	return f
}

func (f Form) Book() models.Book {
	return models.Book{
		ISBN13:          f.ISBN13,
		Title:           f.Title,
		Author:          f.Author,
		PublicationDate: f.PublicationDate,
		Description:     f.Description,
		CoverImageURL:   f.CoverImageURL,
		TradePrice:      f.TradePrice,
		RetailPrice:     f.RetailPrice,
		QuantityInStock: f.Quantity,
	}
}
