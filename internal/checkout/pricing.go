package checkout

import (
	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
)

var (
	postageFirstLine      = decimal.RequireFromString("3.00")
	postageAdditionalLine = decimal.RequireFromString("1.00")
)

type StockKind int

const (
	InStock StockKind = iota
	InsufficientStock
)

func (k StockKind) String() string {
	if k == InStock {
		return "in_stock"
	}
	return "insufficient_stock"
}

// StockStatus classifies a cart line against the stock seen at prepare
// time. Available is only meaningful for InsufficientStock.
type StockStatus struct {
	Kind      StockKind
	Available int
}

// Line is a cart line resolved against the catalog.
type Line struct {
	Book     models.Book
	Quantity int
	Status   StockStatus
}

func (l Line) InStock() bool {
	return l.Status.Kind == InStock
}

func (l Line) Amount() decimal.Decimal {
	return l.Book.RetailPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func classify(book models.Book, quantity int) StockStatus {
	if book.QuantityInStock >= quantity {
		return StockStatus{Kind: InStock}
	}
	return StockStatus{Kind: InsufficientStock, Available: book.QuantityInStock}
}

// Postage charges a flat fee for the first distinct line and a smaller fee
// for each further line, regardless of unit counts.
func Postage(inStockLines int) decimal.Decimal {
	if inStockLines <= 0 {
		return decimal.Zero
	}
	extra := decimal.NewFromInt(int64(inStockLines - 1))
	return postageFirstLine.Add(postageAdditionalLine.Mul(extra))
}

// Price resolves cart lines against the catalog and totals the lines that
// can be fulfilled. Lines whose book is not in the catalog are dropped.
func Price(cart []models.CartItem, books []models.Book) Draft {
	byISBN := make(map[string]models.Book, len(books))
	for _, b := range books {
		byISBN[b.ISBN13] = b
	}

	draft := Draft{Lines: make([]Line, 0, len(cart))}
	subtotal := decimal.Zero
	inStock := 0

	for _, item := range cart {
		book, ok := byISBN[item.BookISBN]
		if !ok {
			continue
		}

		line := Line{
			Book:     book,
			Quantity: item.Quantity,
			Status:   classify(book, item.Quantity),
		}
		if line.InStock() {
			subtotal = subtotal.Add(line.Amount())
			inStock++
		}
		draft.Lines = append(draft.Lines, line)
	}

	draft.Subtotal = subtotal
	draft.Postage = Postage(inStock)
	draft.Total = subtotal.Add(draft.Postage)

	return draft
}
