package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ISBN13          string          `json:"isbn13"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	PublicationDate time.Time       `json:"publication_date"`
	Description     string          `json:"description"`
	CoverImageURL   string          `json:"cover_image_url"`
	TradePrice      decimal.Decimal `json:"trade_price"`
	RetailPrice     decimal.Decimal `json:"retail_price"`
	QuantityInStock int             `json:"quantity_in_stock"`
}

// InStock reports whether the book can be shown on the storefront.
func (b Book) InStock() bool {
	return b.QuantityInStock > 0
}

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
}

type CartItem struct {
	Username string `json:"username"`
	BookISBN string `json:"book_isbn"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID          int64           `json:"order_id"`
	Username    string          `json:"username"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderDetail struct {
	ID            int64           `json:"order_detail_id"`
	ParentOrderID int64           `json:"parent_order_id"`
	BookISBN      string          `json:"book_isbn"`
	Quantity      int             `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
}

// LineTotal is the amount charged for the detail at purchase time.
func (d OrderDetail) LineTotal() decimal.Decimal {
	return d.PricePerUnit.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// OrderDetailWithBook is a read projection joining a detail row with the
// book it references. It is never stored.
type OrderDetailWithBook struct {
	Detail OrderDetail `json:"detail"`
	Book   Book        `json:"book"`
}

// StockChange is one line of a checkout commit's stock write-back. Book
// is the row as it was read when the checkout was prepared.
type StockChange struct {
	Book     Book
	Quantity int
}

// Remaining is the stock left after the change, based on the prepared row.
func (c StockChange) Remaining() Book {
	b := c.Book
	b.QuantityInStock -= c.Quantity
	return b
}

// OrderCommit is everything a checkout writes in one transaction.
type OrderCommit struct {
	Order   Order
	Details []OrderDetail
	Stock   []StockChange
}
