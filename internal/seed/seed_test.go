package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/safar/go-bookshop/internal/logging"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultData(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)

	require.Len(t, data.Accounts, 3)
	admins := 0
	for _, a := range data.Accounts {
		assert.Equal(t, "p455w0rd", a.Password)
		if a.IsAdmin {
			admins++
			assert.Equal(t, "admin", a.Username)
		}
	}
	assert.Equal(t, 1, admins)

	require.Len(t, data.Books, 10)
	seen := map[string]bool{}
	for _, b := range data.Books {
		assert.Len(t, b.ISBN13, 13)
		assert.False(t, seen[b.ISBN13], "duplicate isbn %s", b.ISBN13)
		seen[b.ISBN13] = true
		assert.True(t, b.RetailPrice.GreaterThan(b.TradePrice), b.Title)
	}

	first := data.Books[0]
	assert.Equal(t, "The Thursday Murder Club", first.Title)
	assert.True(t, first.RetailPrice.Equal(decimal.RequireFromString("10.99")))
	assert.Equal(t, 15, first.QuantityInStock)
	assert.Equal(t, 2020, first.PublicationDate.Year())
}

func TestParseRejectsBadPrice(t *testing.T) {
	raw := `
books:
  - isbn13: "9780000000000"
    title: Broken
    published: "2020-01-01"
    trade_price: "abc"
    retail_price: "1.00"
`
	_, err := Parse([]byte(raw))
	assert.ErrorContains(t, err, "trade price")
}

type recordingTarget struct {
	users []models.User
	books []models.Book
}

func (r *recordingTarget) Seed(_ context.Context, users []models.User, books []models.Book) (int, int, error) {
	r.users = users
	r.books = books
	return len(users), len(books), nil
}

func TestRunHashesPasswords(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)

	target := &recordingTarget{}
	hash := func(p string) (string, error) { return "hashed:" + strings.ToUpper(p), nil }

	require.NoError(t, Run(context.Background(), target, data, hash, logging.Discard()))

	require.Len(t, target.users, 3)
	for _, u := range target.users {
		assert.Equal(t, "hashed:P455W0RD", u.PasswordHash)
	}
	assert.Len(t, target.books, 10)
}
