// Package seed loads the fixed users and books a fresh bookshop starts
// with.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/safar/go-bookshop/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var defaultData []byte

type fileUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

type fileBook struct {
	ISBN13      string `yaml:"isbn13"`
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Published   string `yaml:"published"`
	Description string `yaml:"description"`
	Cover       string `yaml:"cover"`
	TradePrice  string `yaml:"trade_price"`
	RetailPrice string `yaml:"retail_price"`
	Stock       int    `yaml:"stock"`
}

type file struct {
	Users []fileUser `yaml:"users"`
	Books []fileBook `yaml:"books"`
}

// Account is a seed user before its password is hashed.
type Account struct {
	Username string
	Password string
	IsAdmin  bool
}

type Data struct {
	Accounts []Account
	Books    []models.Book
}

func Default() (*Data, error) {
	return Parse(defaultData)
}

func Parse(raw []byte) (*Data, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	data := &Data{}
	for _, u := range f.Users {
		data.Accounts = append(data.Accounts, Account{
			Username: u.Username,
			Password: u.Password,
			IsAdmin:  u.Admin,
		})
	}

	for _, b := range f.Books {
		book, err := b.toBook()
		if err != nil {
			return nil, fmt.Errorf("seed book %s: %w", b.ISBN13, err)
		}
		data.Books = append(data.Books, book)
	}

	return data, nil
}

func (b fileBook) toBook() (models.Book, error) {
	published, err := time.Parse(time.DateOnly, b.Published)
	if err != nil {
		return models.Book{}, fmt.Errorf("parse published: %w", err)
	}

	trade, err := decimal.NewFromString(b.TradePrice)
	if err != nil {
		return models.Book{}, fmt.Errorf("parse trade price: %w", err)
	}

	retail, err := decimal.NewFromString(b.RetailPrice)
	if err != nil {
		return models.Book{}, fmt.Errorf("parse retail price: %w", err)
	}

	if len(b.ISBN13) != 13 {
		return models.Book{}, fmt.Errorf("isbn must have 13 characters")
	}

	return models.Book{
		ISBN13:          b.ISBN13,
		Title:           b.Title,
		Author:          b.Author,
		PublicationDate: published,
		Description:     b.Description,
		CoverImageURL:   b.Cover,
		TradePrice:      trade,
		RetailPrice:     retail,
		QuantityInStock: b.Stock,
	}, nil
}

// Target is where seed rows are written. Existing rows are never
// overwritten.
type Target interface {
	Seed(ctx context.Context, users []models.User, books []models.Book) (int, int, error)
}

type PasswordHasher func(password string) (string, error)

// Run hashes the seed passwords and writes users and books to target.
func Run(ctx context.Context, target Target, data *Data, hash PasswordHasher, logger logrus.FieldLogger) error {
	users := make([]models.User, 0, len(data.Accounts))
	for _, account := range data.Accounts {
		hashed, err := hash(account.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", account.Username, err)
		}
		users = append(users, models.User{
			Username:     account.Username,
			PasswordHash: hashed,
			IsAdmin:      account.IsAdmin,
		})
	}

	usersAdded, booksAdded, err := target.Seed(ctx, users, data.Books)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"users_added": usersAdded,
		"books_added": booksAdded,
	}).Info("seed data applied")

	return nil
}
