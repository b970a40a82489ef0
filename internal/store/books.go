package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
)

const bookColumns = `isbn13, title, author, publication_date, description, cover_image_url,
	trade_price, retail_price, quantity_in_stock`

type Catalog struct {
	db  *sql.DB
	hub *hub
}

// Upsert inserts the book or replaces every column of the row with the
// same ISBN.
func (c *Catalog) Upsert(ctx context.Context, book models.Book) error {
	if err := upsertBook(ctx, c.db, book); err != nil {
		return err
	}
	c.hub.booksChanged(ctx)
	return nil
}

func (c *Catalog) Get(ctx context.Context, isbn string) (*models.Book, error) {
	return getBook(ctx, c.db, isbn)
}

// List returns all books ordered by title.
func (c *Catalog) List(ctx context.Context) ([]models.Book, error) {
	return c.hub.books.Snapshot(ctx)
}

func (c *Catalog) Watch(ctx context.Context) (<-chan []models.Book, error) {
	return c.hub.books.Subscribe(ctx)
}

// UpdateMany replaces every given row in one transaction. A book that
// does not exist aborts the whole batch.
func (c *Catalog) UpdateMany(ctx context.Context, books []models.Book) error {
	err := database.WithTransaction(ctx, c.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		for _, book := range books {
			if err := updateBook(ctx, tx, book); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.hub.booksChanged(ctx)
	return nil
}

func upsertBook(ctx context.Context, q database.Querier, book models.Book) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (isbn13) DO UPDATE SET
		     title = EXCLUDED.title,
		     author = EXCLUDED.author,
		     publication_date = EXCLUDED.publication_date,
		     description = EXCLUDED.description,
		     cover_image_url = EXCLUDED.cover_image_url,
		     trade_price = EXCLUDED.trade_price,
		     retail_price = EXCLUDED.retail_price,
		     quantity_in_stock = EXCLUDED.quantity_in_stock`,
		book.ISBN13, book.Title, book.Author, book.PublicationDate, book.Description,
		book.CoverImageURL, book.TradePrice, book.RetailPrice, book.QuantityInStock)
	if err != nil {
		return fmt.Errorf("upsert book %s: %w", book.ISBN13, err)
	}
	return nil
}

// insertBookIfAbsent never overwrites an existing row.
func insertBookIfAbsent(ctx context.Context, q database.Querier, book models.Book) (bool, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (isbn13) DO NOTHING`,
		book.ISBN13, book.Title, book.Author, book.PublicationDate, book.Description,
		book.CoverImageURL, book.TradePrice, book.RetailPrice, book.QuantityInStock)
	if err != nil {
		return false, fmt.Errorf("insert book %s: %w", book.ISBN13, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func updateBook(ctx context.Context, q database.Querier, book models.Book) error {
	result, err := q.ExecContext(ctx,
		`UPDATE books
		 SET title = $2, author = $3, publication_date = $4, description = $5,
		     cover_image_url = $6, trade_price = $7, retail_price = $8,
		     quantity_in_stock = $9
		 WHERE isbn13 = $1`,
		book.ISBN13, book.Title, book.Author, book.PublicationDate, book.Description,
		book.CoverImageURL, book.TradePrice, book.RetailPrice, book.QuantityInStock)
	if err != nil {
		return fmt.Errorf("update book %s: %w", book.ISBN13, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update book %s: %w", book.ISBN13, database.ErrBookNotFound)
	}

	return nil
}

func decrementStock(ctx context.Context, q database.Querier, isbn string, quantity int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE books
		 SET quantity_in_stock = quantity_in_stock - $1
		 WHERE isbn13 = $2
		   AND quantity_in_stock >= $1`,
		quantity, isbn)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("decrement stock %s: %w", isbn, database.ErrInsufficientStock)
	}

	return nil
}

func getBook(ctx context.Context, q database.Querier, isbn string) (*models.Book, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+bookColumns+`
		 FROM books
		 WHERE isbn13 = $1`, isbn)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return &book, nil
}

func listBooks(ctx context.Context, q database.Querier) ([]models.Book, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+bookColumns+`
		 FROM books
		 ORDER BY title ASC, isbn13 ASC`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return books, nil
}

func scanBook(row rowScanner) (models.Book, error) {
	var book models.Book
	err := row.Scan(
		&book.ISBN13,
		&book.Title,
		&book.Author,
		&book.PublicationDate,
		&book.Description,
		&book.CoverImageURL,
		&book.TradePrice,
		&book.RetailPrice,
		&book.QuantityInStock,
	)
	return book, err
}
