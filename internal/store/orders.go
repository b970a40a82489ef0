package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
)

type Orders struct {
	db  *sql.DB
	hub *hub
}

// InsertWithDetails writes the order header and all of its details in a
// single transaction. The returned copies carry the generated ids.
func (o *Orders) InsertWithDetails(ctx context.Context, order models.Order, details []models.OrderDetail) (models.Order, []models.OrderDetail, error) {
	var (
		saved        models.Order
		savedDetails []models.OrderDetail
	)

	err := database.WithTransaction(ctx, o.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var err error
		saved, savedDetails, err = insertOrderWithDetails(ctx, tx, order, details)
		return err
	})
	if err != nil {
		return models.Order{}, nil, err
	}

	o.hub.orderPlaced(ctx, saved.Username, saved.ID)
	return saved, savedDetails, nil
}

func (o *Orders) Get(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := o.db.QueryRowContext(ctx,
		`SELECT order_id, username, order_date, total_amount
		 FROM orders
		 WHERE order_id = $1`,
		id).Scan(
		&order.ID,
		&order.Username,
		&order.OrderDate,
		&order.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return order, nil
}

// ForUser returns the user's orders, newest first.
func (o *Orders) ForUser(ctx context.Context, username string) ([]models.Order, error) {
	return o.hub.orders.Snapshot(ctx, username)
}

func (o *Orders) WatchForUser(ctx context.Context, username string) (<-chan []models.Order, error) {
	return o.hub.orders.Subscribe(ctx, username)
}

// Details joins the order's lines with their books. Lines whose book no
// longer exists are left out.
func (o *Orders) Details(ctx context.Context, orderID int64) ([]models.OrderDetailWithBook, error) {
	return o.hub.details.Snapshot(ctx, orderID)
}

func (o *Orders) WatchDetails(ctx context.Context, orderID int64) (<-chan []models.OrderDetailWithBook, error) {
	return o.hub.details.Subscribe(ctx, orderID)
}

func insertOrderWithDetails(ctx context.Context, tx *sql.Tx, order models.Order, details []models.OrderDetail) (models.Order, []models.OrderDetail, error) {
	if len(details) == 0 {
		return models.Order{}, nil, database.ErrEmptyOrder
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (username, order_date, total_amount)
		 VALUES ($1, $2, $3)
		 RETURNING order_id`,
		order.Username, order.OrderDate, order.TotalAmount).Scan(&order.ID)
	if err != nil {
		return models.Order{}, nil, fmt.Errorf("create order: %w", err)
	}

	saved := make([]models.OrderDetail, 0, len(details))
	for _, detail := range details {
		detail.ParentOrderID = order.ID

		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_details (parent_order_id, book_isbn, quantity, price_per_unit)
			 VALUES ($1, $2, $3, $4)
			 RETURNING order_detail_id`,
			detail.ParentOrderID, detail.BookISBN, detail.Quantity, detail.PricePerUnit).Scan(&detail.ID)
		if err != nil {
			return models.Order{}, nil, fmt.Errorf("create order detail: %w", err)
		}

		saved = append(saved, detail)
	}

	return order, saved, nil
}

func listOrdersForUser(ctx context.Context, q database.Querier, username string) ([]models.Order, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT order_id, username, order_date, total_amount
		 FROM orders
		 WHERE username = $1
		 ORDER BY order_date DESC, order_id DESC`,
		username)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.Username,
			&order.OrderDate,
			&order.TotalAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func listDetailedOrderInfo(ctx context.Context, q database.Querier, orderID int64) ([]models.OrderDetailWithBook, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT d.order_detail_id, d.parent_order_id, d.book_isbn, d.quantity, d.price_per_unit,
		        b.isbn13, b.title, b.author, b.publication_date, b.description, b.cover_image_url,
		        b.trade_price, b.retail_price, b.quantity_in_stock
		 FROM order_details d
		 INNER JOIN books b ON d.book_isbn = b.isbn13
		 WHERE d.parent_order_id = $1
		 ORDER BY d.order_detail_id ASC`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list order details: %w", err)
	}
	defer rows.Close()

	lines := []models.OrderDetailWithBook{}
	for rows.Next() {
		var line models.OrderDetailWithBook
		err := rows.Scan(
			&line.Detail.ID,
			&line.Detail.ParentOrderID,
			&line.Detail.BookISBN,
			&line.Detail.Quantity,
			&line.Detail.PricePerUnit,
			&line.Book.ISBN13,
			&line.Book.Title,
			&line.Book.Author,
			&line.Book.PublicationDate,
			&line.Book.Description,
			&line.Book.CoverImageURL,
			&line.Book.TradePrice,
			&line.Book.RetailPrice,
			&line.Book.QuantityInStock,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order detail: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}
