package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hospital-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Tx is the set of writes available inside one atomic unit of work.
// Everything done through a Tx either commits as a whole or leaves no trace.
type Tx interface {
	CreateBill(ctx context.Context, bill *models.PurchaseBill) error
	CreateLine(ctx context.Context, line *models.PurchaseLine) error
	ProductForUpdate(ctx context.Context, productID int64) (*models.Product, error)
	SetProductStock(ctx context.Context, productID int64, stock int) error
}

type Store struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewStore creates a new database store
func NewStore(databaseURL string, lockTimeout time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, lockTimeout: lockTimeout}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithinTx runs fn inside one database transaction. Any error from fn
// rolls the transaction back and is returned unchanged; begin/commit
// failures are mapped to domain errors.
func (s *Store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	txx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapDBError(err)
	}
	defer txx.Rollback()

	if s.lockTimeout > 0 {
		timeout := fmt.Sprintf("%d", s.lockTimeout.Milliseconds())
		if _, err := txx.ExecContext(ctx, "SET LOCAL lock_timeout = "+timeout); err != nil {
			return mapDBError(err)
		}
	}

	if err := fn(&sqlTx{tx: txx}); err != nil {
		return err
	}

	if err := txx.Commit(); err != nil {
		return mapDBError(err)
	}
	return nil
}

// sqlTx implements Tx over a live database transaction.
type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) CreateBill(ctx context.Context, bill *models.PurchaseBill) error {
	query := `
		INSERT INTO purchase_bills (
			bill_no, cashier_id, customer_id, customer_name, customer_contact,
			net_total, total_amount, total_discount, amount_received,
			remain_amount, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := t.tx.GetContext(ctx, bill, query,
		bill.BillNo, bill.CashierID, bill.CustomerID, bill.CustomerName,
		bill.CustomerContact, bill.NetTotal, bill.TotalAmount,
		bill.TotalDiscount, bill.AmountReceived, bill.RemainAmount,
		bill.IdempotencyKey)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

func (t *sqlTx) CreateLine(ctx context.Context, line *models.PurchaseLine) error {
	query := `
		INSERT INTO purchase_lines (bill_id, product_id, quantity, unit_price, discount, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := t.tx.GetContext(ctx, &line.ID, query,
		line.BillID, line.ProductID, line.Quantity, line.UnitPrice,
		line.Discount, line.LineTotal)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// ProductForUpdate reads one product under a row-level lock, serializing
// concurrent stock adjustments to the same product. Rows for different
// products do not contend.
func (t *sqlTx) ProductForUpdate(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := t.tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 FOR UPDATE", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", models.ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return &product, nil
}

func (t *sqlTx) SetProductStock(ctx context.Context, productID int64, stock int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2",
		stock, productID)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", models.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return &product, nil
}

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	if err != nil {
		return nil, mapDBError(err)
	}
	return products, nil
}

// UpdateProductThreshold updates a product's low-stock threshold.
func (s *Store) UpdateProductThreshold(ctx context.Context, id int64, threshold int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET low_stock_threshold = $1, updated_at = NOW() WHERE id = $2",
		threshold, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", models.ErrProductNotFound, id)
	}
	return nil
}

// mapDBError translates driver errors into domain errors. Lock and
// serialization failures are retryable by the caller.
func mapDBError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", models.ErrConcurrencyConflict, err)
		}
	}
	return fmt.Errorf("%w: %v", models.ErrPersistence, err)
}
