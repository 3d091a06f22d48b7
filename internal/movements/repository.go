package movements

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktrail/stocktrail/internal/catalog"
	"github.com/stocktrail/stocktrail/internal/platform/db"
)

// Repository persists movement data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id string) (catalog.Product, error)
	UpdateProductQuantity(ctx context.Context, id string, quantity int64, updatedAt time.Time) error
	InsertMovement(ctx context.Context, movement Movement) error
}

type txRepository struct {
	tx pgx.Tx
}

const productColumns = `id, sku, name, description, category, unit, quantity, min_stock, location, supplier, created_at, updated_at`

// WithTx executes the callback inside a repeatable-read transaction. The
// FOR UPDATE read below makes conflicting movements against the same
// product serialize instead of racing on the quantity.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("movements repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetProduct reads the product outside any transaction, for post-commit read-back.
func (r *Repository) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// ListByProduct returns movements newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID string, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, kind, quantity, reason, created_at
FROM stock_movements
WHERE product_id = $1
ORDER BY created_at DESC, id
LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Kind, &m.Quantity, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id string) (catalog.Product, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, ErrProductNotFound
		}
		return catalog.Product{}, err
	}
	return product, nil
}

func (r *txRepository) UpdateProductQuantity(ctx context.Context, id string, quantity int64, updatedAt time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = $2 WHERE id = $3`, quantity, updatedAt, id)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, movement Movement) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_movements (id, product_id, kind, quantity, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		movement.ID, movement.ProductID, string(movement.Kind), movement.Quantity, movement.Reason, movement.CreatedAt)
	return err
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Unit,
		&p.Quantity, &p.MinStock, &p.Location, &p.Supplier, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
