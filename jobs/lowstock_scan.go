package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LowStockScanner reports products at or below their minimum-stock threshold.
// The threshold is informational: movements are never blocked by it, so the
// sweep is the only place it surfaces.
type LowStockScanner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLowStockScanner constructs the scanner.
func NewLowStockScanner(pool *pgxpool.Pool, logger *slog.Logger) *LowStockScanner {
	return &LowStockScanner{pool: pool, logger: logger}
}

// HandleTask processes TaskLowStockScan tasks.
func (s *LowStockScanner) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	rows, err := s.pool.Query(ctx, `SELECT id, sku, name, quantity, min_stock
FROM products
WHERE min_stock IS NOT NULL AND quantity <= min_stock
ORDER BY quantity ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id, sku, name string
			quantity      int64
			minStock      int64
		)
		if err := rows.Scan(&id, &sku, &name, &quantity, &minStock); err != nil {
			return err
		}
		count++
		s.logger.Warn("product below minimum stock",
			slog.String("product_id", id),
			slog.String("sku", sku),
			slog.String("name", name),
			slog.Int64("quantity", quantity),
			slog.Int64("min_stock", minStock))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.logger.Info("low stock scan finished", slog.Int("flagged", count))
	return nil
}
