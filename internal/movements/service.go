package movements

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrail/stocktrail/internal/catalog"
	"github.com/stocktrail/stocktrail/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListByProduct(ctx context.Context, productID string, limit int) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// InvalidatorPort drops cached product reads after a quantity change.
type InvalidatorPort interface {
	Invalidate(ctx context.Context, id string) error
}

// Service applies stock movements atomically against the product they reference.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache InvalidatorPort
}

// NewService builds Service. Audit and cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache InvalidatorPort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// Result carries the recorded movement and, when the post-commit read-back
// succeeds, the product's current state. Product may be nil on a successful
// application whose read-back failed; the mutation is durable either way.
type Result struct {
	Movement Movement         `json:"movement"`
	Product  *catalog.Product `json:"product,omitempty"`
}

// Apply converts a requested movement into one new movement row plus one
// updated product row, inside a single transaction. The new quantity is
// cur+q for in, cur-q for out and q for adjust, floored at zero. An out
// larger than current stock does not fail; it clamps silently while the
// log keeps the requested quantity.
func (s *Service) Apply(ctx context.Context, input ApplyInput) (Result, error) {
	if input.ProductID == "" {
		return Result{}, ErrProductRequired
	}
	if !input.Kind.Valid() {
		return Result{}, ErrUnknownKind
	}
	if input.Quantity <= 0 {
		return Result{}, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	movement := Movement{
		ID:        uuid.NewString(),
		ProductID: input.ProductID,
		Kind:      input.Kind,
		Quantity:  input.Quantity,
		Reason:    input.Reason,
		CreatedAt: now,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		newQty := product.Quantity
		switch input.Kind {
		case KindIn:
			newQty = product.Quantity + input.Quantity
		case KindOut:
			newQty = product.Quantity - input.Quantity
		case KindAdjust:
			newQty = input.Quantity
		}
		if newQty < 0 {
			newQty = 0
		}
		if err := tx.UpdateProductQuantity(ctx, product.ID, newQty, now); err != nil {
			return err
		}
		return tx.InsertMovement(ctx, movement)
	})
	if err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, input.ProductID)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "movements:" + string(input.Kind),
			Entity:   "stock_movement",
			EntityID: movement.ID,
			Meta: map[string]any{
				"product_id": input.ProductID,
				"quantity":   input.Quantity,
				"reason":     input.Reason,
			},
		})
	}

	result := Result{Movement: movement}
	product, err := s.repo.GetProduct(ctx, input.ProductID)
	if err != nil {
		// Commit already happened; the caller still gets the movement.
		return result, nil
	}
	result.Product = &product
	return result, nil
}

// ListByProduct returns the product's movement log, newest first.
func (s *Service) ListByProduct(ctx context.Context, productID string, limit int) ([]Movement, error) {
	if productID == "" {
		return nil, ErrProductRequired
	}
	return s.repo.ListByProduct(ctx, productID, limit)
}
