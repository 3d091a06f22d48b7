package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrail/stocktrail/internal/shared"
)

type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get reads a single product, cache first.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.Set(ctx, p)
	return p, nil
}

// Create registers a product with a server-generated id, generating a SKU
// when the form does not supply one. Quantity defaults to zero.
func (s *Service) Create(ctx context.Context, form CreateProductForm) (Product, error) {
	if err := validateForm(form); err != nil {
		return Product{}, err
	}
	sku := strings.TrimSpace(form.SKU)
	if sku == "" {
		sku = generateSKU()
	}
	product := Product{
		ID:          uuid.NewString(),
		SKU:         sku,
		Name:        strings.TrimSpace(form.Name),
		Description: form.Description,
		Category:    form.Category,
		Unit:        strings.TrimSpace(form.Unit),
		Quantity:    form.Quantity,
		MinStock:    form.MinStock,
		Location:    form.Location,
		Supplier:    form.Supplier,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// Patch applies a partial update and returns the refreshed product.
func (s *Service) Patch(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if patch.IsEmpty() {
		return Product{}, shared.ErrEmptyUpdate
	}
	if err := validatePatch(patch); err != nil {
		return Product{}, err
	}
	if err := s.repo.Patch(ctx, id, patch, time.Now().UTC()); err != nil {
		return Product{}, err
	}
	_ = s.cache.Invalidate(ctx, id)
	return s.repo.Get(ctx, id)
}

// Delete removes the product and, through the store cascade, its movements.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, id)
}

func generateSKU() string {
	return "SKU-" + strings.ToUpper(uuid.NewString()[:8])
}
