package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks caller errors rejected before any store access.
var ErrInvalidInput = errors.New("catalog: invalid input")

func validateForm(form CreateProductForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(form.Unit) == "" {
		return fmt.Errorf("%w: product unit is required", ErrInvalidInput)
	}
	if form.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if form.MinStock != nil && *form.MinStock < 0 {
		return fmt.Errorf("%w: min_stock must not be negative", ErrInvalidInput)
	}
	return nil
}

func validatePatch(patch ProductPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: product name must not be empty", ErrInvalidInput)
	}
	if patch.Unit != nil && strings.TrimSpace(*patch.Unit) == "" {
		return fmt.Errorf("%w: product unit must not be empty", ErrInvalidInput)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if patch.MinStock != nil && *patch.MinStock < 0 {
		return fmt.Errorf("%w: min_stock must not be negative", ErrInvalidInput)
	}
	return nil
}
