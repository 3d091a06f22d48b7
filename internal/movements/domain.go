package movements

import (
	"errors"
	"time"
)

// Kind enumerates supported stock movements.
type Kind string

const (
	// KindIn represents an inbound movement adding to stock.
	KindIn Kind = "in"
	// KindOut represents an outbound movement subtracting from stock.
	KindOut Kind = "out"
	// KindAdjust sets the stock level to an absolute value.
	KindAdjust Kind = "adjust"
)

// Valid reports whether the kind is one of in/out/adjust.
func (k Kind) Valid() bool {
	switch k {
	case KindIn, KindOut, KindAdjust:
		return true
	}
	return false
}

// Movement is one immutable entry in a product's movement log. Quantity is
// always the requested value: the magnitude for in/out, the absolute target
// for adjust. It is never rewritten to the clamped effect.
type Movement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Kind      Kind      `json:"kind"`
	Quantity  int64     `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ApplyInput describes a requested stock movement.
type ApplyInput struct {
	ProductID string
	Kind      Kind
	Quantity  int64
	Reason    string
}

// ErrProductRequired indicates a missing product reference.
var ErrProductRequired = errors.New("movements: product id required")

// ErrUnknownKind indicates a kind outside in/out/adjust.
var ErrUnknownKind = errors.New("movements: unknown movement kind")

// ErrInvalidQuantity indicates a zero or negative quantity, rejected
// uniformly regardless of kind.
var ErrInvalidQuantity = errors.New("movements: quantity must be positive")

// ErrProductNotFound indicates the referenced product does not exist.
var ErrProductNotFound = errors.New("movements: product not found")
