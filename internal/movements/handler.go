package movements

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/stocktrail/stocktrail/internal/catalog"
	"github.com/stocktrail/stocktrail/internal/observability"
	"github.com/stocktrail/stocktrail/internal/platform/httpx"
	"github.com/stocktrail/stocktrail/internal/shared"
)

// Handler wires HTTP endpoints for stock movements.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	products  *catalog.Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs the movements handler.
func NewHandler(logger *slog.Logger, service *Service, products *catalog.Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		products:  products,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers movement routes under /products/{id}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/movements", h.handleApply)
	r.Get("/{id}/movements", h.handleList)
}

type movementForm struct {
	Kind     string `json:"kind" validate:"required,oneof=in out adjust"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var form movementForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "kind must be in/out/adjust and quantity must be positive")
		return
	}

	result, err := h.service.Apply(r.Context(), ApplyInput{
		ProductID: chi.URLParam(r, "id"),
		Kind:      Kind(form.Kind),
		Quantity:  form.Quantity,
		Reason:    form.Reason,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.metrics.ObserveMovement(string(result.Movement.Kind))
	httpx.JSON(w, http.StatusCreated, result)
}

type listResponse struct {
	Product   catalog.Product `json:"product"`
	Movements []Movement      `json:"movements"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		product catalog.Product
		items   []Movement
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		p, err := h.products.Get(ctx, productID)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	g.Go(func() error {
		m, err := h.service.ListByProduct(ctx, productID, limit)
		if err != nil {
			return err
		}
		items = m
		return nil
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Product: product, Movements: items})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductRequired),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrProductNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	default:
		h.logger.Error("movement request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
