package catalog

// CreateProductForm is the payload accepted when registering a product.
// SKU is optional; the service generates one when absent.
type CreateProductForm struct {
	SKU         string `json:"sku"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Unit        string `json:"unit" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
	MinStock    *int64 `json:"min_stock" validate:"omitempty,gte=0"`
	Location    string `json:"location"`
	Supplier    string `json:"supplier"`
}

// ProductPatch carries a partial update. Each field is independently
// settable; nil means "leave unchanged". A patch with no fields set is
// rejected before touching the store.
type ProductPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Unit        *string `json:"unit" validate:"omitempty,min=1"`
	Quantity    *int64  `json:"quantity" validate:"omitempty,gte=0"`
	MinStock    *int64  `json:"min_stock" validate:"omitempty,gte=0"`
	Location    *string `json:"location"`
	Supplier    *string `json:"supplier"`
}

// IsEmpty reports whether the patch sets no fields at all.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil &&
		p.Unit == nil && p.Quantity == nil && p.MinStock == nil &&
		p.Location == nil && p.Supplier == nil
}

// ListFilters narrows and paginates product listings.
type ListFilters struct {
	Search   string
	Category string
	Page     int
	Limit    int
	SortBy   string
	SortDir  string
}
