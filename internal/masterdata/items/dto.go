package items

// CreateItemRequest is the payload for creating an item.
type CreateItemRequest struct {
	Code      string `json:"code" validate:"omitempty,max=30"`
	Name      string `json:"name" validate:"required,max=100"`
	Category  string `json:"category" validate:"omitempty,max=50"`
	Unit      string `json:"unit" validate:"required,max=20"`
	CostPrice string `json:"cost_price" validate:"omitempty"`
	SalePrice string `json:"sale_price" validate:"omitempty"`
	Stock     string `json:"stock" validate:"omitempty"`
	MinStock  string `json:"min_stock" validate:"omitempty"`
}

// UpdateItemRequest is the payload for updating an item. Stock is absent on
// purpose: it moves only through audit postings.
type UpdateItemRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Category  *string `json:"category,omitempty" validate:"omitempty,max=50"`
	Unit      *string `json:"unit,omitempty" validate:"omitempty,max=20"`
	CostPrice *string `json:"cost_price,omitempty"`
	SalePrice *string `json:"sale_price,omitempty"`
	MinStock  *string `json:"min_stock,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}
