package models

type Category struct {
	ID              int               `json:"id,omitempty"`
	ParentID        int               `json:"parent_id,omitempty"`
	Name            string            `json:"name"`
	IsActive        bool              `json:"is_active"`
	Position        int               `json:"position,omitempty"`
	Level           int               `json:"level,omitempty"`
	IncludeInMenu   bool              `json:"include_in_menu"`
	CustomAttributes []CustomAttribute `json:"custom_attributes,omitempty"`
}

type CategoryRequest struct {
	Category *Category `json:"category"`
}

type CategoryList struct {
	Items      []*Category `json:"items"`
	TotalCount int         `json:"total_count"`
}

// ProductLink assigns a product to a category.
type ProductLink struct {
	SKU        string `json:"sku"`
	Position   int    `json:"position"`
	CategoryID string `json:"category_id"`
}

type ProductLinkRequest struct {
	ProductLink *ProductLink `json:"productLink"`
}
