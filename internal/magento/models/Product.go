package models

// Product is the catalog product wire format of the store REST API.
type Product struct {
	ID                  int                  `json:"id,omitempty"`
	SKU                 string               `json:"sku"`
	Name                string               `json:"name,omitempty"`
	AttributeSetID      int                  `json:"attribute_set_id,omitempty"`
	Price               float64              `json:"price,omitempty"`
	Status              int                  `json:"status,omitempty"`
	Visibility          int                  `json:"visibility,omitempty"`
	TypeID              string               `json:"type_id,omitempty"`
	Weight              float64              `json:"weight,omitempty"`
	ExtensionAttributes *ProductExtension    `json:"extension_attributes,omitempty"`
	CustomAttributes    []CustomAttribute    `json:"custom_attributes,omitempty"`
}

type ProductExtension struct {
	WebsiteIDs                 []int                 `json:"website_ids,omitempty"`
	StockItem                  *StockItem            `json:"stock_item,omitempty"`
	CategoryLinks              []CategoryLink        `json:"category_links,omitempty"`
	ConfigurableProductLinks   []int                 `json:"configurable_product_links,omitempty"`
	ConfigurableProductOptions []*ConfigurableOption `json:"configurable_product_options,omitempty"`
}

type StockItem struct {
	Qty         int  `json:"qty"`
	IsInStock   bool `json:"is_in_stock"`
	ManageStock bool `json:"manage_stock"`
}

type CategoryLink struct {
	CategoryID string `json:"category_id"`
	Position   int    `json:"position"`
}

type ConfigurableOption struct {
	AttributeID string                    `json:"attribute_id"`
	Label       string                    `json:"label"`
	Position    int                       `json:"position"`
	Values      []ConfigurableOptionValue `json:"values"`
}

type ConfigurableOptionValue struct {
	ValueIndex int `json:"value_index"`
}

type CustomAttribute struct {
	AttributeCode string      `json:"attribute_code"`
	Value         interface{} `json:"value"`
}

// ProductRequest is the envelope for create/update calls.
type ProductRequest struct {
	Product     *Product `json:"product"`
	SaveOptions bool     `json:"saveOptions,omitempty"`
}

// ProductList is one page of a filtered listing.
type ProductList struct {
	Items      []*Product `json:"items"`
	TotalCount int        `json:"total_count"`
}

// Status and visibility codes of the store API.
const (
	StatusEnabled  = 1
	StatusDisabled = 2

	VisibilityNotVisible    = 1
	VisibilityCatalog       = 2
	VisibilitySearch        = 3
	VisibilityCatalogSearch = 4
)
