package catalog

import (
	"github.com/shopspring/decimal"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

const (
	VisibilityNotVisible    = "not_visible"
	VisibilityCatalog       = "catalog"
	VisibilitySearch        = "search"
	VisibilityCatalogSearch = "catalog_search"
)

const (
	StockInStock    = "in_stock"
	StockOutOfStock = "out_of_stock"
)

const (
	TypeSimple       = "simple"
	TypeConfigurable = "configurable"
)

// SourceRow is one raw CSV record after column canonicalization.
type SourceRow struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
	Extra  map[string]string `json:"extra,omitempty"`
	Short  bool              `json:"short,omitempty"`
}

// Product is the normalized record. Mutated only during normalization,
// read-only input for every migration stage afterwards.
type Product struct {
	Row              int               `json:"row"`
	SKU              string            `json:"sku"`
	Name             string            `json:"name"`
	Price            decimal.Decimal   `json:"price"`
	Weight           decimal.Decimal   `json:"weight"`
	Status           string            `json:"status"`
	Visibility       string            `json:"visibility"`
	TaxClassID       int               `json:"tax_class_id"`
	TypeID           string            `json:"type_id"`
	AttributeSet     string            `json:"attribute_set,omitempty"`
	AttributeSetID   int               `json:"attribute_set_id"`
	Qty              int               `json:"qty"`
	StockStatus      string            `json:"stock_status"`
	ManageStock      bool              `json:"manage_stock"`
	Description      string            `json:"description,omitempty"`
	ShortDescription string            `json:"short_description,omitempty"`
	URLKey           string            `json:"url_key"`
	CategoryPath     []string          `json:"category_path,omitempty"`
	CustomAttributes map[string]string `json:"custom_attributes,omitempty"`
	MediaRefs        []string          `json:"media_refs,omitempty"`
	VariantSKUs      []string          `json:"variant_skus,omitempty"`
	VariantAttrs     []string          `json:"variant_attrs,omitempty"`
}

// AttributeSpec describes a custom attribute the target store must carry
// before products referencing it are migrated.
type AttributeSpec struct {
	Code          string   `json:"code"`
	Label         string   `json:"label"`
	Scope         string   `json:"scope"`
	Type          string   `json:"type"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

type Category struct {
	Name          string `json:"name"`
	Parent        string `json:"parent,omitempty"`
	Position      int    `json:"position"`
	IsActive      bool   `json:"is_active"`
	IncludeInMenu bool   `json:"include_in_menu"`
}

// ImageFile is a raw file discovered in the images directory.
// Index is the position parsed out of a trailing _N suffix; base.jpg is 0.
type ImageFile struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	BaseRef string `json:"base_ref"`
	Index   int    `json:"index"`
}

type Role string

const (
	RoleMain    Role = "main"
	RoleGallery Role = "gallery"
)

// MediaBinding assigns one file to one (sku, position) slot.
type MediaBinding struct {
	SKU      string    `json:"sku"`
	Position int       `json:"position"`
	File     ImageFile `json:"file"`
	Role     Role      `json:"role"`
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one validation finding, always tied back to the source row.
type Diagnostic struct {
	Row      int      `json:"row"`
	SKU      string   `json:"sku,omitempty"`
	Field    string   `json:"field"`
	Value    string   `json:"value,omitempty"`
	Severity Severity `json:"severity"`
	Action   string   `json:"action,omitempty"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
}

// Catalog is the normalized model handed to the orchestrator.
type Catalog struct {
	Products   []*Product                `json:"products"`
	Attributes map[string]*AttributeSpec `json:"attributes,omitempty"`

	bySKU map[string]*Product
}

func NewCatalog() *Catalog {
	return &Catalog{
		Attributes: make(map[string]*AttributeSpec),
		bySKU:      make(map[string]*Product),
	}
}

func (c *Catalog) Add(p *Product) {
	c.Products = append(c.Products, p)
	c.bySKU[p.SKU] = p
}

func (c *Catalog) BySKU(sku string) (*Product, bool) {
	if c.bySKU == nil {
		c.reindex()
	}
	p, ok := c.bySKU[sku]
	return p, ok
}

// reindex rebuilds the sku index after JSON unmarshal.
func (c *Catalog) reindex() {
	c.bySKU = make(map[string]*Product, len(c.Products))
	for _, p := range c.Products {
		c.bySKU[p.SKU] = p
	}
}

func (c *Catalog) Simples() []*Product {
	out := make([]*Product, 0, len(c.Products))
	for _, p := range c.Products {
		if p.TypeID == TypeSimple {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Configurables() []*Product {
	var out []*Product
	for _, p := range c.Products {
		if p.TypeID == TypeConfigurable {
			out = append(out, p)
		}
	}
	return out
}
