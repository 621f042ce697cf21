package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/config"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

var skuRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Defaults are the field fallbacks applied when a source column is
// missing or empty.
type Defaults struct {
	Status         string
	Visibility     string
	TaxClassID     int
	Weight         decimal.Decimal
	AttributeSetID int
	TypeID         string
	StockStatus    string
	ManageStock    bool
	Qty            int
	Price          decimal.Decimal
}

type Options struct {
	Defaults      Defaults
	MinPrice      decimal.Decimal
	PriceDefaults *PriceDefaults

	// Brands nil means the brand set is open (no canonicalization).
	Brands *AliasSet
	Colors *AliasSet

	ThousandsSeparator string

	MaxNameLen   int
	MaxShortLen  int
	MaxDescLen   int
	MaxURLKeyLen int

	AttributeScope string
}

// OptionsFromConfig maps the gcfg sections onto normalization options.
func OptionsFromConfig(cfg *config.Config) Options {
	defPrice, _ := decimal.NewFromString(cfg.PRODUCT.Price)
	defWeight, _ := decimal.NewFromString(cfg.PRODUCT.Weight)
	minPrice, _ := decimal.NewFromString(cfg.PRODUCT.MinPrice)

	colors := DefaultColors()
	if len(cfg.CATALOG.Color) > 0 {
		colors = ParseAliasSpecs(cfg.CATALOG.Color)
	}
	var brands *AliasSet
	if len(cfg.CATALOG.Brand) > 0 {
		brands = ParseAliasSpecs(cfg.CATALOG.Brand)
	}

	return Options{
		Defaults: Defaults{
			Status:         cfg.PRODUCT.Status,
			Visibility:     cfg.PRODUCT.Visibility,
			TaxClassID:     cfg.PRODUCT.TaxClassID,
			Weight:         defWeight,
			AttributeSetID: cfg.PRODUCT.AttributeSetID,
			TypeID:         cfg.PRODUCT.TypeID,
			StockStatus:    cfg.PRODUCT.StockStatus,
			ManageStock:    cfg.PRODUCT.ManageStock,
			Qty:            cfg.PRODUCT.Qty,
			Price:          defPrice,
		},
		MinPrice:           minPrice,
		PriceDefaults:      ParsePriceDefaults(cfg.CATALOG.PriceDefault, defPrice),
		Brands:             brands,
		Colors:             colors,
		ThousandsSeparator: cfg.LOCALE.ThousandsSeparator,
		MaxNameLen:         cfg.CATALOG.MaxNameLen,
		MaxShortLen:        cfg.CATALOG.MaxShortLen,
		MaxDescLen:         cfg.CATALOG.MaxDescLen,
		MaxURLKeyLen:       cfg.CATALOG.MaxURLKeyLen,
		AttributeScope:     cfg.ATTRIBUTE.Scope,
	}
}

// Normalizer turns source rows into the normalized catalog, emitting one
// diagnostic per finding. A row with an error-severity diagnostic yields
// no product; info/warning diagnostics accompany the product.
type Normalizer struct {
	opts Options

	seenSKU map[string]int
	urlKeys *uniqueKeys
}

func New(opts Options) *Normalizer {
	if opts.MaxNameLen == 0 {
		opts.MaxNameLen = 255
	}
	if opts.MaxShortLen == 0 {
		opts.MaxShortLen = 500
	}
	if opts.MaxDescLen == 0 {
		opts.MaxDescLen = 2000
	}
	if opts.MaxURLKeyLen == 0 {
		opts.MaxURLKeyLen = 50
	}
	return &Normalizer{
		opts:    opts,
		seenSKU: make(map[string]int),
		urlKeys: newUniqueKeys(opts.MaxURLKeyLen),
	}
}

// Run processes every row in order. The returned catalog also carries the
// attribute specs the attribute stage must ensure on the target store.
func (n *Normalizer) Run(rows []catalog.SourceRow) (*catalog.Catalog, []catalog.Diagnostic) {
	logger := logging.GetLogger()
	logger.Debugf("Start Normalizer.Run; rows=%d", len(rows))
	defer logger.Debug("End Normalizer.Run")

	cat := catalog.NewCatalog()
	var diags []catalog.Diagnostic

	for _, row := range rows {
		p, rowDiags := n.NormalizeRow(row)
		diags = append(diags, rowDiags...)
		if p != nil {
			cat.Add(p)
			n.registerAttributeSpecs(cat, p)
		}
	}

	logger.Infof("normalized %d of %d rows, %d diagnostics", len(cat.Products), len(rows), len(diags))
	return cat, diags
}

// NormalizeRow applies the full rule order: clean, default, canonicalize,
// derive url key, uniqueness.
func (n *Normalizer) NormalizeRow(row catalog.SourceRow) (*catalog.Product, []catalog.Diagnostic) {
	var diags []catalog.Diagnostic

	fail := func(field, value, msg, hint string) (*catalog.Product, []catalog.Diagnostic) {
		diags = append(diags, catalog.Diagnostic{
			Row: row.Index, SKU: strings.TrimSpace(row.Fields["sku"]),
			Field: field, Value: value,
			Severity: catalog.SeverityError, Action: "rejected",
			Message: msg, Hint: hint,
		})
		return nil, diags
	}
	info := func(sku, field, value, action, msg string) {
		diags = append(diags, catalog.Diagnostic{
			Row: row.Index, SKU: sku, Field: field, Value: value,
			Severity: catalog.SeverityInfo, Action: action, Message: msg,
		})
	}

	if row.Short {
		diags = append(diags, catalog.Diagnostic{
			Row: row.Index, Field: "*", Severity: catalog.SeverityWarning,
			Message: "row has fewer fields than the header",
			Hint:    "check for unquoted separators in the source file",
		})
	}

	sku := strings.TrimSpace(row.Fields["sku"])
	if sku == "" {
		return fail("sku", "", "missing sku", "every row needs a sku (or ref/reference/code) value")
	}
	if !skuRe.MatchString(sku) {
		return fail("sku", sku, "sku contains characters outside [A-Za-z0-9_-]", "fix the sku in the source file")
	}
	if first, dup := n.seenSKU[sku]; dup {
		return fail("sku", sku,
			fmt.Sprintf("duplicate sku, first seen on row %d", first),
			"remove or rename one of the duplicate rows")
	}

	p := &catalog.Product{
		Row:              row.Index,
		SKU:              sku,
		CustomAttributes: make(map[string]string),
	}

	// text fields
	p.Name = Truncate(CleanText(row.Fields["name"]), n.opts.MaxNameLen)
	if p.Name == "" {
		p.Name = sku
		info(sku, "name", "", "defaulted", "empty name replaced by sku")
	}
	p.Description = Truncate(CleanText(row.Fields["description"]), n.opts.MaxDescLen)
	p.ShortDescription = Truncate(CleanText(row.Fields["short_description"]), n.opts.MaxShortLen)

	// categories before price: the zero-price table is category-keyed
	for _, part := range SplitList(row.Fields["categories"], ">", "/") {
		p.CategoryPath = append(p.CategoryPath, CleanText(part))
	}

	// price; a missing column defaults silently, an empty cell is reported
	rawPrice, hasPrice := row.Fields["price"]
	rawPrice = strings.TrimSpace(rawPrice)
	if rawPrice == "" {
		p.Price = n.opts.PriceDefaults.Lookup(p.CategoryPath, p.Name)
		if hasPrice {
			info(sku, "price", "", "defaulted", fmt.Sprintf("missing price defaulted to %s", p.Price))
		}
	} else {
		d, err := ParseDecimal(rawPrice, n.opts.ThousandsSeparator)
		if err != nil {
			return fail("price", rawPrice, "unparseable price", "use a plain decimal with . or , separator")
		}
		p.Price = d
	}
	if p.Price.LessThanOrEqual(decimal.Zero) || p.Price.LessThan(n.opts.MinPrice) {
		old := p.Price
		p.Price = n.opts.PriceDefaults.Lookup(p.CategoryPath, p.Name)
		info(sku, "price", old.String(), "defaulted",
			fmt.Sprintf("price %s below minimum %s replaced by %s", old, n.opts.MinPrice, p.Price))
	}

	// weight
	rawWeight := strings.TrimSpace(row.Fields["weight"])
	if rawWeight == "" {
		p.Weight = n.opts.Defaults.Weight
	} else if d, err := ParseDecimal(rawWeight, n.opts.ThousandsSeparator); err != nil {
		p.Weight = n.opts.Defaults.Weight
		info(sku, "weight", rawWeight, "defaulted", "unparseable weight replaced by default")
	} else if d.IsNegative() {
		p.Weight = n.opts.Defaults.Weight
		info(sku, "weight", rawWeight, "defaulted", "negative weight replaced by default")
	} else {
		p.Weight = d
	}

	// enumerated basics
	p.Status = parseStatus(row.Fields["status"], n.opts.Defaults.Status)
	p.Visibility = parseVisibility(row.Fields["visibility"], n.opts.Defaults.Visibility)
	p.StockStatus = parseStockStatus(row.Fields["qty"], row.Fields["status"], n.opts.Defaults.StockStatus)
	p.ManageStock = n.opts.Defaults.ManageStock

	p.Qty = n.opts.Defaults.Qty
	if rawQty := strings.TrimSpace(row.Fields["qty"]); rawQty != "" {
		if q, err := strconv.Atoi(rawQty); err == nil && q >= 0 {
			p.Qty = q
		} else {
			info(sku, "qty", rawQty, "defaulted", "unparseable or negative qty replaced by default")
		}
	}
	if p.Qty == 0 {
		p.StockStatus = catalog.StockOutOfStock
	}

	p.TaxClassID = n.opts.Defaults.TaxClassID
	if rawTax := strings.TrimSpace(row.Fields["tax_class_id"]); rawTax != "" {
		if t, err := strconv.Atoi(rawTax); err == nil {
			p.TaxClassID = t
		}
	}

	p.AttributeSet = CleanText(row.Fields["attribute_set"])
	p.AttributeSetID = n.opts.Defaults.AttributeSetID

	p.TypeID = n.opts.Defaults.TypeID
	if rawType := foldKey(row.Fields["type_id"]); rawType != "" {
		switch rawType {
		case catalog.TypeSimple, catalog.TypeConfigurable:
			p.TypeID = rawType
		default:
			return fail("type_id", rawType, "unsupported product type",
				"supported types: simple, configurable")
		}
	}

	// additional_attributes, later keys win
	for k, v := range ParseKeyValues(row.Fields["additional_attributes"]) {
		p.CustomAttributes[Slugify(k, 0)] = strings.TrimSpace(v)
	}

	// dedicated columns override the additional_attributes blob
	if v := strings.TrimSpace(row.Fields["brand"]); v != "" {
		p.CustomAttributes["brand"] = v
	}
	if v := strings.TrimSpace(row.Fields["color"]); v != "" {
		p.CustomAttributes["color"] = v
	}

	if v, ok := p.CustomAttributes["brand"]; ok {
		canonical, err := canonicalize(n.opts.Brands, v)
		if err != nil {
			return fail("brand", v, "unknown brand value",
				"allowed: "+strings.Join(n.opts.Brands.Allowed(), ", "))
		}
		p.CustomAttributes["brand"] = canonical
	}
	if v, ok := p.CustomAttributes["color"]; ok {
		canonical, err := canonicalize(n.opts.Colors, v)
		if err != nil {
			return fail("color", v, "unknown color value",
				"allowed: "+strings.Join(n.opts.Colors.Allowed(), ", "))
		}
		p.CustomAttributes["color"] = canonical
	}

	// configurable variants; validated before the url key is reserved so
	// a rejected row does not consume its slug
	if p.TypeID == catalog.TypeConfigurable {
		p.VariantSKUs = SplitList(row.Fields["configurable_variations"])
		if len(p.VariantSKUs) == 0 {
			return fail("configurable_variations", "", "configurable product without variants",
				"list the simple variant skus separated by | or ,")
		}
		if raw, ok := p.CustomAttributes["configurable_attributes"]; ok {
			p.VariantAttrs = SplitList(raw)
			delete(p.CustomAttributes, "configurable_attributes")
		} else {
			p.VariantAttrs = []string{"color"}
		}
	}

	// url key, unique across the catalog
	rawKey := strings.TrimSpace(row.Fields["url_key"])
	key := Slugify(rawKey, n.opts.MaxURLKeyLen)
	if key == "" {
		key = Slugify(p.Name, n.opts.MaxURLKeyLen)
	}
	if key == "" {
		key = Slugify(sku, n.opts.MaxURLKeyLen)
	}
	unique, firstRow := n.urlKeys.take(key, row.Index)
	if firstRow != 0 {
		info(sku, "url_key", key, "deduplicated",
			fmt.Sprintf("url key already used on row %d, renamed to %s", firstRow, unique))
	}
	p.URLKey = unique

	// media references
	for _, ref := range SplitList(row.Fields["image_name"]) {
		p.MediaRefs = append(p.MediaRefs, ref)
	}

	n.seenSKU[sku] = row.Index
	return p, diags
}

// registerAttributeSpecs records which custom attributes the attribute
// stage must ensure before products referencing them are pushed.
func (n *Normalizer) registerAttributeSpecs(cat *catalog.Catalog, p *catalog.Product) {
	for code := range p.CustomAttributes {
		if _, ok := cat.Attributes[code]; ok {
			continue
		}
		spec := &catalog.AttributeSpec{
			Code:  code,
			Label: titleWords(strings.ReplaceAll(code, "_", " ")),
			Scope: n.opts.AttributeScope,
			Type:  "text",
		}
		switch code {
		case "brand":
			if n.opts.Brands != nil {
				spec.Type = "select"
				spec.AllowedValues = n.opts.Brands.Allowed()
			}
		case "color":
			if n.opts.Colors != nil {
				spec.Type = "select"
				spec.AllowedValues = n.opts.Colors.Allowed()
			}
		}
		cat.Attributes[code] = spec
	}
}

// canonicalize is a no-op for open sets (nil AliasSet).
func canonicalize(set *AliasSet, v string) (string, error) {
	if set == nil || set.Len() == 0 {
		return strings.TrimSpace(v), nil
	}
	if c, ok := set.Canonicalize(v); ok {
		return c, nil
	}
	return "", fmt.Errorf("value %q not in allowed set", v)
}

func parseStatus(raw, def string) string {
	switch foldKey(raw) {
	case "1", "enabled", "enable", "true", "yes", "actif":
		return catalog.StatusEnabled
	case "2", "0", "disabled", "disable", "false", "no", "inactif":
		return catalog.StatusDisabled
	default:
		return def
	}
}

func parseVisibility(raw, def string) string {
	switch foldKey(strings.ReplaceAll(raw, " ", "_")) {
	case "1", "not_visible", "not_visible_individually":
		return catalog.VisibilityNotVisible
	case "2", "catalog":
		return catalog.VisibilityCatalog
	case "3", "search":
		return catalog.VisibilitySearch
	case "4", "catalog,_search", "catalog_search", "catalog,search":
		return catalog.VisibilityCatalogSearch
	default:
		return def
	}
}

func parseStockStatus(rawQty, rawStatus, def string) string {
	if q, err := strconv.Atoi(strings.TrimSpace(rawQty)); err == nil {
		if q > 0 {
			return catalog.StockInStock
		}
		return catalog.StockOutOfStock
	}
	return def
}

// titleWords capitalizes the first rune of every word; attribute labels
// derived from snake_case codes go through it.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
