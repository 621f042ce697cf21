package migrate

import (
	"context"
	"strconv"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runSimpleProducts migrates the simple products. The job mode decides
// what happens to products already in the store: skip leaves them
// untouched, update pushes the catalog values over them.
func (o *Orchestrator) runSimpleProducts(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runSimpleProducts")
	defer logger.Debug("End runSimpleProducts")

	simples := o.cat.Simples()
	keys := make([]string, 0, len(simples))
	for _, p := range simples {
		keys = append(keys, p.SKU)
	}

	return o.processItems(ctx, StageSimpleProducts, keys, o.cfg.BATCH.SimpleProducts,
		func(ctx context.Context, sku string) (string, error) {
			p, _ := o.cat.BySKU(sku)
			return o.migrateProduct(ctx, p)
		})
}

func (o *Orchestrator) migrateProduct(ctx context.Context, p *catalog.Product) (string, error) {
	existing, found, err := o.api.GetProductBySku(ctx, p.SKU)
	if err != nil {
		return "", err
	}

	if found {
		o.productIDs[p.SKU] = existing.ID
		switch o.job.Mode {
		case ModeUpdate:
			updated, err := o.api.UpdateProduct(ctx, p.SKU, o.buildProduct(p))
			if err != nil {
				return "", err
			}
			o.productIDs[p.SKU] = updated.ID
			return "updated", nil
		default: // skip and createOnly leave the store copy alone
			return "skipped", nil
		}
	}

	created, err := o.api.CreateProduct(ctx, o.buildProduct(p))
	if err != nil {
		return "", err
	}
	o.productIDs[p.SKU] = created.ID
	return "created", nil
}

// buildProduct maps the normalized record onto the store wire format.
// Select attributes are sent as option value indexes when the attribute
// stage cached one, as the plain label otherwise.
func (o *Orchestrator) buildProduct(p *catalog.Product) *models.Product {
	product := &models.Product{
		SKU:            p.SKU,
		Name:           p.Name,
		AttributeSetID: o.attributeSetID(p.AttributeSet),
		Price:          p.Price.InexactFloat64(),
		Status:         statusCode(p.Status),
		Visibility:     visibilityCode(p.Visibility),
		TypeID:         p.TypeID,
		Weight:         p.Weight.InexactFloat64(),
		ExtensionAttributes: &models.ProductExtension{
			StockItem: &models.StockItem{
				Qty:         p.Qty,
				IsInStock:   p.StockStatus == catalog.StockInStock,
				ManageStock: p.ManageStock,
			},
		},
	}
	if o.cfg.MAGENTO.WebsiteID > 0 {
		product.ExtensionAttributes.WebsiteIDs = []int{o.cfg.MAGENTO.WebsiteID}
	}

	addAttr := func(code string, value interface{}) {
		product.CustomAttributes = append(product.CustomAttributes,
			models.CustomAttribute{AttributeCode: code, Value: value})
	}
	addAttr("url_key", p.URLKey)
	addAttr("tax_class_id", strconv.Itoa(p.TaxClassID))
	if p.Description != "" {
		addAttr("description", p.Description)
	}
	if p.ShortDescription != "" {
		addAttr("short_description", p.ShortDescription)
	}
	for code, value := range p.CustomAttributes {
		if index, ok := o.optionValueIndex(code, value); ok {
			addAttr(code, strconv.Itoa(index))
			continue
		}
		addAttr(code, value)
	}
	return product
}

func statusCode(status string) int {
	if status == catalog.StatusDisabled {
		return models.StatusDisabled
	}
	return models.StatusEnabled
}

func visibilityCode(visibility string) int {
	switch visibility {
	case catalog.VisibilityNotVisible:
		return models.VisibilityNotVisible
	case catalog.VisibilityCatalog:
		return models.VisibilityCatalog
	case catalog.VisibilitySearch:
		return models.VisibilitySearch
	default:
		return models.VisibilityCatalogSearch
	}
}
