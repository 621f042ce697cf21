package migrate

import (
	"context"
	"strconv"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/magento"
	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runConfigurables migrates the configurable products after all their
// variants exist. The option axes come from the attribute cache built
// in the attributes stage; a variant missing from both the cache and
// the store is a validation failure, not a transient one.
func (o *Orchestrator) runConfigurables(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runConfigurables")
	defer logger.Debug("End runConfigurables")

	configurables := o.cat.Configurables()
	keys := make([]string, 0, len(configurables))
	for _, p := range configurables {
		keys = append(keys, p.SKU)
	}

	return o.processItems(ctx, StageConfigurables, keys, o.cfg.BATCH.ConfigurableProducts,
		func(ctx context.Context, sku string) (string, error) {
			p, _ := o.cat.BySKU(sku)
			return o.migrateConfigurable(ctx, p)
		})
}

func (o *Orchestrator) migrateConfigurable(ctx context.Context, p *catalog.Product) (string, error) {
	linkIDs, err := o.resolveVariantIDs(ctx, p)
	if err != nil {
		return "", err
	}

	options, err := o.buildConfigurableOptions(p)
	if err != nil {
		return "", err
	}

	product := o.buildProduct(p)
	product.ExtensionAttributes.ConfigurableProductLinks = linkIDs
	product.ExtensionAttributes.ConfigurableProductOptions = options

	existing, found, err := o.api.GetProductBySku(ctx, p.SKU)
	if err != nil {
		return "", err
	}
	if found {
		o.productIDs[p.SKU] = existing.ID
		if o.job.Mode != ModeUpdate {
			return "skipped", nil
		}
		updated, err := o.api.UpdateProduct(ctx, p.SKU, product)
		if err != nil {
			return "", err
		}
		o.productIDs[p.SKU] = updated.ID
		return "updated", nil
	}

	created, err := o.api.CreateProduct(ctx, product)
	if err != nil {
		return "", err
	}
	o.productIDs[p.SKU] = created.ID
	return "created", nil
}

func (o *Orchestrator) resolveVariantIDs(ctx context.Context, p *catalog.Product) ([]int, error) {
	ids := make([]int, 0, len(p.VariantSKUs))
	for _, variantSKU := range p.VariantSKUs {
		if id, ok := o.productIDs[variantSKU]; ok {
			ids = append(ids, id)
			continue
		}
		variant, found, err := o.api.GetProductBySku(ctx, variantSKU)
		if err != nil {
			return nil, err
		}
		if !found {
			// a variant that is in the catalog just has not landed yet,
			// so the failure is retryable; an unknown sku never will be
			if _, inCatalog := o.cat.BySKU(variantSKU); inCatalog {
				return nil, &magento.APIError{
					Class:   magento.ClassTransient,
					Message: "variant " + variantSKU + " of " + p.SKU + " not migrated yet",
				}
			}
			return nil, validationError("variant " + variantSKU + " of " + p.SKU + " does not exist")
		}
		o.productIDs[variantSKU] = variant.ID
		ids = append(ids, variant.ID)
	}
	return ids, nil
}

// buildConfigurableOptions turns each variant axis into an option with
// the value indexes actually used by the variants.
func (o *Orchestrator) buildConfigurableOptions(p *catalog.Product) ([]*models.ConfigurableOption, error) {
	var options []*models.ConfigurableOption
	for position, code := range p.VariantAttrs {
		attributeID, ok := o.attributeIDs[code]
		if !ok {
			return nil, validationError("variant attribute " + code + " was not migrated")
		}

		seen := map[int]bool{}
		var values []models.ConfigurableOptionValue
		for _, variantSKU := range p.VariantSKUs {
			variant, ok := o.cat.BySKU(variantSKU)
			if !ok {
				continue
			}
			label, ok := variant.CustomAttributes[code]
			if !ok {
				continue
			}
			index, ok := o.optionValueIndex(code, label)
			if !ok || seen[index] {
				continue
			}
			seen[index] = true
			values = append(values, models.ConfigurableOptionValue{ValueIndex: index})
		}
		if len(values) == 0 {
			return nil, validationError("no option values resolved for " + code + " on " + p.SKU)
		}

		spec := o.cat.Attributes[code]
		label := code
		if spec != nil && spec.Label != "" {
			label = spec.Label
		}
		options = append(options, &models.ConfigurableOption{
			AttributeID: strconv.Itoa(attributeID),
			Label:       label,
			Position:    position,
			Values:      values,
		})
	}
	return options, nil
}
