package migrate

import (
	"context"
	"sort"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runAttributeSets creates the attribute sets the catalog names,
// cloning the configured default set as skeleton. Products without a
// set name fall back to the default set id.
func (o *Orchestrator) runAttributeSets(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runAttributeSets")
	defer logger.Debug("End runAttributeSets")

	names := map[string]bool{}
	for _, p := range o.cat.Products {
		if p.AttributeSet != "" {
			names[p.AttributeSet] = true
		}
	}
	if len(names) == 0 {
		return nil
	}

	// one listing primes the cache for every item
	list, err := o.api.ListAttributeSets(ctx, models.NewSearchCriteria().PageSize(200))
	if err != nil {
		return err
	}
	for _, set := range list.Items {
		o.attributeSetIDs[set.AttributeSetName] = set.AttributeSetID
	}

	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	return o.processItems(ctx, StageAttributeSets, keys, o.cfg.BATCH.Attributes,
		func(ctx context.Context, name string) (string, error) {
			if _, ok := o.attributeSetIDs[name]; ok {
				return "skipped", nil
			}
			created, err := o.api.CreateAttributeSet(ctx, name, o.cfg.PRODUCT.AttributeSetID)
			if err != nil {
				return "", err
			}
			o.attributeSetIDs[name] = created.AttributeSetID
			return "created", nil
		})
}

// attributeSetID resolves a product's set name, falling back to the
// configured default.
func (o *Orchestrator) attributeSetID(name string) int {
	if id, ok := o.attributeSetIDs[name]; ok {
		return id
	}
	return o.cfg.PRODUCT.AttributeSetID
}
