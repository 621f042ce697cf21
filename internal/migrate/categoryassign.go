package migrate

import (
	"context"

	"github.com/mounirtms/techno-etl/internal/magento"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runCategoryAssignment links every migrated product to its leaf
// category. A conflict means the link already exists, which is the
// steady state on a rerun.
func (o *Orchestrator) runCategoryAssignment(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runCategoryAssignment")
	defer logger.Debug("End runCategoryAssignment")

	var keys []string
	for _, p := range o.cat.Products {
		if len(p.CategoryPath) > 0 {
			keys = append(keys, p.SKU)
		}
	}

	return o.processItems(ctx, StageCategoryAssignment, keys, o.cfg.BATCH.Categories,
		func(ctx context.Context, sku string) (string, error) {
			p, _ := o.cat.BySKU(sku)

			leaf := joinPath(p.CategoryPath)
			categoryID, ok := o.categoryIDs[leaf]
			if !ok {
				return "", validationError("category " + leaf + " was not migrated")
			}

			err := o.api.AssignProductToCategory(ctx, categoryID, sku, o.cfg.CATEGORY.Position)
			if err != nil {
				if magento.ClassOf(err) == magento.ClassConflict {
					return "skipped", nil
				}
				return "", err
			}
			return "created", nil
		})
}
