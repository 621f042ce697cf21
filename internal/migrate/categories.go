package migrate

import (
	"context"
	"sort"
	"strings"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runCategories builds the category tree: every path prefix of every
// product becomes one item, parents strictly before children. The
// existing tree is listed once and reconstructed into full paths so
// reruns and shared prefixes resolve without extra calls.
func (o *Orchestrator) runCategories(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runCategories")
	defer logger.Debug("End runCategories")

	paths := map[string]bool{}
	for _, p := range o.cat.Products {
		for depth := 1; depth <= len(p.CategoryPath); depth++ {
			paths[joinPath(p.CategoryPath[:depth])] = true
		}
	}
	if len(paths) == 0 {
		return nil
	}

	if err := o.primeCategoryCache(ctx); err != nil {
		return err
	}

	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	// parents first; same depth sorts alphabetically for stable order
	sort.Slice(keys, func(i, j int) bool {
		di, dj := pathDepth(keys[i]), pathDepth(keys[j])
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})

	return o.processItems(ctx, StageCategories, keys, o.cfg.BATCH.Categories,
		o.migrateCategory)
}

func (o *Orchestrator) migrateCategory(ctx context.Context, path string) (string, error) {
	if _, ok := o.categoryIDs[path]; ok {
		return "skipped", nil
	}

	segments := splitPath(path)
	parentID := o.cfg.CATEGORY.RootID
	if len(segments) > 1 {
		id, ok := o.categoryIDs[joinPath(segments[:len(segments)-1])]
		if !ok {
			return "", validationError("parent category missing for " + path)
		}
		parentID = id
	}

	created, err := o.api.CreateCategory(ctx, &models.Category{
		ParentID:      parentID,
		Name:          segments[len(segments)-1],
		IsActive:      o.cfg.CATEGORY.IsActive,
		IncludeInMenu: o.cfg.CATEGORY.IncludeInMenu,
		Position:      o.cfg.CATEGORY.Position,
	})
	if err != nil {
		return "", err
	}
	o.categoryIDs[path] = created.ID
	return "created", nil
}

// primeCategoryCache lists the store tree and rebuilds full paths from
// the parent links, rooted at the configured root category.
func (o *Orchestrator) primeCategoryCache(ctx context.Context) error {
	list, err := o.api.ListCategories(ctx, models.NewSearchCriteria().PageSize(1000))
	if err != nil {
		return err
	}

	byID := make(map[int]*models.Category, len(list.Items))
	for _, c := range list.Items {
		byID[c.ID] = c
	}

	for _, c := range list.Items {
		var segments []string
		node := c
		for node != nil && node.ID != o.cfg.CATEGORY.RootID {
			segments = append([]string{node.Name}, segments...)
			node = byID[node.ParentID]
		}
		if node == nil || len(segments) == 0 {
			continue // outside the configured root
		}
		o.categoryIDs[joinPath(segments)] = c.ID
	}
	return nil
}

func joinPath(segments []string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) []string {
	return strings.Split(path, "/")
}

func pathDepth(path string) int {
	return strings.Count(path, "/")
}
