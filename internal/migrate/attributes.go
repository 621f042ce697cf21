package migrate

import (
	"context"
	"sort"
	"strconv"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/database"
	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runAttributes ensures every custom attribute of the catalog exists in
// the store with all the option values the products reference. Existing
// attributes are fetched anyway so the option value indexes land in the
// cache for the configurable stage.
func (o *Orchestrator) runAttributes(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runAttributes")
	defer logger.Debug("End runAttributes")

	codes := make([]string, 0, len(o.cat.Attributes))
	for code := range o.cat.Attributes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	// a resumed run skips completed codes, so the option cache the
	// later stages depend on has to be rebuilt up front
	prior, err := database.GetStageItems(o.db, o.job.ID, StageAttributes)
	if err != nil {
		return err
	}
	for _, code := range codes {
		if rec, ok := prior[code]; ok && rec.Done() {
			if err := o.refreshAttributeOptions(ctx, code); err != nil {
				return err
			}
		}
	}

	return o.processItems(ctx, StageAttributes, codes, o.cfg.BATCH.Attributes,
		func(ctx context.Context, code string) (string, error) {
			return o.migrateAttribute(ctx, o.cat.Attributes[code])
		})
}

func (o *Orchestrator) migrateAttribute(ctx context.Context, spec *catalog.AttributeSpec) (string, error) {
	existing, found, err := o.api.GetAttribute(ctx, spec.Code)
	if err != nil {
		return "", err
	}

	if !found {
		created, err := o.api.CreateAttribute(ctx, o.buildAttribute(spec))
		if err != nil {
			return "", err
		}
		o.cacheAttribute(created)
		// select options get their value indexes assigned server-side
		if spec.Type == "select" {
			if err := o.refreshAttributeOptions(ctx, spec.Code); err != nil {
				return "", err
			}
		}
		return "created", nil
	}

	o.cacheAttribute(existing)

	missing := o.missingOptions(spec, existing)
	if len(missing) == 0 {
		return "skipped", nil
	}
	for _, label := range missing {
		if err := o.api.AddAttributeOption(ctx, spec.Code, &models.AttributeOption{Label: label}); err != nil {
			return "", err
		}
	}
	if err := o.refreshAttributeOptions(ctx, spec.Code); err != nil {
		return "", err
	}
	return "updated", nil
}

func (o *Orchestrator) buildAttribute(spec *catalog.AttributeSpec) *models.Attribute {
	a := &models.Attribute{
		AttributeCode:        spec.Code,
		DefaultFrontendLabel: spec.Label,
		FrontendInput:        spec.Type,
		Scope:                spec.Scope,
		IsRequired:           o.cfg.ATTRIBUTE.IsRequired,
		IsUserDefined:        o.cfg.ATTRIBUTE.IsUserDefined,
		IsVisible:            o.cfg.ATTRIBUTE.IsVisible,
		IsSearchable:         boolFlag(o.cfg.ATTRIBUTE.IsSearchable),
		IsFilterable:         boolFlag(o.cfg.ATTRIBUTE.IsFilterable),
		IsComparable:         boolFlag(o.cfg.ATTRIBUTE.IsComparable),
		IsVisibleOnFront:     boolFlag(o.cfg.ATTRIBUTE.IsVisibleOnFront),
		UsedInProductListing: boolFlag(o.cfg.ATTRIBUTE.UsedInProductListing),
	}
	for _, value := range spec.AllowedValues {
		a.Options = append(a.Options, models.AttributeOption{Label: value})
	}
	return a
}

// cacheAttribute records the attribute id and its label -> value-index
// mapping for the configurable option builder.
func (o *Orchestrator) cacheAttribute(a *models.Attribute) {
	o.attributeIDs[a.AttributeCode] = a.AttributeID
	options := make(map[string]string, len(a.Options))
	for _, opt := range a.Options {
		if opt.Value != "" {
			options[opt.Label] = opt.Value
		}
	}
	o.attributeOptions[a.AttributeCode] = options
}

func (o *Orchestrator) refreshAttributeOptions(ctx context.Context, code string) error {
	refreshed, found, err := o.api.GetAttribute(ctx, code)
	if err != nil || !found {
		return err
	}
	o.cacheAttribute(refreshed)
	return nil
}

func (o *Orchestrator) missingOptions(spec *catalog.AttributeSpec, existing *models.Attribute) []string {
	have := make(map[string]bool, len(existing.Options))
	for _, opt := range existing.Options {
		have[opt.Label] = true
	}
	var missing []string
	for _, value := range spec.AllowedValues {
		if !have[value] {
			missing = append(missing, value)
		}
	}
	return missing
}

// optionValueIndex resolves a select-attribute label to its numeric
// value index in the store.
func (o *Orchestrator) optionValueIndex(code, label string) (int, bool) {
	options, ok := o.attributeOptions[code]
	if !ok {
		return 0, false
	}
	value, ok := options[label]
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return index, true
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
