package migrate

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/config"
	"github.com/mounirtms/techno-etl/internal/database"
	"github.com/mounirtms/techno-etl/internal/magento"
	"github.com/mounirtms/techno-etl/internal/progress"
	"github.com/mounirtms/techno-etl/internal/ratelimit"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// Stage names, in dependency order. Products need their attributes and
// categories first, configurables need their variants, media goes last.
const (
	StageAttributes         = "attributes"
	StageAttributeSets      = "attributeSets"
	StageCategories         = "categories"
	StageSimpleProducts     = "simpleProducts"
	StageCategoryAssignment = "categoryAssignment"
	StageConfigurables      = "configurableProducts"
	StageMedia              = "media"
)

var StageOrder = []string{
	StageAttributes,
	StageAttributeSets,
	StageCategories,
	StageSimpleProducts,
	StageCategoryAssignment,
	StageConfigurables,
	StageMedia,
}

// Modes for products that already exist in the store.
const (
	ModeSkip       = "skip"
	ModeUpdate     = "update"
	ModeCreateOnly = "createOnly"
)

// Orchestrator drives one job through the staged migration. All target
// state it learns along the way (category ids, attribute option value
// indexes, product ids) is cached for the later stages.
type Orchestrator struct {
	api      magento.API
	db       *sqlx.DB
	cfg      *config.Config
	limiter  *ratelimit.Limiter
	reporter *progress.Reporter
	cat      *catalog.Catalog
	job      *database.Job

	bindings []catalog.MediaBinding

	categoryIDs      map[string]int
	attributeSetIDs  map[string]int
	productIDs       map[string]int
	attributeIDs     map[string]int
	attributeOptions map[string]map[string]string

	failures []progress.Failure

	// OnStageEnd, when set, runs after every completed stage; main uses
	// it to flush an intermediate report at each stage boundary.
	OnStageEnd func(stage string)
}

func New(api magento.API, db *sqlx.DB, cfg *config.Config, limiter *ratelimit.Limiter,
	reporter *progress.Reporter, cat *catalog.Catalog, job *database.Job,
	bindings []catalog.MediaBinding) *Orchestrator {
	return &Orchestrator{
		api:              api,
		db:               db,
		cfg:              cfg,
		limiter:          limiter,
		reporter:         reporter,
		cat:              cat,
		job:              job,
		bindings:         bindings,
		categoryIDs:      make(map[string]int),
		attributeSetIDs:  make(map[string]int),
		productIDs:       make(map[string]int),
		attributeIDs:     make(map[string]int),
		attributeOptions: make(map[string]map[string]string),
	}
}

// Failures returns the failures recorded so far, for the final report.
func (o *Orchestrator) Failures() []progress.Failure {
	return o.failures
}

// Run executes every stage in order. Item-level skipping makes a resumed
// run walk the early stages quickly while rebuilding the caches it needs.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start Run")
	defer logger.Debug("End Run")

	if err := o.api.Login(ctx); err != nil {
		return errors.Wrap(err, "failed in Login")
	}

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{StageAttributes, o.runAttributes},
		{StageAttributeSets, o.runAttributeSets},
		{StageCategories, o.runCategories},
		{StageSimpleProducts, o.runSimpleProducts},
		{StageCategoryAssignment, o.runCategoryAssignment},
		{StageConfigurables, o.runConfigurables},
		{StageMedia, o.runMedia},
	}

	for _, stage := range stages {
		if err := database.UpdateJobStage(o.db, o.job.ID, stage.name); err != nil {
			return err
		}
		o.reporter.Stage(stage.name, "starting")
		if err := stage.run(ctx); err != nil {
			return errors.Wrapf(err, "failed in stage %s", stage.name)
		}
		if o.OnStageEnd != nil {
			o.OnStageEnd(stage.name)
		}
	}
	return nil
}

// itemFunc migrates one item and reports its outcome.
type itemFunc func(ctx context.Context, key string) (string, error)

// processItems is the shared per-stage loop: resume checks against the
// checkpoint database, batching with inter-batch pauses, error budgets
// and outcome recording.
func (o *Orchestrator) processItems(ctx context.Context, stage string, keys []string, batchSize int, fn itemFunc) error {
	logger := logging.GetLogger()

	prior, err := database.GetStageItems(o.db, o.job.ID, stage)
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	errorsInBatch := 0
	for i, key := range keys {
		if i > 0 && i%batchSize == 0 {
			errorsInBatch = 0
			if err := o.limiter.BatchPause(ctx); err != nil {
				return err
			}
		}

		attempts := 0
		if rec, ok := prior[key]; ok {
			if rec.Done() {
				o.reporter.Item(stage, key, database.OutcomeSkipped, "", "completed in a previous run")
				continue
			}
			// failed before: validation never retries, transient
			// retries until the budget is spent
			if rec.ErrorClass == string(magento.ClassValidation) ||
				(o.cfg.ERRORS.MaxRetries > 0 && rec.Attempts >= o.cfg.ERRORS.MaxRetries) {
				o.reporter.Item(stage, key, database.OutcomeFailed, rec.ErrorClass, rec.Message)
				o.failures = append(o.failures, progress.Failure{
					Stage: stage, ItemKey: key, Class: rec.ErrorClass, Message: rec.Message,
				})
				continue
			}
			attempts = rec.Attempts
		}

		outcome, err := fn(ctx, key)
		if err != nil {
			if ratelimit.IsCancelled(err) || ctx.Err() != nil {
				return err
			}

			class := magento.ClassOf(err)
			message := err.Error()
			logger.Warnf("[%s] %s failed: %v", stage, key, err)

			if dbErr := database.UpsertStageItem(o.db, &database.StageItem{
				JobID: o.job.ID, Stage: stage, ItemKey: key,
				Outcome: database.OutcomeFailed, ErrorClass: string(class),
				Message: message, Attempts: attempts + 1,
			}); dbErr != nil {
				return dbErr
			}
			o.reporter.Item(stage, key, database.OutcomeFailed, string(class), message)
			o.failures = append(o.failures, progress.Failure{
				Stage: stage, ItemKey: key, Class: string(class), Message: message,
			})

			if class == magento.ClassFatal || class == magento.ClassAuthExpired {
				return err
			}
			if !o.cfg.ERRORS.ContinueOnError {
				return err
			}
			errorsInBatch++
			if o.cfg.ERRORS.MaxErrorsPerBatch > 0 && errorsInBatch >= o.cfg.ERRORS.MaxErrorsPerBatch {
				return fmt.Errorf("stage %s aborted: %d errors in one batch", stage, errorsInBatch)
			}
			continue
		}

		if err := database.UpsertStageItem(o.db, &database.StageItem{
			JobID: o.job.ID, Stage: stage, ItemKey: key,
			Outcome: outcome, Attempts: attempts + 1,
		}); err != nil {
			return err
		}
		o.reporter.Item(stage, key, outcome, "", "")
	}
	return nil
}

// validationError builds a client-side validation failure that is never
// retried.
func validationError(message string) error {
	return &magento.APIError{Class: magento.ClassValidation, Message: message}
}
