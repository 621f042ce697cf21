package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/config"
	"github.com/mounirtms/techno-etl/internal/database"
	"github.com/mounirtms/techno-etl/internal/handlers/httphandler"
	"github.com/mounirtms/techno-etl/internal/imagematch"
	"github.com/mounirtms/techno-etl/internal/magento"
	"github.com/mounirtms/techno-etl/internal/migrate"
	"github.com/mounirtms/techno-etl/internal/normalize"
	"github.com/mounirtms/techno-etl/internal/progress"
	"github.com/mounirtms/techno-etl/internal/ratelimit"
	"github.com/mounirtms/techno-etl/internal/telegram"
	"github.com/mounirtms/techno-etl/internal/version"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

func main() {
	flagConfig := flag.String("config", config.Path, "path to config.ini")
	flagCSV := flag.String("csv", "", "catalog csv (overrides config)")
	flagImages := flag.String("images", "", "images directory (overrides config)")
	flagValidate := flag.Bool("validate", false, "normalize and report, do not migrate")
	flagJob := flag.String("job", "", "resume an existing job id")
	flag.Parse()

	config.Path = *flagConfig

	logger := logging.GetLogger()
	logger.Info("Start Main")
	defer logger.Info("End Main")
	logger.Infof("Version %s", version.GetVersion().String())

	cfg := config.GetConfig()
	logging.SetDebug(cfg.LOG.Debug == 1)

	if err := telegram.Init(cfg); err != nil {
		logger.Errorf("failed in telegram.Init: %v", err)
	}

	csvPath := cfg.CSV.Path
	if *flagCSV != "" {
		csvPath = *flagCSV
	}
	imagesDir := cfg.CSV.ImagesPath
	if *flagImages != "" {
		imagesDir = *flagImages
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a resume replays the frozen snapshot of the original run, not a
	// fresh read of the csv, which may have changed since
	var (
		cat   *catalog.Catalog
		diags []catalog.Diagnostic
	)
	if *flagJob != "" && !*flagValidate {
		snapPath := filepath.Join(cfg.JOB.Dir, *flagJob, "catalog.json")
		snap, err := catalog.LoadSnapshot(snapPath)
		if err != nil {
			logger.Warnf("no usable catalog snapshot at %s, re-reading csv: %v", snapPath, err)
		} else {
			cat = snap
			logger.Infof("catalog snapshot loaded: %d products", len(cat.Products))
		}
	}
	if cat == nil {
		if csvPath == "" {
			logger.Fatal("no csv source: set CSV.Path or pass -csv")
		}
		var source catalog.Source = &normalize.CSVSource{
			Path: csvPath,
			Opts: normalize.OptionsFromConfig(cfg),
		}
		var err error
		cat, diags, err = source.Load(ctx)
		if err != nil {
			logger.Fatalf("failed loading catalog: %v", err)
		}
		logger.Infof("catalog loaded: %d products, %d diagnostics", len(cat.Products), len(diags))
	}

	if *flagValidate {
		os.Exit(runValidate(cat, diags))
	}

	os.Exit(runMigration(ctx, cfg, cat, diags, imagesDir, *flagJob, csvPath))
}

// runValidate prints the diagnostics and reports via the exit code
// whether any row was rejected.
func runValidate(cat *catalog.Catalog, diags []catalog.Diagnostic) int {
	logger := logging.GetLogger()

	rejected := 0
	for _, d := range diags {
		switch d.Severity {
		case catalog.SeverityError:
			rejected++
			logger.Errorf("row %d [%s]: %s", d.Row, d.Field, d.Message)
		case catalog.SeverityWarning:
			logger.Warnf("row %d [%s]: %s", d.Row, d.Field, d.Message)
		default:
			logger.Infof("row %d [%s]: %s", d.Row, d.Field, d.Message)
		}
	}
	logger.Infof("validation done: %d products accepted, %d rows rejected", len(cat.Products), rejected)
	if rejected > 0 {
		return 1
	}
	return 0
}

func runMigration(ctx context.Context, cfg *config.Config, cat *catalog.Catalog,
	diags []catalog.Diagnostic, imagesDir, jobID, csvPath string) int {
	logger := logging.GetLogger()

	resuming := jobID != ""
	if !resuming {
		jobID = uuid.NewString()
	}
	jobDir := filepath.Join(cfg.JOB.Dir, jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		logger.Fatalf("failed creating job dir %s: %v", jobDir, err)
	}
	logger.Infof("job %s (resume=%v) in %s", jobID, resuming, jobDir)

	db, err := database.Open(filepath.Join(jobDir, database.DB_NAME))
	if err != nil {
		logger.Fatalf("failed opening checkpoint db: %v", err)
	}
	defer db.Close()

	var job *database.Job
	if resuming {
		job, err = database.GetJob(db, jobID)
		if err != nil {
			logger.Fatalf("failed loading job %s: %v", jobID, err)
		}
	} else {
		job = &database.Job{
			ID: jobID, Mode: cfg.JOB.Mode,
			Status: database.JobStatusRunning, CatalogPath: csvPath,
		}
		if err := database.InsertJob(db, job); err != nil {
			logger.Fatalf("failed recording job: %v", err)
		}
		if err := catalog.WriteSnapshot(filepath.Join(jobDir, "catalog.json"), cat); err != nil {
			logger.Errorf("failed writing catalog snapshot: %v", err)
		}
	}

	var bindings []catalog.MediaBinding
	if imagesDir != "" {
		files, err := imagematch.ScanDir(imagesDir)
		if err != nil {
			logger.Fatalf("failed scanning images: %v", err)
		}
		match := imagematch.Match(cat.Products, files)
		bindings = match.Bindings
		logger.Infof("image matching: %d bindings, %d skus without images, %d files unmatched",
			len(match.Bindings), len(match.UnmatchedSKUs), len(match.UnmatchedFiles))
	}

	events, err := progress.NewJSONLSink(filepath.Join(jobDir, "events.jsonl"))
	if err != nil {
		logger.Fatalf("failed opening event log: %v", err)
	}
	reporter := progress.NewReporter(jobID, progress.LogSink{}, events, progress.TelegramSink{})
	defer reporter.Close()

	if cfg.SERVICE.Port > 0 {
		go serveStatus(cfg.SERVICE.Port, db)
	}

	limiter := ratelimit.FromConfig(cfg)
	api := magento.NewAPI(magento.ClientConfigFromConfig(cfg), limiter)
	defer api.Close()

	o := migrate.New(api, db, cfg, limiter, reporter, cat, job, bindings)
	reportPath := filepath.Join(jobDir, "report.json")
	o.OnStageEnd = func(stage string) {
		interim := progress.BuildReport(reporter, database.JobStatusRunning, diags, o.Failures())
		if err := progress.WriteReport(reportPath, interim); err != nil {
			logger.Errorf("failed writing interim report after %s: %v", stage, err)
		}
	}
	runErr := o.Run(ctx)

	status := database.JobStatusCompleted
	switch {
	case ctx.Err() != nil:
		status = database.JobStatusAborted
	case runErr != nil:
		status = database.JobStatusFailed
	}
	if err := database.UpdateJobStatus(db, jobID, status); err != nil {
		logger.Errorf("failed updating job status: %v", err)
	}

	report := progress.BuildReport(reporter, status, diags, o.Failures())
	if err := progress.WriteReport(reportPath, report); err != nil {
		logger.Errorf("failed writing report: %v", err)
	}

	summary := fmt.Sprintf("job %s %s: %d created, %d updated, %d skipped, %d failed in %s",
		jobID, status, report.Totals.Created, report.Totals.Updated,
		report.Totals.Skipped, report.Totals.Failed, report.Duration)
	logger.Info(summary)
	telegram.SendMessageWithLogError(summary)

	if runErr != nil {
		logger.Errorf("migration stopped: %v", runErr)
		return 1
	}
	if report.Totals.Failed > 0 {
		return 1
	}
	return 0
}

func serveStatus(port int, db *sqlx.DB) {
	logger := logging.GetLogger()

	router := httprouter.New()
	handler := &httphandler.Handler{DB: db}
	handler.Register(router)

	logger.Infof("status server listening on :%d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), router); err != nil {
		logger.Errorf("status server stopped: %v", err)
	}
}
