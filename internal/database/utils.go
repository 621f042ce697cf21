package database

import (
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/pkg/logging"
)

func Exists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

func CreateDB(dbname string) error {
	logger := logging.GetLogger()
	logger.Debug("Start CreateDB")
	defer logger.Debug("End CreateDB")

	logger.Infof("creating %s", dbname)

	db, err := sqlx.Open("sqlite3", dbname)
	if err != nil {
		return errors.Wrap(err, "failed in CreateDB")
	}
	defer func(db *sqlx.DB) {
		err := db.Close()
		if err != nil {
			logger.Error(err)
		}
	}(db)

	db.MustExec(DB_SCHEMA)
	return nil
}

// Open connects to the checkpoint database, creating it on first use.
func Open(dbname string) (*sqlx.DB, error) {
	if !Exists(dbname) {
		if err := CreateDB(dbname); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Connect("sqlite3", dbname)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in Open(%s)", dbname)
	}
	db.MustExec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;")
	return db, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func InsertJob(db *sqlx.DB, job *Job) error {
	if job.CreatedAt == "" {
		job.CreatedAt = now()
	}
	_, err := db.NamedExec(`INSERT INTO Job (ID, CreatedAt, Mode, Stage, Status, CatalogPath)
		VALUES (:ID, :CreatedAt, :Mode, :Stage, :Status, :CatalogPath)`, job)
	return errors.Wrapf(err, "failed in InsertJob(%s)", job.ID)
}

func GetJob(db *sqlx.DB, id string) (*Job, error) {
	var job Job
	err := db.Get(&job, "SELECT * FROM Job WHERE ID = ?", id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in GetJob(%s)", id)
	}
	return &job, nil
}

func UpdateJobStage(db *sqlx.DB, id, stage string) error {
	_, err := db.Exec("UPDATE Job SET Stage = ? WHERE ID = ?", stage, id)
	return errors.Wrapf(err, "failed in UpdateJobStage(%s, %s)", id, stage)
}

func UpdateJobStatus(db *sqlx.DB, id, status string) error {
	_, err := db.Exec("UPDATE Job SET Status = ? WHERE ID = ?", status, id)
	return errors.Wrapf(err, "failed in UpdateJobStatus(%s, %s)", id, status)
}

// UpsertStageItem records the outcome of one item; a resumed job
// overwrites the previous failed record for the same key.
func UpsertStageItem(db *sqlx.DB, item *StageItem) error {
	item.UpdatedAt = now()
	_, err := db.NamedExec(`INSERT INTO StageItem (JobID, Stage, ItemKey, Outcome, ErrorClass, Message, Attempts, UpdatedAt)
		VALUES (:JobID, :Stage, :ItemKey, :Outcome, :ErrorClass, :Message, :Attempts, :UpdatedAt)
		ON CONFLICT(JobID, Stage, ItemKey) DO UPDATE SET
			Outcome = excluded.Outcome,
			ErrorClass = excluded.ErrorClass,
			Message = excluded.Message,
			Attempts = excluded.Attempts,
			UpdatedAt = excluded.UpdatedAt`, item)
	return errors.Wrapf(err, "failed in UpsertStageItem(%s/%s)", item.Stage, item.ItemKey)
}

// GetStageItems returns the recorded outcomes of one stage keyed by item.
func GetStageItems(db *sqlx.DB, jobID, stage string) (map[string]*StageItem, error) {
	var rows []*StageItem
	err := db.Select(&rows, "SELECT * FROM StageItem WHERE JobID = ? AND Stage = ?", jobID, stage)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in GetStageItems(%s, %s)", jobID, stage)
	}
	items := make(map[string]*StageItem, len(rows))
	for _, row := range rows {
		items[row.ItemKey] = row
	}
	return items, nil
}

// CountOutcomes aggregates outcome counts across all stages of a job.
func CountOutcomes(db *sqlx.DB, jobID string) (map[string]int, error) {
	rows, err := db.Queryx("SELECT Outcome, COUNT(*) FROM StageItem WHERE JobID = ? GROUP BY Outcome", jobID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in CountOutcomes(%s)", jobID)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, errors.Wrap(err, "failed scanning outcome row")
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
