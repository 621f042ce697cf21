package database

const DB_NAME = "job.db"

const DB_SCHEMA = `CREATE TABLE IF NOT EXISTS Job (
	ID text PRIMARY KEY,
	CreatedAt text,
	Mode text,
	Stage text,
	Status text,
	CatalogPath text
);

CREATE TABLE IF NOT EXISTS StageItem (
	ID integer PRIMARY KEY AUTOINCREMENT,
	JobID text,
	Stage text,
	ItemKey text,
	Outcome text,
	ErrorClass text,
	Message text,
	Attempts integer,
	UpdatedAt text,
	UNIQUE(JobID, Stage, ItemKey)
);

CREATE INDEX IF NOT EXISTS idx_stageitem_job_stage ON StageItem (JobID, Stage);
`

// Job statuses.
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusAborted   = "aborted"
)

// Terminal item outcomes; anything else is re-attempted on resume.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)
