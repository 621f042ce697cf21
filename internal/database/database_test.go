package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), DB_NAME)
}

func TestOpenCreatesSchema(t *testing.T) {
	path := openTestDB(t)
	assert.False(t, Exists(path))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, Exists(path))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM StageItem"))
	assert.Equal(t, 0, n)
}

func TestJobLifecycle(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	job := &Job{ID: "j-1", Mode: "skip", Stage: "attributes", Status: JobStatusRunning, CatalogPath: "x.csv"}
	require.NoError(t, InsertJob(db, job))
	assert.NotEmpty(t, job.CreatedAt)

	require.NoError(t, UpdateJobStage(db, "j-1", "simpleProducts"))
	require.NoError(t, UpdateJobStatus(db, "j-1", JobStatusCompleted))

	got, err := GetJob(db, "j-1")
	require.NoError(t, err)
	assert.Equal(t, "simpleProducts", got.Stage)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, "skip", got.Mode)
}

func TestUpsertStageItemOverwrites(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InsertJob(db, &Job{ID: "j-2", Status: JobStatusRunning}))

	require.NoError(t, UpsertStageItem(db, &StageItem{
		JobID: "j-2", Stage: "simpleProducts", ItemKey: "SKU-1",
		Outcome: OutcomeFailed, ErrorClass: "transient", Message: "503", Attempts: 1,
	}))
	require.NoError(t, UpsertStageItem(db, &StageItem{
		JobID: "j-2", Stage: "simpleProducts", ItemKey: "SKU-1",
		Outcome: OutcomeCreated, Attempts: 2,
	}))

	items, err := GetStageItems(db, "j-2", "simpleProducts")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, OutcomeCreated, items["SKU-1"].Outcome)
	assert.Equal(t, 2, items["SKU-1"].Attempts)
	assert.True(t, items["SKU-1"].Done())
}

func TestDoneOutcomes(t *testing.T) {
	assert.True(t, (&StageItem{Outcome: OutcomeCreated}).Done())
	assert.True(t, (&StageItem{Outcome: OutcomeUpdated}).Done())
	assert.True(t, (&StageItem{Outcome: OutcomeSkipped}).Done())
	assert.False(t, (&StageItem{Outcome: OutcomeFailed}).Done())
	assert.False(t, (&StageItem{}).Done())
}

func TestCountOutcomes(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InsertJob(db, &Job{ID: "j-3", Status: JobStatusRunning}))
	for i, outcome := range []string{OutcomeCreated, OutcomeCreated, OutcomeSkipped, OutcomeFailed} {
		require.NoError(t, UpsertStageItem(db, &StageItem{
			JobID: "j-3", Stage: "categories", ItemKey: string(rune('a' + i)), Outcome: outcome,
		}))
	}

	counts, err := CountOutcomes(db, "j-3")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[OutcomeCreated])
	assert.Equal(t, 1, counts[OutcomeSkipped])
	assert.Equal(t, 1, counts[OutcomeFailed])
}
