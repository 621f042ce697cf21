package database

type Job struct {
	ID          string `db:"ID"`
	CreatedAt   string `db:"CreatedAt"`
	Mode        string `db:"Mode"`
	Stage       string `db:"Stage"`
	Status      string `db:"Status"`
	CatalogPath string `db:"CatalogPath"`
}

type StageItem struct {
	ID         int    `db:"ID"`
	JobID      string `db:"JobID"`
	Stage      string `db:"Stage"`
	ItemKey    string `db:"ItemKey"`
	Outcome    string `db:"Outcome"`
	ErrorClass string `db:"ErrorClass"`
	Message    string `db:"Message"`
	Attempts   int    `db:"Attempts"`
	UpdatedAt  string `db:"UpdatedAt"`
}

// Done reports whether the item needs no further work on resume.
// Failed items are re-attempted, everything else terminal is kept.
func (s *StageItem) Done() bool {
	switch s.Outcome {
	case OutcomeCreated, OutcomeUpdated, OutcomeSkipped:
		return true
	}
	return false
}
