package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/telegram"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// Event is one observable step of a running job: an item outcome, a
// stage transition or a job-level status change.
type Event struct {
	Time    time.Time `json:"time"`
	JobID   string    `json:"job_id"`
	Stage   string    `json:"stage,omitempty"`
	ItemKey string    `json:"item_key,omitempty"`
	Outcome string    `json:"outcome,omitempty"`
	Class   string    `json:"error_class,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Sink consumes events. Sinks must tolerate concurrent Emit calls.
type Sink interface {
	Emit(e Event)
	Close() error
}

// Counters accumulates item outcomes for one stage or one whole job.
type Counters struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (c *Counters) Add(outcome string) {
	switch outcome {
	case "created":
		c.Created++
	case "updated":
		c.Updated++
	case "skipped":
		c.Skipped++
	case "failed":
		c.Failed++
	}
}

func (c Counters) Total() int {
	return c.Created + c.Updated + c.Skipped + c.Failed
}

// SuccessRate is the share of items that reached a non-failed outcome.
func (c Counters) SuccessRate() float64 {
	total := c.Total()
	if total == 0 {
		return 1
	}
	return float64(total-c.Failed) / float64(total)
}

// Reporter fans events out to its sinks and keeps per-stage counters.
type Reporter struct {
	mu     sync.Mutex
	sinks  []Sink
	jobID  string
	stages map[string]*Counters
	order  []string
	start  time.Time
}

func NewReporter(jobID string, sinks ...Sink) *Reporter {
	return &Reporter{
		sinks:  sinks,
		jobID:  jobID,
		stages: make(map[string]*Counters),
		start:  time.Now(),
	}
}

func (r *Reporter) emit(e Event) {
	e.Time = time.Now()
	e.JobID = r.jobID
	for _, sink := range r.sinks {
		sink.Emit(e)
	}
}

// Item records one processed item and its outcome.
func (r *Reporter) Item(stage, itemKey, outcome, class, message string) {
	r.mu.Lock()
	c, ok := r.stages[stage]
	if !ok {
		c = &Counters{}
		r.stages[stage] = c
		r.order = append(r.order, stage)
	}
	c.Add(outcome)
	r.mu.Unlock()

	r.emit(Event{Stage: stage, ItemKey: itemKey, Outcome: outcome, Class: class, Message: message})
}

// Stage announces a stage transition.
func (r *Reporter) Stage(stage, message string) {
	r.mu.Lock()
	if _, ok := r.stages[stage]; !ok {
		r.stages[stage] = &Counters{}
		r.order = append(r.order, stage)
	}
	r.mu.Unlock()

	r.emit(Event{Stage: stage, Message: message})
}

func (r *Reporter) Close() {
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil {
			logging.GetLogger().Errorf("failed closing sink: %v", err)
		}
	}
}

// Snapshot returns a copy of the per-stage counters in stage order.
func (r *Reporter) Snapshot() (map[string]Counters, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Counters, len(r.stages))
	for stage, c := range r.stages {
		out[stage] = *c
	}
	order := append([]string(nil), r.order...)
	return out, order
}

func (r *Reporter) Elapsed() time.Duration {
	return time.Since(r.start)
}

// LogSink mirrors events into the process log.
type LogSink struct{}

func (LogSink) Emit(e Event) {
	logger := logging.GetLogger()
	switch {
	case e.Outcome == "failed":
		logger.Warnf("[%s] %s: failed (%s) %s", e.Stage, e.ItemKey, e.Class, e.Message)
	case e.ItemKey != "":
		logger.Debugf("[%s] %s: %s", e.Stage, e.ItemKey, e.Outcome)
	default:
		logger.Infof("[%s] %s", e.Stage, e.Message)
	}
}

func (LogSink) Close() error { return nil }

// JSONLSink appends one JSON line per event, the durable audit trail
// of a job directory.
type JSONLSink struct {
	mu sync.Mutex
	f  *os.File
}

func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in NewJSONLSink(%s)", path)
	}
	return &JSONLSink{f: f}, nil
}

func (s *JSONLSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.f.Write(append(line, '\n'))
}

func (s *JSONLSink) Close() error {
	return s.f.Close()
}

// TelegramSink forwards stage transitions and failures; per-item
// successes stay local to keep the chat readable.
type TelegramSink struct{}

func (TelegramSink) Emit(e Event) {
	switch {
	case e.Outcome == "failed":
		telegram.SendMessageWithLogError(
			fmt.Sprintf("[%s] %s failed (%s): %s", e.Stage, e.ItemKey, e.Class, e.Message))
	case e.ItemKey == "" && e.Message != "":
		telegram.SendMessageWithLogError(fmt.Sprintf("[%s] %s", e.Stage, e.Message))
	}
}

func (TelegramSink) Close() error { return nil }
