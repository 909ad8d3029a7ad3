package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ymorita/kabuscan/pkg/logger"
)

type testJob struct {
	name     string
	schedule string
	runs     int32
	done     chan struct{}
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	select {
	case j.done <- struct{}{}:
	default:
	}
	return nil
}

func newTestJob(name string) *testJob {
	return &testJob{name: name, schedule: "0 0 0 1 1 *", done: make(chan struct{}, 1)}
}

func TestAddJobDuplicate(t *testing.T) {
	s := New(logger.Nop())

	job := newTestJob("collect")
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Fatal("AddJob() with duplicate name must fail")
	}
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := New(logger.Nop())

	job := &testJob{name: "broken", schedule: "not a schedule", done: make(chan struct{}, 1)}
	if err := s.AddJob(job); err == nil {
		t.Fatal("AddJob() with invalid schedule must fail")
	}
}

func TestRunJobImmediate(t *testing.T) {
	s := New(logger.Nop())

	job := newTestJob("collect")
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	if err := s.RunJob("collect"); err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}

	select {
	case <-job.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	// History is written after the run signal; poll briefly.
	deadline := time.Now().Add(5 * time.Second)
	for {
		history, err := s.History("collect")
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history.Results) > 0 {
			if !history.Results[0].Success {
				t.Error("expected a successful run")
			}
			if history.SuccessRate() != 1.0 {
				t.Errorf("SuccessRate() = %v, want 1.0", history.SuccessRate())
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("no history recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunJobUnknown(t *testing.T) {
	s := New(logger.Nop())
	if err := s.RunJob("missing"); err == nil {
		t.Fatal("RunJob() for unknown job must fail")
	}
}

func TestJobs(t *testing.T) {
	s := New(logger.Nop())
	_ = s.AddJob(newTestJob("a"))
	_ = s.AddJob(newTestJob("b"))

	if got := len(s.Jobs()); got != 2 {
		t.Errorf("Jobs() returned %d names, want 2", got)
	}
}

func TestJobHistoryLimit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{JobName: "x", Success: true})
	}
	if len(h.Results) != historyLimit {
		t.Errorf("history length = %d, want %d", len(h.Results), historyLimit)
	}
	if got := len(h.LatestResults(5)); got != 5 {
		t.Errorf("LatestResults(5) returned %d, want 5", got)
	}
}
