package report

import (
	"strings"
	"testing"
)

func TestNewRunDefaults(t *testing.T) {
	r := NewRun("download")
	if r.Stage != "download" {
		t.Errorf("stage = %s", r.Stage)
	}
	if r.RunID == "" {
		t.Error("missing run id")
	}
	if r.Status != StatusComplete {
		t.Errorf("status = %s", r.Status)
	}
	if r.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}

func TestRunIDsUnique(t *testing.T) {
	a, b := NewRun("x"), NewRun("x")
	if a.RunID == b.RunID {
		t.Errorf("duplicate run ids: %s", a.RunID)
	}
}

func TestSkipAndFinish(t *testing.T) {
	r := NewRun("extract")
	r.Attempted = 2
	r.Succeeded = 1
	r.Skip("7", "low quality")

	done := r.Finish()
	if done.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}
	if len(done.Skipped) != 1 || done.Skipped[0].ID != "7" {
		t.Errorf("skips = %+v", done.Skipped)
	}
}

func TestSummary(t *testing.T) {
	r := NewRun("topics")
	r.Attempted = 5
	r.Succeeded = 4
	r.Skip("9", "empty")

	s := r.Summary()
	for _, want := range []string{"topics", "attempted=5", "succeeded=4", "skipped=1", "status=complete"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary %q missing %q", s, want)
		}
	}
}
