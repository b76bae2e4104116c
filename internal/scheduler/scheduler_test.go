package scheduler

import (
	"context"
	"testing"

	"github.com/robfig/cron/v3"
)

func TestStartRequiresJobs(t *testing.T) {
	s := New(nil)
	if err := s.Start(); err == nil {
		t.Fatalf("expected error without jobs")
	}
	if s.IsRunning() {
		t.Fatalf("scheduler without jobs reports running")
	}
}

func TestStartRegistersJobs(t *testing.T) {
	s := New(nil)
	s.SetReportFunction(func(context.Context) error { return nil })
	s.SetSweepFunction(func(context.Context) error { return nil })
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	if !s.IsRunning() || len(s.cron.Entries()) != 2 {
		t.Fatalf("entries: %d", len(s.cron.Entries()))
	}
}

func TestSpecsParse(t *testing.T) {
	for _, spec := range []string{DailyReportSpec, SweepSpec} {
		if _, err := cron.ParseStandard(spec); err != nil {
			t.Fatalf("spec %q: %v", spec, err)
		}
	}
}

func TestWrapRunsJob(t *testing.T) {
	s := New(nil)
	called := false
	s.wrap("x", func(ctx context.Context) error {
		called = ctx != nil
		return nil
	})()
	if !called {
		t.Fatalf("job not invoked")
	}
}
