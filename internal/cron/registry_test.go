package cron

import (
	"context"
	"strings"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry()
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	if err := registry.Register(jobA); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := registry.Register(jobB); err != nil {
		t.Fatalf("register b: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	// ensure caller cannot mutate internal slice
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicatesAndNil(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "a"}, nil, &stubJob{name: "a"})
	if got := registry.Names(); len(got) != 1 {
		t.Fatalf("expected duplicates to be dropped, got %v", got)
	}
	if err := registry.Register(&stubJob{name: "a"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil job error")
	}
}

func TestRegistrySelect(t *testing.T) {
	registry := NewRegistry(&stubJob{name: CampaignStatsJobName}, &stubJob{name: ReportsExportJobName})
	selected := registry.Select(func(name string) bool { return strings.HasPrefix(name, "campaign") })
	if got := selected.Names(); len(got) != 1 || got[0] != CampaignStatsJobName {
		t.Fatalf("unexpected selection %v", got)
	}
	if got := registry.Select(nil).Names(); len(got) != 2 {
		t.Fatalf("nil filter keeps every job, got %v", got)
	}
}
