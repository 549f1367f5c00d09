package storage

import (
	"context"
	"testing"
	"time"
)

func newTestRunLog(t *testing.T) *RunLog {
	t.Helper()
	log, err := NewRunLogInMemory()
	if err != nil {
		t.Fatalf("NewRunLogInMemory: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRecordFillsDefaults(t *testing.T) {
	log := newTestRunLog(t)
	ctx := context.Background()

	id, err := log.Record(ctx, RunRecord{
		ComponentID:  "billing",
		PathHash:     "root",
		Strategy:     "drill-generic",
		PromptTokens: 100,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	records, err := log.Recent(ctx, "billing", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.ID != id {
		t.Errorf("id = %q, want %q", r.ID, id)
	}
	if r.CreatedAt.IsZero() {
		t.Error("created_at not filled")
	}
	if r.Error != "" {
		t.Errorf("error = %q, want empty", r.Error)
	}
}

func TestRecentOrderingAndFilter(t *testing.T) {
	log := newTestRunLog(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []RunRecord{
		{ComponentID: "billing", PathHash: "root", Strategy: "drill-generic", CreatedAt: base},
		{ComponentID: "billing", PathHash: "aaa", Strategy: "drill-pattern-b", CreatedAt: base.Add(time.Minute)},
		{ComponentID: "shipping", PathHash: "root", Strategy: "drill-generic", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if _, err := log.Record(ctx, r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	records, err := log.Recent(ctx, "billing", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d billing records, want 2", len(records))
	}
	if records[0].PathHash != "aaa" {
		t.Errorf("first record = %q, want the newest (aaa)", records[0].PathHash)
	}

	all, err := log.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d records across components, want 3", len(all))
	}

	limited, err := log.Recent(ctx, "", 1)
	if err != nil {
		t.Fatalf("Recent limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ComponentID != "shipping" {
		t.Errorf("limit 1 returned %+v, want the newest shipping run", limited)
	}
}

func TestRecordPreservesError(t *testing.T) {
	log := newTestRunLog(t)
	ctx := context.Background()

	if _, err := log.Record(ctx, RunRecord{
		ComponentID: "billing",
		PathHash:    "root",
		Strategy:    "drill-generic",
		Error:       "validation failed: node type mismatch",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := log.Recent(ctx, "billing", 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if records[0].Error != "validation failed: node type mismatch" {
		t.Errorf("error = %q", records[0].Error)
	}
}

func TestDeleteComponent(t *testing.T) {
	log := newTestRunLog(t)
	ctx := context.Background()

	for _, component := range []string{"billing", "billing", "shipping"} {
		if _, err := log.Record(ctx, RunRecord{ComponentID: component, PathHash: "root", Strategy: "drill-generic"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := log.DeleteComponent(ctx, "billing"); err != nil {
		t.Fatalf("DeleteComponent: %v", err)
	}

	records, err := log.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 || records[0].ComponentID != "shipping" {
		t.Errorf("got %+v, want only the shipping run", records)
	}
}
