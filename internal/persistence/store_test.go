package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/coordinator/internal/agent"
	"github.com/aristath/coordinator/internal/scheduler"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun() *Run {
	started := time.Now().Add(-time.Minute).UTC()
	finished := time.Now().UTC()
	return &Run{
		Objective:  "build the widget",
		Parallel:   true,
		StartedAt:  started,
		FinishedAt: finished,
		Tasks: []TaskRecord{
			{Path: "0", Description: "design", AgentName: "planner", Status: scheduler.TaskCompleted, Result: "design done"},
			{Path: "1", Description: "implement", AgentName: "coder", Status: scheduler.TaskFailed, Result: "error: boom"},
			{Path: "1.0", Description: "subtask", AgentName: "coder", Status: scheduler.TaskPending},
		},
		Journal: []scheduler.Entry{
			{Kind: scheduler.EntryExecution, Agent: "planner", Task: "design", At: started},
			{Kind: scheduler.EntryDelegation, From: "coder", To: "tester", Task: "verify", At: finished},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero run id")
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if run.Objective != "build the widget" || !run.Parallel {
		t.Errorf("run header = %+v", run)
	}
	if len(run.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(run.Tasks))
	}
	if run.Tasks[0].Path != "0" || run.Tasks[0].Status != scheduler.TaskCompleted {
		t.Errorf("task 0 = %+v", run.Tasks[0])
	}
	if run.Tasks[1].Status != scheduler.TaskFailed || run.Tasks[1].Result != "error: boom" {
		t.Errorf("task 1 = %+v", run.Tasks[1])
	}
	if run.Tasks[2].Path != "1.0" {
		t.Errorf("sub-task path = %q", run.Tasks[2].Path)
	}

	if len(run.Journal) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(run.Journal))
	}
	if run.Journal[0].Kind != scheduler.EntryExecution || run.Journal[0].Agent != "planner" {
		t.Errorf("journal 0 = %+v", run.Journal[0])
	}
	if run.Journal[1].Kind != scheduler.EntryDelegation || run.Journal[1].To != "tester" {
		t.Errorf("journal 1 = %+v", run.Journal[1])
	}
}

func TestGetRunNotFound(t *testing.T) {
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("creating memory store: %v", err)
	}
	defer store.Close()

	if _, err := store.GetRun(context.Background(), 9999); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestListRuns(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	firstID, err := store.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatal(err)
	}

	second := sampleRun()
	second.Objective = "second run"
	second.Tasks = second.Tasks[:1] // only the completed task
	secondID, err := store.SaveRun(ctx, second)
	if err != nil {
		t.Fatal(err)
	}

	summaries, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	// Newest first.
	if summaries[0].ID != secondID || summaries[1].ID != firstID {
		t.Errorf("order = [%d, %d], want newest first", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].Tasks != 1 || summaries[0].Failed != 0 {
		t.Errorf("second run summary = %+v", summaries[0])
	}
	if summaries[1].Tasks != 3 || summaries[1].Failed != 1 {
		t.Errorf("first run summary = %+v", summaries[1])
	}
}

func TestRecordRunFlattensPlanTree(t *testing.T) {
	plan := &scheduler.Plan{
		Objective: "nested plan",
		Tasks: []*scheduler.Task{
			scheduler.NewTask("top one", "a"),
			scheduler.NewTask("top two", "b",
				scheduler.NewTask("child", "c",
					scheduler.NewTask("grandchild", "d"),
				),
			),
		},
	}
	plan.Tasks[0].Status = scheduler.TaskCompleted
	plan.Tasks[0].Result = &agent.Result{Content: "done"}

	journal := []scheduler.Entry{{Kind: scheduler.EntryExecution, Agent: "a", Task: "top one", At: time.Now()}}
	run := RecordRun(plan, journal, false, time.Now().Add(-time.Second), time.Now())

	wantPaths := []string{"0", "1", "1.0", "1.0.0"}
	if len(run.Tasks) != len(wantPaths) {
		t.Fatalf("expected %d task records, got %d", len(wantPaths), len(run.Tasks))
	}
	for i, want := range wantPaths {
		if run.Tasks[i].Path != want {
			t.Errorf("task %d path = %q, want %q", i, run.Tasks[i].Path, want)
		}
	}
	if run.Tasks[0].Result != "done" {
		t.Errorf("task 0 result = %q", run.Tasks[0].Result)
	}
	if run.Tasks[1].Result != "" {
		t.Errorf("task without result should store empty string, got %q", run.Tasks[1].Result)
	}
	if len(run.Journal) != 1 {
		t.Errorf("journal not carried: %+v", run.Journal)
	}
}
