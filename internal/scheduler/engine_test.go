package scheduler

import (
	"context"
	"testing"
	"time"

	"ecss/internal/jobs"
	"ecss/internal/launch"
	"ecss/internal/store"

	logx "ecss/pkg/logx"
)

func testEngine(t *testing.T, st store.Store, orch *launch.FakeOrchestrator) *Engine {
	t.Helper()
	return New(Options{
		Store:    st,
		Launcher: launch.New(orch, "test-cluster", 0, 0, logx.Nop()),
		Triggers: jobs.NewRegistry(nil),
		Log:      logx.Nop(),
	})
}

func TestEngineStartSchedulesStoredJobs(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()
	if err := st.Create(ctx, &jobs.Job{ID: "j1", TaskDefinition: "worker", Schedule: "0 * * * * * * *", TaskCount: 1}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	orch := launch.NewFakeOrchestrator()
	e := testEngine(t, st, orch)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	if got := e.Get("j1"); got == nil {
		t.Fatal("expected job j1 to be registered after Start")
	}
}

func TestEngineSkipsSuspendedJobsOnStart(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()
	if err := st.Create(ctx, &jobs.Job{ID: "j1", TaskDefinition: "worker", Schedule: "0 * * * * * * *", TaskCount: 1, Suspended: true}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	e := testEngine(t, st, launch.NewFakeOrchestrator())
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	got := e.Get("j1")
	if got == nil {
		t.Fatal("expected suspended job to still be tracked")
	}
	if !got.Suspended {
		t.Fatal("expected job to remain marked suspended")
	}
}

func TestEngineCreateUpdateDeleteMutations(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()
	e := testEngine(t, st, launch.NewFakeOrchestrator())
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	job := &jobs.Job{ID: "j2", TaskDefinition: "worker", Schedule: "0 * * * * * * *", TaskCount: 1}
	e.Enqueue(Mutation{Kind: MutationCreate, JobID: job.ID, Job: job})
	waitForEntry(t, e, "j2")

	job2 := job.Clone()
	job2.TaskCount = 5
	e.Enqueue(Mutation{Kind: MutationUpdate, JobID: job2.ID, Job: job2})
	waitUntil(t, func() bool {
		got := e.Get("j2")
		return got != nil && got.TaskCount == 5
	})

	e.Enqueue(Mutation{Kind: MutationDelete, JobID: "j2"})
	waitUntil(t, func() bool { return e.Get("j2") == nil })
}

func TestEnginePauseResumeMutations(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()
	e := testEngine(t, st, launch.NewFakeOrchestrator())
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	job := &jobs.Job{ID: "j3", TaskDefinition: "worker", Schedule: "0 * * * * * * *", TaskCount: 1}
	e.Enqueue(Mutation{Kind: MutationCreate, JobID: job.ID, Job: job})
	waitForEntry(t, e, "j3")

	e.Enqueue(Mutation{Kind: MutationPause, JobID: "j3"})
	waitUntil(t, func() bool {
		got := e.Get("j3")
		return got != nil && got.Suspended
	})

	e.Enqueue(Mutation{Kind: MutationResume, JobID: "j3"})
	waitUntil(t, func() bool {
		got := e.Get("j3")
		return got != nil && !got.Suspended
	})
}

func TestEngineFireLaunchesAndRecordsLastRun(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()
	job := &jobs.Job{ID: "j4", TaskDefinition: "worker", Schedule: "0 * * * * * * *", TaskCount: 2}
	if err := st.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	orch := launch.NewFakeOrchestrator()
	e := testEngine(t, st, orch)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	e.fire("j4")

	stored, err := st.Get(ctx, "j4")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.LastRun == nil {
		t.Fatal("expected LastRun to be set after firing")
	}
	if len(stored.LastRunTasks) != 2 {
		t.Fatalf("got %d last run tasks, want 2", len(stored.LastRunTasks))
	}
	if len(orch.Calls()) != 1 {
		t.Fatalf("got %d orchestrator calls, want 1", len(orch.Calls()))
	}
}

func waitForEntry(t *testing.T, e *Engine, id string) {
	t.Helper()
	waitUntil(t, func() bool { return e.Get(id) != nil })
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
