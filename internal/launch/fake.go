package launch

import (
	"context"
	"fmt"
	"sync"

	"ecss/internal/jobs"
)

// FakeOrchestrator is an in-memory Orchestrator used by tests and local
// demos: every RunTask call succeeds and synthesizes a task ARN, so
// callers can exercise the chunking/pacing/tagging logic in this package
// without a real ECS cluster.
type FakeOrchestrator struct {
	mu    sync.Mutex
	calls []RunTaskInput
	next  int
}

func NewFakeOrchestrator() *FakeOrchestrator {
	return &FakeOrchestrator{}
}

func (f *FakeOrchestrator) RunTask(ctx context.Context, in RunTaskInput) (RunTaskOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)

	tasks := make([]jobs.TaskInfo, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		f.next++
		tasks = append(tasks, jobs.TaskInfo{
			TaskID: fmt.Sprintf("arn:fake:task/%s/%d", in.TaskDefinition, f.next),
			HostID: fmt.Sprintf("arn:fake:container-instance/%d", f.next),
		})
	}
	return RunTaskOutput{Tasks: tasks}, nil
}

// Calls returns every RunTask input received so far, for test assertions.
func (f *FakeOrchestrator) Calls() []RunTaskInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RunTaskInput(nil), f.calls...)
}
