package launch

import (
	"context"
	"testing"

	"ecss/internal/jobs"

	logx "ecss/pkg/logx"

	"github.com/stretchr/testify/require"
)

func TestLaunchChunksAboveMaxChunkSize(t *testing.T) {
	t.Parallel()
	orch := NewFakeOrchestrator()
	l := New(orch, "test-cluster", 0, 0, logx.Nop())

	result, err := l.Launch(context.Background(), Request{
		JobID:          "job-1",
		TaskDefinition: "worker",
		Count:          25,
		StartedBy:      "ecs-scheduler",
	})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 25)

	calls := orch.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, []int{10, 10, 5}, []int{calls[0].Count, calls[1].Count, calls[2].Count})
}

func TestLaunchZeroCountNoOp(t *testing.T) {
	t.Parallel()
	orch := NewFakeOrchestrator()
	l := New(orch, "test-cluster", 0, 0, logx.Nop())

	result, err := l.Launch(context.Background(), Request{TaskDefinition: "worker", Count: 0})
	require.NoError(t, err)
	require.Empty(t, result.Tasks)
	require.Empty(t, orch.Calls())
}

func TestLaunchTagsOverridesWithJobID(t *testing.T) {
	t.Parallel()
	orch := NewFakeOrchestrator()
	l := New(orch, "test-cluster", 0, 0, logx.Nop())

	_, err := l.Launch(context.Background(), Request{
		JobID:          "job-42",
		TaskDefinition: "worker",
		Count:          1,
		Overrides: []jobs.Override{
			{ContainerName: "main", Environment: map[string]string{"FOO": "bar"}},
		},
	})
	require.NoError(t, err)

	calls := orch.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Overrides, 1)

	env := calls[0].Overrides[0].Environment
	require.Contains(t, env, EnvVar{Name: OverrideTag, Value: "job-42"})
}

type failingOrchestrator struct {
	failFirst bool
	calls     int
}

func (f *failingOrchestrator) RunTask(ctx context.Context, in RunTaskInput) (RunTaskOutput, error) {
	f.calls++
	if f.failFirst && f.calls == 1 {
		return RunTaskOutput{}, errCapacity
	}
	tasks := make([]jobs.TaskInfo, in.Count)
	return RunTaskOutput{Tasks: tasks}, nil
}

var errCapacity = &capacityError{}

type capacityError struct{}

func (*capacityError) Error() string { return "insufficient capacity" }

func TestLaunchContinuesAfterChunkFailure(t *testing.T) {
	t.Parallel()
	orch := &failingOrchestrator{failFirst: true}
	l := New(orch, "test-cluster", 0, 0, logx.Nop())

	result, err := l.Launch(context.Background(), Request{
		TaskDefinition: "worker",
		Count:          15,
	})
	require.NoError(t, err, "Launch should accumulate errors, not return one")
	require.Len(t, result.Failures, 1)
	require.Len(t, result.Tasks, 5, "second chunk of 10+5 split")
}
