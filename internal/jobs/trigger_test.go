package jobs

import (
	"context"
	"errors"
	"testing"
)

type fakeProber struct {
	depth int64
	err   error
}

func (f fakeProber) ApproxDepth(ctx context.Context, queueName string) (int64, error) {
	return f.depth, f.err
}

func TestQueueDepthEvaluatorScalesWithDepth(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(fakeProber{depth: 23})
	j := validJob()
	j.TaskCount = 1
	j.MaxCount = 50
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "q", MessagesPerTask: 10}

	got, err := reg.Evaluate(context.Background(), j)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	// ceil(23/10) = 3
	if got != 3 {
		t.Fatalf("got %d tasks, want 3", got)
	}
}

func TestQueueDepthEvaluatorNeverBelowStaticFloor(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(fakeProber{depth: 1})
	j := validJob()
	j.TaskCount = 5
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "q", MessagesPerTask: 10}

	got, err := reg.Evaluate(context.Background(), j)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != 5 {
		t.Fatalf("got %d tasks, want floor of 5", got)
	}
}

func TestQueueDepthEvaluatorClampsToMaxCount(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(fakeProber{depth: 1000})
	j := validJob()
	j.TaskCount = 1
	j.MaxCount = 4
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "q", MessagesPerTask: 1}

	got, err := reg.Evaluate(context.Background(), j)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != 4 {
		t.Fatalf("got %d tasks, want clamp of 4", got)
	}
}

func TestQueueDepthEvaluatorZeroDepthOverridesFloor(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(fakeProber{depth: 0})
	j := validJob()
	j.TaskCount = 5
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "q", MessagesPerTask: 10}

	got, err := reg.Evaluate(context.Background(), j)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != 0 {
		t.Fatalf("got %d tasks, want 0 for empty queue", got)
	}
}

func TestQueueDepthEvaluatorClampsToHardCeilingWhenUnset(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(fakeProber{depth: 100000})
	j := validJob()
	j.TaskCount = 1
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "q", MessagesPerTask: 1}

	got, err := reg.Evaluate(context.Background(), j)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != maxTasks {
		t.Fatalf("got %d tasks, want hard ceiling of %d", got, maxTasks)
	}
}

func TestQueueDepthEvaluatorPropagatesProbeError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	reg := NewRegistry(fakeProber{err: boom})
	j := validJob()
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "q", MessagesPerTask: 1}

	if _, err := reg.Evaluate(context.Background(), j); err == nil {
		t.Fatal("expected probe error to propagate")
	}
}

func TestEvaluateUnregisteredTriggerType(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)
	j := validJob()
	j.Trigger = &Trigger{Type: "unknown"}
	if _, err := reg.Evaluate(context.Background(), j); err == nil {
		t.Fatal("expected error for unregistered trigger type")
	}
}

func TestEvaluateUntriggeredJobReturnsStaticCount(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)
	j := validJob()
	j.TaskCount = 7
	got, err := reg.Evaluate(context.Background(), j)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}
