package jobs

import (
	"context"
	"fmt"
	"math"
)

// QueueDepthProber reports the approximate number of messages visible in
// a named queue. Implementations wrap a concrete transport (SQS, or a
// fake for tests); the scheduler only ever depends on this interface.
type QueueDepthProber interface {
	ApproxDepth(ctx context.Context, queueName string) (int64, error)
}

// TriggerEvaluator computes how many tasks a triggered job's next firing
// should launch, given the job's own static TaskCount as a floor.
type TriggerEvaluator interface {
	Evaluate(ctx context.Context, job *Job) (taskCount int, err error)
}

// Registry looks up a TriggerEvaluator by trigger type name.
type Registry struct {
	evaluators map[string]TriggerEvaluator
}

// NewRegistry builds a trigger registry with the built-in queue-depth
// evaluator registered under TriggerTypeQueueDepth, backed by prober.
func NewRegistry(prober QueueDepthProber) *Registry {
	r := &Registry{evaluators: map[string]TriggerEvaluator{}}
	if prober != nil {
		r.Register(TriggerTypeQueueDepth, &queueDepthEvaluator{prober: prober})
	}
	return r
}

// Register installs an evaluator for the given trigger type, overwriting
// any previous registration. Callers may use this to add custom trigger
// types beyond the built-in queue-depth one.
func (r *Registry) Register(triggerType string, eval TriggerEvaluator) {
	r.evaluators[triggerType] = eval
}

// Evaluate resolves job's trigger (if any) and returns the task count for
// its next firing. A job with no trigger always returns its static
// TaskCount unchanged.
func (r *Registry) Evaluate(ctx context.Context, job *Job) (int, error) {
	if job.Trigger == nil {
		return job.TaskCount, nil
	}
	eval, ok := r.evaluators[job.Trigger.Type]
	if !ok {
		return 0, fmt.Errorf("jobs: no evaluator registered for trigger type %q", job.Trigger.Type)
	}
	return eval.Evaluate(ctx, job)
}

// queueDepthEvaluator implements the SQS-style trigger: the number of
// tasks to launch scales with how many messages are waiting, clamped
// between the job's own TaskCount floor and MaxCount (default 50). An
// empty queue yields 0, below the floor.
type queueDepthEvaluator struct {
	prober QueueDepthProber
}

func (e *queueDepthEvaluator) Evaluate(ctx context.Context, job *Job) (int, error) {
	tr := job.Trigger
	depth, err := e.prober.ApproxDepth(ctx, tr.QueueName)
	if err != nil {
		return 0, fmt.Errorf("jobs: probe queue %q: %w", tr.QueueName, err)
	}

	if depth == 0 {
		return 0, nil
	}

	perTask := tr.MessagesPerTask
	if perTask < 1 {
		perTask = 1
	}
	desired := int(math.Ceil(float64(depth) / float64(perTask)))

	count := job.TaskCount
	if desired > count {
		count = desired
	}

	ceiling := job.MaxCount
	if ceiling < 1 || ceiling > maxTasks {
		ceiling = maxTasks
	}
	if count > ceiling {
		count = ceiling
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}
