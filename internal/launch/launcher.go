package launch

import (
	"context"
	"fmt"

	"ecss/internal/jobs"

	logx "ecss/pkg/logx"

	"golang.org/x/time/rate"
)

// MaxChunkSize is the largest task count a single orchestrator call may
// request, mirroring the ECS RunTask API's own per-call limit. A
// configured chunk size is clamped to this ceiling, never raised above it.
const MaxChunkSize = 10

// Launcher launches tasks for a job, splitting any count above its
// configured chunk size into multiple orchestrator calls and pacing those
// calls against a configured rate limit so a burst of firings can't
// overrun the orchestrator's own call-rate limit.
type Launcher struct {
	orchestrator Orchestrator
	cluster      string
	chunkSize    int
	limiter      *rate.Limiter
	log          logx.Logger
}

// New creates a Launcher. ratePerSec <= 0 disables pacing (every chunk is
// submitted as fast as the orchestrator allows). chunkSize <= 0 or above
// MaxChunkSize falls back to MaxChunkSize.
func New(orchestrator Orchestrator, cluster string, ratePerSec, chunkSize int, log logx.Logger) *Launcher {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Launcher{orchestrator: orchestrator, cluster: cluster, chunkSize: chunkSize, limiter: limiter, log: log}
}

// Launch starts req.Count tasks, chunked into calls of at most the
// Launcher's configured chunk size. A failure on one chunk is logged and
// accumulated into the result's Failures; later chunks still run, so the
// caller gets whatever partial success was possible rather than an
// all-or-nothing outcome.
func (l *Launcher) Launch(ctx context.Context, req Request) (Result, error) {
	if req.Count <= 0 {
		return Result{}, nil
	}

	overrides := tagOverrides(req.Overrides, req.JobID)

	var result Result
	remaining := req.Count
	for remaining > 0 {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return result, fmt.Errorf("launch: rate limiter: %w", err)
			}
		}

		chunk := remaining
		if chunk > l.chunkSize {
			chunk = l.chunkSize
		}

		out, err := l.orchestrator.RunTask(ctx, RunTaskInput{
			Cluster:        l.cluster,
			TaskDefinition: req.TaskDefinition,
			Count:          chunk,
			StartedBy:      req.StartedBy,
			Overrides:      overrides,
		})
		if err != nil {
			l.log.Warn("launch chunk failed",
				logx.String("job_id", req.JobID),
				logx.String("task_definition", req.TaskDefinition),
				logx.Int("chunk_size", chunk),
				logx.Any("err", err))
			result.Failures = append(result.Failures, err.Error())
			remaining -= chunk
			continue
		}
		if len(out.Failures) > 0 {
			l.log.Warn("launch chunk reported partial failures",
				logx.String("job_id", req.JobID),
				logx.String("task_definition", req.TaskDefinition),
				logx.Any("failures", out.Failures))
			result.Failures = append(result.Failures, out.Failures...)
		}
		result.Tasks = append(result.Tasks, out.Tasks...)
		remaining -= chunk
	}
	return result, nil
}

// tagOverrides stamps OverrideTag=jobID onto every override's environment,
// deep-copying so the caller's job document is never mutated, then
// converts to the orchestrator's flat name/value shape.
func tagOverrides(overrides []jobs.Override, jobID string) []ContainerOverride {
	if len(overrides) == 0 {
		return nil
	}
	out := make([]ContainerOverride, 0, len(overrides))
	for _, o := range overrides {
		env := make([]EnvVar, 0, len(o.Environment)+1)
		for k, v := range o.Environment {
			env = append(env, EnvVar{Name: k, Value: v})
		}
		env = append(env, EnvVar{Name: OverrideTag, Value: jobID})
		out = append(out, ContainerOverride{ContainerName: o.ContainerName, Environment: env})
	}
	return out
}
