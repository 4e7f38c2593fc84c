package scheduler

import (
	"context"
	"fmt"
	"time"

	"ecss/internal/eventbus"
	"ecss/internal/jobs"
	"ecss/internal/launch"
	"ecss/internal/schedule"
	"ecss/internal/store"

	logx "ecss/pkg/logx"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Options configures a new Engine.
type Options struct {
	Store     store.Store
	Launcher  *launch.Launcher
	Triggers  *jobs.Registry
	Log       logx.Logger
	StartedBy string

	// Bus, if set, receives "job.fired"/"job.fire_failed" events for
	// observability; the engine never blocks on it and works fine if nil.
	Bus eventbus.Bus

	// MutationBuffer sizes the channel the REST layer enqueues mutations
	// on; a full buffer blocks the caller rather than drop a mutation.
	MutationBuffer int
}

// New builds an Engine. Call Start to load jobs from the store and begin
// firing; call Stop to drain the mutation consumer and the cron runner.
func New(opts Options) *Engine {
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.MutationBuffer <= 0 {
		opts.MutationBuffer = 64
	}
	if opts.StartedBy == "" {
		opts.StartedBy = "ecs-scheduler"
	}
	return &Engine{
		log:       opts.Log,
		st:        opts.Store,
		launcher:  opts.Launcher,
		triggers:  opts.Triggers,
		startedBy: opts.StartedBy,
		bus:       opts.Bus,
		c:         cron.New(cron.WithLocation(time.UTC)),
		entries:   make(map[string]*jobEntry),
		mutations: make(chan Mutation, opts.MutationBuffer),
		stopped:   make(chan struct{}),
	}
}

// publish fans a firing outcome out onto the event bus, if one is
// configured. Never blocks: eventbus.Bus.Publish is itself non-blocking.
func (e *Engine) publish(eventType string, data any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(eventbus.Event{Type: eventType, Data: data})
}

// Start loads every job from the store, schedules the non-suspended
// ones, starts the cron runner, and spins up the mutation consumer. It
// returns once the initial load has completed; the consumer and cron
// runner keep running until Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	all, err := e.st.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: load jobs: %w", err)
	}

	e.mu.Lock()
	for _, job := range all {
		if job.Suspended {
			e.entries[job.ID] = &jobEntry{job: job.Clone(), state: statePaused}
			continue
		}
		if err := e.scheduleLocked(job); err != nil {
			e.log.Error("failed to schedule job at startup",
				logx.String("job_id", job.ID), logx.Any("err", err))
		}
	}
	e.mu.Unlock()

	e.c.Start()
	go e.consume()

	e.log.Info("scheduler started", logx.Int("job_count", len(all)))
	return nil
}

// Stop halts the cron runner and the mutation consumer, blocking until
// any in-flight fire() call returns.
func (e *Engine) Stop(ctx context.Context) error {
	close(e.mutations)
	<-e.stopped

	stopCtx := e.c.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Enqueue submits a mutation to be applied by the single-consumer apply
// loop. It blocks if the mutation buffer is full.
func (e *Engine) Enqueue(m Mutation) {
	e.mutations <- m
}

func (e *Engine) consume() {
	defer close(e.stopped)
	for m := range e.mutations {
		if err := e.apply(m); err != nil {
			e.log.Error("failed to apply scheduler mutation",
				logx.String("kind", m.Kind.String()),
				logx.String("job_id", m.JobID),
				logx.Any("err", err))
		}
	}
}

func (e *Engine) apply(m Mutation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch m.Kind {
	case MutationCreate, MutationUpdate:
		if m.Job == nil {
			return fmt.Errorf("scheduler: mutation %s missing job", m.Kind)
		}
		e.removeLocked(m.Job.ID)
		if m.Job.Suspended {
			e.entries[m.Job.ID] = &jobEntry{job: m.Job.Clone(), state: statePaused}
			return nil
		}
		return e.scheduleLocked(m.Job)

	case MutationDelete:
		e.removeLocked(m.JobID)
		return nil

	case MutationPause:
		entry, ok := e.entries[m.JobID]
		if !ok {
			return fmt.Errorf("scheduler: pause: job %q not registered", m.JobID)
		}
		if entry.state == stateScheduled {
			e.c.Remove(entry.entryID)
		}
		entry.state = statePaused
		entry.job.Suspended = true
		return nil

	case MutationResume:
		entry, ok := e.entries[m.JobID]
		if !ok {
			return fmt.Errorf("scheduler: resume: job %q not registered", m.JobID)
		}
		job := entry.job
		job.Suspended = false
		return e.scheduleLocked(job)

	default:
		return fmt.Errorf("scheduler: unknown mutation kind %v", m.Kind)
	}
}

// scheduleLocked parses job's schedule and registers it on the cron
// runner, replacing any prior registration for the same id. Callers must
// hold e.mu.
func (e *Engine) scheduleLocked(job *jobs.Job) error {
	loc := time.UTC
	if job.Timezone != "" {
		l, err := time.LoadLocation(job.Timezone)
		if err != nil {
			return fmt.Errorf("scheduler: job %q: %w", job.ID, err)
		}
		loc = l
	}
	spec, err := schedule.Parse(job.Schedule, loc)
	if err != nil {
		return fmt.Errorf("scheduler: job %q: %w", job.ID, err)
	}

	entry := &jobEntry{job: job.Clone(), spec: spec, state: stateScheduled}
	id := job.ID
	if prev, ok := e.entries[id]; ok {
		e.c.Remove(prev.entryID)
	}
	entryID := e.c.Schedule(spec, cron.FuncJob(func() {
		e.fire(id)
	}))
	entry.entryID = entryID
	e.entries[id] = entry
	return nil
}

// removeLocked unregisters a job's cron entry (if any) and drops its
// entry. Callers must hold e.mu.
func (e *Engine) removeLocked(id string) {
	if entry, ok := e.entries[id]; ok {
		e.c.Remove(entry.entryID)
		delete(e.entries, id)
	}
}

// fire runs one firing of jobID: evaluate its trigger for a task count,
// launch that many tasks, then write the result back to both the
// in-memory entry and the store. It is invoked by the cron runner on its
// own goroutine, so it takes e.mu only long enough to read/write the
// entry.
func (e *Engine) fire(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runID := uuid.New().String()

	e.mu.Lock()
	entry, ok := e.entries[jobID]
	if !ok || entry.state != stateScheduled {
		e.mu.Unlock()
		return
	}
	entry.state = stateFiring
	job := entry.job.Clone()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if entry, ok := e.entries[jobID]; ok && entry.state == stateFiring {
			entry.state = stateScheduled
		}
		e.mu.Unlock()
	}()

	if job.ScheduleEnd != nil && time.Now().After(*job.ScheduleEnd) {
		e.log.Info("job past scheduleEnd, skipping firing", logx.String("job_id", jobID))
		return
	}
	if job.ScheduleStart != nil && time.Now().Before(*job.ScheduleStart) {
		return
	}

	count, err := e.triggers.Evaluate(ctx, job)
	if err != nil {
		e.log.Error("trigger evaluation failed", logx.String("job_id", jobID), logx.String("run_id", runID), logx.Any("err", err))
		e.publish("job.fire_failed", fireFailedEvent{JobID: jobID, RunID: runID, Stage: "trigger", Err: err.Error()})
		return
	}

	result, err := e.launcher.Launch(ctx, launch.Request{
		JobID:          job.ID,
		TaskDefinition: job.TaskDefinition,
		Count:          count,
		Overrides:      job.Overrides,
		StartedBy:      e.startedBy,
	})
	if err != nil {
		e.log.Error("launch failed", logx.String("job_id", jobID), logx.String("run_id", runID), logx.Any("err", err))
		e.publish("job.fire_failed", fireFailedEvent{JobID: jobID, RunID: runID, Stage: "launch", Err: err.Error()})
		return
	}
	if len(result.Failures) > 0 {
		e.log.Warn("launch reported partial failures",
			logx.String("job_id", jobID), logx.Any("failures", result.Failures))
	}

	now := time.Now().UTC()
	job.LastRun = &now
	job.LastRunTasks = result.Tasks

	e.mu.Lock()
	if entry, ok := e.entries[jobID]; ok {
		if next := entry.spec.Next(now); !next.IsZero() {
			job.EstimatedNextRun = &next
		}
		entry.job.ApplyEngineFields(job.Clone())
	}
	e.mu.Unlock()

	stored, err := e.st.Get(ctx, jobID)
	if err == nil {
		stored.ApplyEngineFields(job)
		err = e.st.Update(ctx, stored)
	}
	if err != nil {
		e.log.Error("failed to persist firing result", logx.String("job_id", jobID), logx.Any("err", err))
	}

	e.log.Info("job fired",
		logx.String("job_id", jobID),
		logx.String("run_id", runID),
		logx.Int("task_count", len(result.Tasks)),
		logx.Int("failure_count", len(result.Failures)))

	e.publish("job.fired", jobFiredEvent{
		JobID:        jobID,
		RunID:        runID,
		TaskCount:    len(result.Tasks),
		FailureCount: len(result.Failures),
		FiredAt:      now,
	})
}

// jobFiredEvent and fireFailedEvent are the Data payloads published onto
// the event bus by fire(); kept JSON-serializable per the bus's contract.
// RunID identifies one firing attempt, distinct from the job's own id, so
// consumers can correlate log lines and events for the same firing.
type jobFiredEvent struct {
	JobID        string    `json:"job_id"`
	RunID        string    `json:"run_id"`
	TaskCount    int       `json:"task_count"`
	FailureCount int       `json:"failure_count"`
	FiredAt      time.Time `json:"fired_at"`
}

type fireFailedEvent struct {
	JobID string `json:"job_id"`
	RunID string `json:"run_id"`
	Stage string `json:"stage"`
	Err   string `json:"err"`
}

// Snapshot returns a defensive copy of every job currently registered
// with the engine (scheduled or paused). The API layer does not use it;
// its list/get handlers read the store.
func (e *Engine) Snapshot() []*jobs.Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*jobs.Job, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, entry.job.Clone())
	}
	return out
}

// Get returns a defensive copy of one registered job, or nil if unknown.
func (e *Engine) Get(id string) *jobs.Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[id]
	if !ok {
		return nil
	}
	return entry.job.Clone()
}
