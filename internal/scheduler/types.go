package scheduler

import (
	"sync"

	"ecss/internal/eventbus"
	"ecss/internal/jobs"
	"ecss/internal/launch"
	"ecss/internal/schedule"
	"ecss/internal/store"

	logx "ecss/pkg/logx"

	"github.com/robfig/cron/v3"
)

// MutationKind identifies what a Mutation asks the engine to do.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
	MutationPause
	MutationResume
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	case MutationPause:
		return "pause"
	case MutationResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Mutation communicates a job change from the REST layer to the
// scheduler's single-consumer apply loop. Job is required for Create and
// Update, ignored for Delete/Pause/Resume.
type Mutation struct {
	Kind MutationKind
	JobID string
	Job   *jobs.Job
}

// jobState is SCHEDULED, PAUSED, or (transiently, while the fire
// callback is running) FIRING.
type jobState int

const (
	stateScheduled jobState = iota
	statePaused
	stateFiring
)

type jobEntry struct {
	job     *jobs.Job
	spec    *schedule.Spec
	entryID cron.EntryID
	state   jobState
}

// Engine is the scheduler's composition unit: a cron runner, a job
// store, a task launcher, a trigger registry, and the mutation channel
// that serializes API-driven changes against the runner.
type Engine struct {
	log       logx.Logger
	st        store.Store
	launcher  *launch.Launcher
	triggers  *jobs.Registry
	startedBy string
	bus       eventbus.Bus

	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]*jobEntry

	mutations chan Mutation
	stopped   chan struct{}
}
