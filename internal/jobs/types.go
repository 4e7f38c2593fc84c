package jobs

import (
	"bytes"
	"encoding/json"
	"time"
)

// Job is a persistent document describing an ECS scheduled task: how
// often to run it, how many copies to launch, and the ECS overrides to
// apply at launch. Fields tagged "engine-managed" are written by the
// scheduler as it runs jobs and are silently dropped (never rejected) on
// inbound writes, so a client can safely round-trip a GET response back
// through a PUT.
type Job struct {
	ID             string `json:"id"`
	TaskDefinition string `json:"taskDefinition"`

	// Schedule is the 8-field schedule grammar string, stored with any
	// "?" wildcards already resolved to concrete values.
	Schedule      string     `json:"schedule"`
	ScheduleStart *time.Time `json:"scheduleStart,omitempty"`
	ScheduleEnd   *time.Time `json:"scheduleEnd,omitempty"`
	Timezone      string     `json:"timezone,omitempty"`

	TaskCount int        `json:"taskCount"`
	MaxCount  int        `json:"maxCount,omitempty"`
	Trigger   *Trigger   `json:"trigger,omitempty"`
	Overrides []Override `json:"overrides,omitempty"`

	Suspended bool `json:"suspended"`

	// The following are engine-managed: set by the scheduler, read-only
	// to API clients.
	LastRun          *time.Time `json:"lastRun,omitempty"`
	LastRunTasks     []TaskInfo `json:"lastRunTasks,omitempty"`
	EstimatedNextRun *time.Time `json:"estimatedNextRun,omitempty"`
}

// Trigger configures an event-driven job: instead of firing strictly on
// its schedule, the job's task count for a given firing is derived from
// an external signal (currently, SQS approximate queue depth).
type Trigger struct {
	Type            string `json:"type"`
	QueueName       string `json:"queueName,omitempty"`
	MessagesPerTask int    `json:"messagesPerTask,omitempty"`
}

// TriggerTypeQueueDepth is the only built-in trigger type, named "sqs" to
// mirror the queue service it was modeled on.
const TriggerTypeQueueDepth = "sqs"

// UnmarshalJSON rejects unknown fields: unlike the top-level Job document,
// a trigger body is a closed object.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	type alias Trigger
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var a alias
	if err := dec.Decode(&a); err != nil {
		return err
	}
	*t = Trigger(a)
	return nil
}

// Override holds per-container ECS task overrides applied at launch time.
type Override struct {
	ContainerName string            `json:"containerName"`
	Environment   map[string]string `json:"environment,omitempty"`
}

// UnmarshalJSON rejects unknown fields: like Trigger, an override entry is
// a closed object.
func (o *Override) UnmarshalJSON(data []byte) error {
	type alias Override
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var a alias
	if err := dec.Decode(&a); err != nil {
		return err
	}
	*o = Override(a)
	return nil
}

// TaskInfo records one ECS task launched by the most recent firing of a job.
type TaskInfo struct {
	TaskID string `json:"taskId,omitempty"`
	HostID string `json:"hostId,omitempty"`
}

// Clone returns a deep copy of the job, so callers can hand out snapshots
// without sharing mutable state with the store's copy.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.ScheduleStart != nil {
		t := *j.ScheduleStart
		out.ScheduleStart = &t
	}
	if j.ScheduleEnd != nil {
		t := *j.ScheduleEnd
		out.ScheduleEnd = &t
	}
	if j.Trigger != nil {
		tr := *j.Trigger
		out.Trigger = &tr
	}
	if j.Overrides != nil {
		out.Overrides = make([]Override, len(j.Overrides))
		for i, o := range j.Overrides {
			oc := o
			if o.Environment != nil {
				oc.Environment = make(map[string]string, len(o.Environment))
				for k, v := range o.Environment {
					oc.Environment[k] = v
				}
			}
			out.Overrides[i] = oc
		}
	}
	if j.LastRun != nil {
		t := *j.LastRun
		out.LastRun = &t
	}
	if j.LastRunTasks != nil {
		out.LastRunTasks = append([]TaskInfo(nil), j.LastRunTasks...)
	}
	if j.EstimatedNextRun != nil {
		t := *j.EstimatedNextRun
		out.EstimatedNextRun = &t
	}
	return &out
}

// ApplyEngineFields copies the engine-managed fields from src onto j,
// used by the scheduler after a firing to record lastRun/lastRunTasks/
// estimatedNextRun without disturbing the rest of the document.
func (j *Job) ApplyEngineFields(src *Job) {
	j.LastRun = src.LastRun
	j.LastRunTasks = src.LastRunTasks
	j.EstimatedNextRun = src.EstimatedNextRun
}
