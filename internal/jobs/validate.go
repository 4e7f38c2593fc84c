package jobs

import (
	"fmt"
	"strings"
	"time"

	"ecss/internal/schedule"
)

const (
	minTasks = 1
	maxTasks = 50
)

// ValidationError aggregates every field-level failure found while
// validating a job document, so a caller can report them all at once
// instead of stopping at the first.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return "job validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// Validate checks a job document's fields for internal consistency. It
// does not touch LastRun/LastRunTasks/EstimatedNextRun — those are
// engine-managed and dropped by the caller before validation ever sees
// them (see Sanitize).
func Validate(j *Job) error {
	verr := &ValidationError{}

	if strings.TrimSpace(j.ID) == "" {
		verr.add("id", "must not be empty")
	}

	if strings.TrimSpace(j.TaskDefinition) == "" {
		verr.add("taskDefinition", "is required")
	} else if strings.Contains(j.TaskDefinition, ":") {
		verr.add("taskDefinition", "must not contain a revision number")
	}

	if strings.TrimSpace(j.Schedule) == "" {
		verr.add("schedule", "is required")
	} else if schedule.HasWildcard(j.Schedule) {
		verr.add("schedule", "contains an unresolved \"?\" wildcard; resolve before saving")
	} else {
		loc := time.UTC
		if j.Timezone != "" {
			var err error
			loc, err = time.LoadLocation(j.Timezone)
			if err != nil {
				verr.add("timezone", fmt.Sprintf("unknown timezone %q", j.Timezone))
				loc = time.UTC
			}
		}
		if _, err := schedule.Parse(j.Schedule, loc); err != nil {
			verr.add("schedule", fmt.Sprintf("invalid schedule syntax: %v", err))
		}
	}

	if j.ScheduleStart != nil && j.ScheduleEnd != nil && j.ScheduleEnd.Before(*j.ScheduleStart) {
		verr.add("scheduleEnd", "must not be before scheduleStart")
	}

	if j.TaskCount != 0 && (j.TaskCount < minTasks || j.TaskCount > maxTasks) {
		verr.add("taskCount", fmt.Sprintf("must be between %d and %d", minTasks, maxTasks))
	}
	if j.MaxCount != 0 && (j.MaxCount < minTasks || j.MaxCount > maxTasks) {
		verr.add("maxCount", fmt.Sprintf("must be between %d and %d", minTasks, maxTasks))
	}
	if j.MaxCount != 0 && j.MaxCount < j.TaskCount {
		verr.add("maxCount", "must be >= taskCount")
	}

	if j.Trigger != nil {
		validateTrigger(j.Trigger, verr)
	}

	seenContainers := make(map[string]bool, len(j.Overrides))
	for i, o := range j.Overrides {
		if strings.TrimSpace(o.ContainerName) == "" {
			verr.add("overrides", fmt.Sprintf("overrides[%d]: containerName is required", i))
			continue
		}
		if seenContainers[o.ContainerName] {
			verr.add("overrides", fmt.Sprintf("overrides[%d]: containerName %q is not unique", i, o.ContainerName))
			continue
		}
		seenContainers[o.ContainerName] = true
	}

	if verr.empty() {
		return nil
	}
	return verr
}

func validateTrigger(tr *Trigger, verr *ValidationError) {
	if strings.TrimSpace(tr.Type) == "" {
		verr.add("trigger.type", "is required")
		return
	}
	if tr.Type == TriggerTypeQueueDepth && strings.TrimSpace(tr.QueueName) == "" {
		verr.add("trigger.queueName", fmt.Sprintf("%q trigger type requires queueName", TriggerTypeQueueDepth))
	}
	if tr.MessagesPerTask != 0 && tr.MessagesPerTask < 1 {
		verr.add("trigger.messagesPerTask", "must be >= 1")
	}
}

// Sanitize clears engine-managed fields on an inbound job document so a
// client-supplied value for them is silently ignored rather than
// rejected, then copies them back from current (the job's existing
// stored state, or nil for a brand new job).
func Sanitize(incoming, current *Job) {
	if current == nil {
		incoming.LastRun = nil
		incoming.LastRunTasks = nil
		incoming.EstimatedNextRun = nil
		return
	}
	incoming.ApplyEngineFields(current)
}
