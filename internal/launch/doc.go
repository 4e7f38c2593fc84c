// Package launch starts ECS-style tasks for a firing job. It chunks a
// requested task count into orchestrator-sized batches, paces submission
// against a per-call rate limit, and tags each launched task's container
// overrides with the owning job id so a later run can tell its own
// running tasks apart from another job's.
package launch
