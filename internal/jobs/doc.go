// Package jobs defines the job document model — the unit of work the
// scheduler tracks, persists, and fires — along with its field-level
// validator and the trigger registry used for queue-depth-driven jobs.
package jobs
