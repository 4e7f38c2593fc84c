// Package scheduler is the in-process cron engine: it holds one
// registration per non-suspended job on a robfig/cron/v3 runner, fires
// them (trigger evaluation, task launch, result write-back), and
// consumes a mutation channel that lets the REST layer create, update,
// delete, pause, and resume jobs without directly touching the cron
// runner's internal state.
package scheduler
