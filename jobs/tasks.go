// Package jobs hosts the background worker: the Asynq server wiring and
// the consistency jobs that keep stored aggregates honest.
package jobs

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
)
