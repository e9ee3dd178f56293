package constants

// JobStatus is the lifecycle state of a queued extraction job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusCached    JobStatus = "CACHED" // served from cache or store, engine not run
	JobStatusFailed    JobStatus = "FAILED"
)
