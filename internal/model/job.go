package model

import "time"

// JobType identifies which sync flow a job ran.
type JobType string

const (
	JobFull        JobType = "full"
	JobIncremental JobType = "incremental"
	JobRoles       JobType = "roles"
	JobSubEntities JobType = "subentities"
)

// JobStatus is the lifecycle state of a sync job. A job is created in
// running and transitions exactly once to completed or failed.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// SyncJob is the auditable record of one ingestion run. The field names and
// enum values are a stable interface consumed by status reporting; do not
// rename them.
type SyncJob struct {
	ID             string     `json:"id"`
	Type           JobType    `json:"type"`
	Status         JobStatus  `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	ProcessedCount int        `json:"processedCount"`
	ErrorCount     int        `json:"errorCount"`
	Log            string     `json:"log,omitempty"`
}

// Terminal reports whether the job has reached a terminal status.
func (j *SyncJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
