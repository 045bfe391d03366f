package models

import "time"

// SyncStatus is the lifecycle state of a sync job.
type SyncStatus string

const (
	SyncStatusQueued    SyncStatus = "queued"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusSucceeded SyncStatus = "succeeded"
	SyncStatusFailed    SyncStatus = "failed"
)

// CourseSummary describes one course handled by a sync run.
type CourseSummary struct {
	Code     string `json:"code"`
	Semester string `json:"semester"`
	Title    string `json:"title"`
	Options  int    `json:"options"`
	Meetings int    `json:"meetings"`
}

// SyncReport is the outcome of a sync run.
type SyncReport struct {
	Session string          `json:"session"`
	DryRun  bool            `json:"dry_run"`
	Courses []CourseSummary `json:"courses"`
}

// SyncJob tracks a background sync.
type SyncJob struct {
	ID         string      `json:"id"`
	Status     SyncStatus  `json:"status"`
	Query      CourseQuery `json:"query"`
	Attempts   int         `json:"attempts"`
	Report     *SyncReport `json:"report,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}
