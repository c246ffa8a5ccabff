package models

import "time"

// SyncLog records one sync run. It is written exactly once, when the run finishes.
type SyncLog struct {
	ID            int        `gorm:"primary_key" json:"id"`
	SyncType      SyncType   `gorm:"size:50;index;not null" json:"sync_type"`
	Status        SyncStatus `gorm:"size:20;not null" json:"status"`
	DateRange     string     `gorm:"size:50" json:"date_range,omitempty"`
	RecordsSynced int        `json:"records_synced"`
	CreatedCount  int        `json:"created_count"`
	UpdatedCount  int        `json:"updated_count"`
	SkippedCount  int        `json:"skipped_count"`
	ErrorCount    int        `json:"error_count"`
	ErrorMessages StringList `gorm:"type:text" json:"error_messages"`
	Warnings      StringList `gorm:"type:text" json:"warnings"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	CorrelationId string     `gorm:"size:64" json:"correlation_id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type DetailSyncJob struct {
	ID            string     `gorm:"primary_key;size:36" json:"job_id"`
	JobType       SyncType   `gorm:"size:50;not null" json:"job_type"`
	DateRange     string     `gorm:"size:50" json:"date_range"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	Status        JobStatus  `gorm:"size:20;index;not null" json:"status"`
	Total         int        `json:"total"`
	Processed     int        `json:"processed"`
	SuccessCount  int        `json:"success_count"`
	ErrorCount    int        `json:"error_count"`
	ErrorMessages StringList `gorm:"type:text" json:"error_messages"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProgressPercentage is processed over total, 100 once completed and 0 when nothing is known yet.
func (j *DetailSyncJob) ProgressPercentage() float64 {
	if j.Status == JobStatusCompleted {
		return 100
	}
	if j.Total <= 0 {
		return 0
	}
	return float64(j.Processed) / float64(j.Total) * 100
}
