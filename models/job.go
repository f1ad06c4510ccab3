package models

import (
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job records one upload request and its outcome.
type Job struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	StoredPath string    `json:"-"`
	Prompt     string    `json:"prompt"`
	Status     Status    `json:"status"`
	RemoteName string    `json:"-"`
	Summary    string    `json:"summary,omitempty"`
	ModelName  string    `json:"model_name,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (j *Job) IsProcessing() bool { return j.Status == StatusProcessing }
func (j *Job) IsCompleted() bool  { return j.Status == StatusCompleted }
func (j *Job) IsFailed() bool     { return j.Status == StatusFailed }
