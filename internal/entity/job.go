package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusPending    JobStatus = "Pending"
	StatusProcessing JobStatus = "Processing"
	StatusCompleted  JobStatus = "Completed"
	StatusFailed     JobStatus = "Failed"
	StatusCanceled   JobStatus = "Canceled"
)

// Terminal reports whether no further status transition is accepted.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Job is one submitted unit of work and its tracked state. The ID doubles as
// the opaque token handed back to the submitter.
type Job struct {
	ID          string          `json:"jobId"`
	Status      JobStatus       `json:"status"`
	Message     string          `json:"message,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// NewJob allocates a fresh pending record with a random id.
func NewJob() *Job {
	return &Job{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a copy safe to hand across goroutine boundaries.
func (j *Job) Clone() *Job {
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Data != nil {
		cp.Data = append(json.RawMessage(nil), j.Data...)
	}
	return &cp
}
