package model

import (
	"time"
)

// Status is a task lifecycle state.
type Status string

const (
	StatusNotStarted      Status = "not_started"
	StatusInProgress      Status = "in_progress"
	StatusPendingApproval Status = "pending_approval"
	StatusDone            Status = "done"
	StatusArchived        Status = "archived"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusPendingApproval, StatusDone, StatusArchived:
		return true
	default:
		return false
	}
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ChangeEntry is one append-only audit record of a field mutation.
type ChangeEntry struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// Task is a department-scoped work item.
//
// The change log holds at least the creation entry; every effective change
// to a trackable field (status, assigned_to, priority, description,
// due_date) appends exactly one entry in the same update.
type Task struct {
	ID             string `gorm:"primaryKey"`
	Title          string
	Description    string
	Department     string  `gorm:"index"`
	CreatedBy      string  `gorm:"index"`
	AssignedTo     *string `gorm:"index"`
	Status         Status  `gorm:"index"`
	Priority       Priority
	DueDate        *time.Time
	CompletionTime *float64      // hours; absent until work wraps up
	Attachments    []string      `gorm:"serializer:json"`
	Tags           []string      `gorm:"serializer:json"`
	ChangeLog      []ChangeEntry `gorm:"serializer:json"`
	CreatedAt      time.Time     `gorm:"index"`
	UpdatedAt      time.Time
}

// HasAllTags reports whether the task carries every tag in want.
func (t *Task) HasAllTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, tag := range t.Tags {
			if tag == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
