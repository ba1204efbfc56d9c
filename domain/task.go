package domain

import "fmt"

// Status is the workflow state of a task. The set is closed; anything else
// is rejected by validation before it reaches policy or storage.
type Status string

const (
	StatusToDo       Status = "to-do"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Priority is the urgency of a task. Closed set, like Status.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusToDo, StatusInProgress, StatusReview, StatusDone:
		return s, nil
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q", raw)
}

// Task is a single work item on a board. BoardID is immutable after
// creation; membership of that board is the sole authorization boundary
// for the task, no matter who is assigned or reviewing.
type Task struct {
	ID          int64    `json:"id"`
	BoardID     int64    `json:"board"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	AssigneeID  *int64   `json:"-"`
	ReviewerID  *int64   `json:"-"`
	DueDate     *string  `json:"due_date,omitempty"`
}
