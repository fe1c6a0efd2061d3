package model

import "time"

// TaskStatus is the progress state of a calendar task.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusProgress TaskStatus = "progress"
	StatusDone     TaskStatus = "done"
	StatusStop     TaskStatus = "stop"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProgress, StatusDone, StatusStop:
		return true
	}
	return false
}

// Task represents a calendar task in the database.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Start       time.Time
	End         *time.Time
	AllDay      bool
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskRequest is the body of a task create or update.
type TaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end"`
	AllDay      bool       `json:"allDay"`
	Status      TaskStatus `json:"status"`
}

// TaskResponse is the calendar-widget view of a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	AllDay      bool       `json:"allDay"`
	Status      TaskStatus `json:"status"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskMutationResponse carries the mutated task and, when the streak engine
// ran successfully, the resulting streak.
type TaskMutationResponse struct {
	Task   TaskResponse    `json:"task"`
	Streak *StreakResponse `json:"streak,omitempty"`
}

// TaskStats summarises a user's tasks for the dashboard.
type TaskStats struct {
	Total          int `json:"total"`
	Done           int `json:"done"`
	InProgress     int `json:"inProgress"`
	Pending        int `json:"pending"`
	Stopped        int `json:"stopped"`
	CompletionRate int `json:"completionRate"`
	Today          int `json:"today"`
	ThisWeek       int `json:"thisWeek"`
}

// Dashboard is the payload of the home page.
type Dashboard struct {
	User  Profile   `json:"user"`
	Stats TaskStats `json:"stats"`
}
