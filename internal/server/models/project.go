package models

import (
	"slices"
	"time"
)

type Project struct {
	ID          string
	Name        string
	Description string
	Members     []string
	TasksCount  int
	Tasks       []Task
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether userID is listed in the project's members.
func (p *Project) HasMember(userID string) bool {
	return slices.Contains(p.Members, userID)
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      TaskStatus
	Assignee    string
	Attachments []File
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
