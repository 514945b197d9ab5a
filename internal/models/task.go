package models

import "time"

// Task statuses. Any status may transition to any other; completion is
// additionally gated on dependencies.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusOnHold     = "On Hold"
)

// Task priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Recurrence patterns. Empty string means the task does not recur.
const (
	RecurrenceNone    = ""
	RecurrenceDaily   = "Daily"
	RecurrenceWeekly  = "Weekly"
	RecurrenceMonthly = "Monthly"
)

// Task is the core work item. BudgetVariance is derived (budget minus actual
// cost) and is only ever written by the budget package.
type Task struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID      uint   `gorm:"not null;index"`
	Title          string `gorm:"size:128;not null"`
	Description    string `gorm:"type:text"`
	Status         string `gorm:"size:16;not null;default:Pending;index"`
	Priority       string `gorm:"size:8;not null;default:Medium"`
	Recurrence     string `gorm:"size:8"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartDate      *time.Time
	Deadline       *time.Time
	TimeSpent      int `gorm:"default:0"`
	AssignedTo     *uint
	Budget         *float64
	ActualCost     *float64
	BudgetVariance *float64

	Project  *Project         `gorm:"foreignKey:ProjectID"`
	Assignee *User            `gorm:"foreignKey:AssignedTo"`
	Deps     []TaskDependency `gorm:"foreignKey:TaskID"`
	Subtasks []Subtask        `gorm:"foreignKey:TaskID"`
	Comments []Comment        `gorm:"foreignKey:TaskID"`
}

// TaskDependency is a directed edge: TaskID cannot complete before
// DependsOnTaskID is completed.
type TaskDependency struct {
	TaskID          uint `gorm:"primaryKey"`
	DependsOnTaskID uint `gorm:"primaryKey"`

	Task      Task `gorm:"foreignKey:TaskID"`
	DependsOn Task `gorm:"foreignKey:DependsOnTaskID"`
}

// Subtask is a lighter-weight child unit of a task.
type Subtask struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	TaskID uint   `gorm:"not null;index"`
	Title  string `gorm:"size:128;not null"`
	Status string `gorm:"size:16;not null;default:Pending"`
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}

// Attachment stores an uploaded file on a task.
type Attachment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    uint   `gorm:"not null;index"`
	FileName  string `gorm:"size:255;not null"`
	FileData  []byte `gorm:"not null"`
	CreatedAt time.Time
}

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// ValidRecurrence reports whether r is a known recurrence pattern.
func ValidRecurrence(r string) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// RecurrenceInterval returns the deadline advance for a recurrence pattern.
// Monthly is approximated as 30 days.
func RecurrenceInterval(r string) (time.Duration, bool) {
	switch r {
	case RecurrenceDaily:
		return 24 * time.Hour, true
	case RecurrenceWeekly:
		return 7 * 24 * time.Hour, true
	case RecurrenceMonthly:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}
