// Package task provides task lifecycle operations: creation, field updates,
// dependency-gated status transitions, and due-date classification.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/budget"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"gorm.io/gorm"
)

// Sentinel errors for the failure kinds callers branch on.
var (
	ErrNotFound          = errors.New("task: not found")
	ErrInvalidStatus     = errors.New("task: invalid status")
	ErrDependenciesUnmet = errors.New("task: dependencies unmet")
	ErrForbidden         = errors.New("task: forbidden")
)

// CreateOpts holds parameters for creating a new task. Status is not an
// option: every task starts Pending.
type CreateOpts struct {
	ProjectID   uint
	Title       string
	Description string
	Priority    string // High, Medium, Low; defaults to Medium
	Recurrence  string // Daily, Weekly, Monthly, or empty for none
	StartDate   *time.Time
	Deadline    *time.Time
	AssignedTo  *uint
	Budget      *float64
	ActualCost  *float64
}

// UpdateOpts holds optional field updates. Nil fields are left unchanged.
// Status is deliberately absent: status changes go through Transition, and
// budget fields go through the budget package.
type UpdateOpts struct {
	Title       *string
	Description *string
	Priority    *string
	Recurrence  *string
	StartDate   *time.Time
	Deadline    *time.Time
	AssignedTo  *uint
	Unassign    bool
	TimeSpent   *int
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	ProjectID  uint
	Status     string
	Priority   string
	AssignedTo uint
}

// Create creates a new task in Pending status. The actor must be able to see
// the target project. The stored variance is derived at write time.
func Create(db *gorm.DB, actor policy.Actor, opts CreateOpts) (*models.Task, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("task: title is required")
	}
	if opts.Priority == "" {
		opts.Priority = models.PriorityMedium
	}
	if !models.ValidRecurrence(opts.Recurrence) {
		return nil, fmt.Errorf("task: invalid recurrence %q", opts.Recurrence)
	}

	var project models.Project
	if err := db.Where("id = ?", opts.ProjectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: project not found: %d: %w", opts.ProjectID, ErrNotFound)
		}
		return nil, fmt.Errorf("task: load project %d: %w", opts.ProjectID, err)
	}
	ok, err := policy.CanViewProject(db, actor, &project)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task: create in project %d: %w", opts.ProjectID, ErrForbidden)
	}

	t := models.Task{
		ProjectID:      opts.ProjectID,
		Title:          opts.Title,
		Description:    opts.Description,
		Status:         models.StatusPending,
		Priority:       opts.Priority,
		Recurrence:     opts.Recurrence,
		StartDate:      opts.StartDate,
		Deadline:       opts.Deadline,
		AssignedTo:     opts.AssignedTo,
		Budget:         opts.Budget,
		ActualCost:     opts.ActualCost,
		BudgetVariance: budget.Variance(opts.Budget, opts.ActualCost),
	}
	if err := db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}
	return &t, nil
}

// Get retrieves a task by ID, preloading its dependency edges and subtasks.
func Get(db *gorm.DB, id uint) (*models.Task, error) {
	var t models.Task
	if err := db.Preload("Deps").Preload("Subtasks").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %d: %w", id, err)
	}
	return &t, nil
}

// List returns tasks matching the given filters, ordered by deadline then
// creation time.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})

	if filters.ProjectID != 0 {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.AssignedTo != 0 {
		q = q.Where("assigned_to = ?", filters.AssignedTo)
	}

	var tasks []models.Task
	if err := q.Order("deadline ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return tasks, nil
}

// Update modifies non-derived task fields after an edit-policy check.
func Update(db *gorm.DB, actor policy.Actor, id uint, opts UpdateOpts) (*models.Task, error) {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %d for update: %w", id, err)
	}

	ok, err := policy.CanEditTask(db, actor, &t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task: update %d: %w", id, ErrForbidden)
	}

	updates := map[string]interface{}{}
	if opts.Title != nil {
		if *opts.Title == "" {
			return nil, fmt.Errorf("task: title is required")
		}
		updates["title"] = *opts.Title
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	if opts.Priority != nil {
		updates["priority"] = *opts.Priority
	}
	if opts.Recurrence != nil {
		if !models.ValidRecurrence(*opts.Recurrence) {
			return nil, fmt.Errorf("task: invalid recurrence %q", *opts.Recurrence)
		}
		updates["recurrence"] = *opts.Recurrence
	}
	if opts.StartDate != nil {
		updates["start_date"] = *opts.StartDate
	}
	if opts.Deadline != nil {
		updates["deadline"] = *opts.Deadline
	}
	if opts.Unassign {
		updates["assigned_to"] = nil
	} else if opts.AssignedTo != nil {
		updates["assigned_to"] = *opts.AssignedTo
	}
	if opts.TimeSpent != nil {
		updates["time_spent"] = *opts.TimeSpent
	}
	if len(updates) == 0 {
		return &t, nil
	}

	if err := db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task: update %d: %w", id, err)
	}
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, fmt.Errorf("task: reload %d: %w", id, err)
	}
	return &t, nil
}

// Delete removes a task and everything that hangs off it (dependency edges in
// both directions, subtasks, comments, attachments) in one transaction.
func Delete(db *gorm.DB, actor policy.Actor, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrNotFound, id)
			}
			return fmt.Errorf("task: get %d for delete: %w", id, err)
		}

		ok, err := policy.CanEditTask(tx, actor, &t)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("task: delete %d: %w", id, ErrForbidden)
		}

		if err := tx.Where("task_id = ? OR depends_on_task_id = ?", id, id).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return fmt.Errorf("task: delete deps of %d: %w", id, err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Subtask{}).Error; err != nil {
			return fmt.Errorf("task: delete subtasks of %d: %w", id, err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("task: delete comments of %d: %w", id, err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("task: delete attachments of %d: %w", id, err)
		}
		if err := tx.Delete(&models.Task{}, id).Error; err != nil {
			return fmt.Errorf("task: delete %d: %w", id, err)
		}
		return nil
	})
}
