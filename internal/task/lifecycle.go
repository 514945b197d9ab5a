package task

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"gorm.io/gorm"
)

// TransitionResult holds the updated task and, when completing a recurring
// task, the newly created successor.
type TransitionResult struct {
	Task      *models.Task
	Successor *models.Task
}

// Transition moves a task to newStatus.
//
// The whole operation runs in one transaction: validation, the dependency
// gate for Completed, the access check, the status write, and the recurrence
// rollover. A recurring task is never left Completed without its successor —
// if the successor insert fails the status write rolls back with it.
//
// A same-status transition is a no-op success and never triggers rollover.
func Transition(db *gorm.DB, taskID uint, newStatus string, actor policy.Actor) (*TransitionResult, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	var result TransitionResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.Where("id = ?", taskID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrNotFound, taskID)
			}
			return fmt.Errorf("task: get %d: %w", taskID, err)
		}

		ok, err := policy.CanEditTask(tx, actor, &t)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("task: transition %d: %w", taskID, ErrForbidden)
		}

		if t.Status == newStatus {
			result.Task = &t
			return nil
		}

		if newStatus == models.StatusCompleted {
			met, err := CanComplete(tx, taskID)
			if err != nil {
				return err
			}
			if !met {
				return fmt.Errorf("task: complete %d: %w", taskID, ErrDependenciesUnmet)
			}
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).
			Update("status", newStatus).Error; err != nil {
			return fmt.Errorf("task: set status of %d: %w", taskID, err)
		}
		t.Status = newStatus

		if newStatus == models.StatusCompleted && t.Recurrence != models.RecurrenceNone {
			successor, err := rollover(tx, &t)
			if err != nil {
				return err
			}
			result.Successor = successor
		}

		result.Task = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// rollover creates the Pending successor of a completed recurring task,
// advancing the deadline by the recurrence interval. The parent keeps its
// Completed status; project, title, description, priority, and recurrence
// carry over.
func rollover(tx *gorm.DB, t *models.Task) (*models.Task, error) {
	successor := models.Task{
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      models.StatusPending,
		Priority:    t.Priority,
		Recurrence:  t.Recurrence,
	}

	if t.Deadline != nil {
		interval, ok := models.RecurrenceInterval(t.Recurrence)
		if !ok {
			return nil, fmt.Errorf("task: rollover %d: unknown recurrence %q", t.ID, t.Recurrence)
		}
		next := t.Deadline.Add(interval)
		successor.Deadline = &next
	}

	if err := tx.Create(&successor).Error; err != nil {
		return nil, fmt.Errorf("task: create successor of %d: %w", t.ID, err)
	}
	return &successor, nil
}
