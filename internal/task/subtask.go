package task

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"gorm.io/gorm"
)

// AddSubtask creates a Pending subtask under a task the actor may edit.
func AddSubtask(db *gorm.DB, actor policy.Actor, taskID uint, title string) (*models.Subtask, error) {
	if title == "" {
		return nil, fmt.Errorf("task: subtask title is required")
	}

	parent, err := editableTask(db, actor, taskID)
	if err != nil {
		return nil, err
	}

	st := models.Subtask{
		TaskID: parent.ID,
		Title:  title,
		Status: models.StatusPending,
	}
	if err := db.Create(&st).Error; err != nil {
		return nil, fmt.Errorf("task: create subtask: %w", err)
	}
	return &st, nil
}

// SetSubtaskStatus updates a subtask's status. Subtasks share the task
// status vocabulary but carry no dependency gate of their own.
func SetSubtaskStatus(db *gorm.DB, actor policy.Actor, subtaskID uint, status string) (*models.Subtask, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var st models.Subtask
	if err := db.Where("id = ?", subtaskID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: subtask %d: %w", subtaskID, ErrNotFound)
		}
		return nil, fmt.Errorf("task: get subtask %d: %w", subtaskID, err)
	}

	if _, err := editableTask(db, actor, st.TaskID); err != nil {
		return nil, err
	}

	if err := db.Model(&models.Subtask{}).Where("id = ?", subtaskID).
		Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("task: set subtask %d status: %w", subtaskID, err)
	}
	st.Status = status
	return &st, nil
}

// DeleteSubtask removes a subtask.
func DeleteSubtask(db *gorm.DB, actor policy.Actor, subtaskID uint) error {
	var st models.Subtask
	if err := db.Where("id = ?", subtaskID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("task: subtask %d: %w", subtaskID, ErrNotFound)
		}
		return fmt.Errorf("task: get subtask %d: %w", subtaskID, err)
	}

	if _, err := editableTask(db, actor, st.TaskID); err != nil {
		return err
	}

	if err := db.Delete(&models.Subtask{}, subtaskID).Error; err != nil {
		return fmt.Errorf("task: delete subtask %d: %w", subtaskID, err)
	}
	return nil
}

// ListSubtasks returns a task's subtasks in creation order.
func ListSubtasks(db *gorm.DB, taskID uint) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	if err := db.Where("task_id = ?", taskID).Order("id ASC").Find(&subtasks).Error; err != nil {
		return nil, fmt.Errorf("task: list subtasks of %d: %w", taskID, err)
	}
	return subtasks, nil
}

// editableTask loads a task and enforces the edit policy for the actor.
func editableTask(db *gorm.DB, actor policy.Actor, taskID uint) (*models.Task, error) {
	var t models.Task
	if err := db.Where("id = ?", taskID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, taskID)
		}
		return nil, fmt.Errorf("task: get %d: %w", taskID, err)
	}
	ok, err := policy.CanEditTask(db, actor, &t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task: edit %d: %w", taskID, ErrForbidden)
	}
	return &t, nil
}
