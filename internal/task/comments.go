package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"gorm.io/gorm"
)

// AddComment appends a comment to a task. Comments are append-only; they are
// removed only when their task is deleted.
func AddComment(db *gorm.DB, actor policy.Actor, taskID uint, body string) (*models.Comment, error) {
	if body == "" {
		return nil, fmt.Errorf("task: comment body is required")
	}
	if _, err := editableTask(db, actor, taskID); err != nil {
		return nil, err
	}

	c := models.Comment{
		TaskID:    taskID,
		UserID:    actor.UserID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("task: add comment to %d: %w", taskID, err)
	}
	return &c, nil
}

// ListComments returns a task's comments oldest first.
func ListComments(db *gorm.DB, taskID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("task: list comments of %d: %w", taskID, err)
	}
	return comments, nil
}

// AddAttachment stores an uploaded file against a task.
func AddAttachment(db *gorm.DB, actor policy.Actor, taskID uint, fileName string, data []byte) (*models.Attachment, error) {
	if fileName == "" {
		return nil, fmt.Errorf("task: attachment file name is required")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("task: attachment data is required")
	}
	if _, err := editableTask(db, actor, taskID); err != nil {
		return nil, err
	}

	a := models.Attachment{
		TaskID:    taskID,
		FileName:  fileName,
		FileData:  data,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("task: add attachment to %d: %w", taskID, err)
	}
	return &a, nil
}

// GetAttachment loads an attachment with its blob.
func GetAttachment(db *gorm.DB, attachmentID uint) (*models.Attachment, error) {
	var a models.Attachment
	if err := db.Where("id = ?", attachmentID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: attachment %d: %w", attachmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("task: get attachment %d: %w", attachmentID, err)
	}
	return &a, nil
}

// DeleteAttachment removes an uploaded file.
func DeleteAttachment(db *gorm.DB, actor policy.Actor, attachmentID uint) error {
	a, err := GetAttachment(db, attachmentID)
	if err != nil {
		return err
	}
	if _, err := editableTask(db, actor, a.TaskID); err != nil {
		return err
	}
	if err := db.Delete(&models.Attachment{}, attachmentID).Error; err != nil {
		return fmt.Errorf("task: delete attachment %d: %w", attachmentID, err)
	}
	return nil
}

// ListAttachments returns attachment metadata for a task without the blobs.
func ListAttachments(db *gorm.DB, taskID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := db.Select("id, task_id, file_name, created_at").
		Where("task_id = ?", taskID).Order("id ASC").Find(&attachments).Error; err != nil {
		return nil, fmt.Errorf("task: list attachments of %d: %w", taskID, err)
	}
	return attachments, nil
}
