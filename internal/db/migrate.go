package db

import (
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectTeam{},
		&models.Task{},
		&models.TaskDependency{},
		&models.Subtask{},
		&models.Comment{},
		&models.Attachment{},
		&models.DiscussionTopic{},
		&models.DiscussionMessage{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// CountOrphanedTasks returns the number of tasks whose project no longer
// exists. A non-zero count indicates a broken cascade and is surfaced as an
// integrity violation by callers.
func CountOrphanedTasks(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&models.Task{}).
		Where("project_id NOT IN (?)", db.Model(&models.Project{}).Select("id")).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("db: count orphaned tasks: %w", err)
	}
	return count, nil
}

// DeleteOrphanedTasks removes tasks whose project no longer exists, returning
// the number of rows removed. Recovery tool for stores damaged before
// transactional cascades were in place.
func DeleteOrphanedTasks(db *gorm.DB) (int64, error) {
	result := db.Where("project_id NOT IN (?)", db.Model(&models.Project{}).Select("id")).
		Delete(&models.Task{})
	if result.Error != nil {
		return 0, fmt.Errorf("db: delete orphaned tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}
