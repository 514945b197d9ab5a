package task

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
	"gorm.io/gorm"
)

// AddDep records that taskID depends on dependsOn. Validates both tasks
// exist, rejects self-dependencies, and refuses edges that would close a
// dependency cycle.
func AddDep(db *gorm.DB, taskID, dependsOn uint) error {
	if taskID == dependsOn {
		return fmt.Errorf("task: cannot add self-dependency on %d", taskID)
	}

	for _, id := range []uint{taskID, dependsOn} {
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("task: check task %d: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
	}

	if hasCycle(db, taskID, dependsOn) {
		return fmt.Errorf("task: adding dependency %d → %d would create a cycle", taskID, dependsOn)
	}

	dep := models.TaskDependency{TaskID: taskID, DependsOnTaskID: dependsOn}
	if err := db.Create(&dep).Error; err != nil {
		return fmt.Errorf("task: create dependency %d → %d: %w", taskID, dependsOn, err)
	}
	return nil
}

// RemoveDep deletes a dependency edge.
func RemoveDep(db *gorm.DB, taskID, dependsOn uint) error {
	result := db.Where("task_id = ? AND depends_on_task_id = ?", taskID, dependsOn).
		Delete(&models.TaskDependency{})
	if result.Error != nil {
		return fmt.Errorf("task: remove dependency %d → %d: %w", taskID, dependsOn, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task: dependency %d → %d: %w", taskID, dependsOn, ErrNotFound)
	}
	return nil
}

// ListDeps returns the tasks this task depends on (blockers) and the tasks
// that depend on it (dependents).
func ListDeps(db *gorm.DB, taskID uint) (blockers, dependents []models.TaskDependency, err error) {
	if err := db.Where("task_id = ?", taskID).Find(&blockers).Error; err != nil {
		return nil, nil, fmt.Errorf("task: list blockers of %d: %w", taskID, err)
	}
	if err := db.Where("depends_on_task_id = ?", taskID).Find(&dependents).Error; err != nil {
		return nil, nil, fmt.Errorf("task: list dependents of %d: %w", taskID, err)
	}
	return blockers, dependents, nil
}

// CanComplete reports whether every direct dependency of the task is
// Completed (vacuously true with no dependencies). A dependency row whose
// task no longer exists counts as unsatisfied: a dangling edge blocks
// completion rather than silently passing. Only direct dependencies are
// inspected, not the transitive closure.
func CanComplete(db *gorm.DB, taskID uint) (bool, error) {
	var deps []models.TaskDependency
	if err := db.Where("task_id = ?", taskID).Find(&deps).Error; err != nil {
		return false, fmt.Errorf("task: load deps of %d: %w", taskID, err)
	}

	for _, dep := range deps {
		var depTask models.Task
		if err := db.Select("id, status").Where("id = ?", dep.DependsOnTaskID).First(&depTask).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("task: load dep %d of %d: %w", dep.DependsOnTaskID, taskID, err)
		}
		if depTask.Status != models.StatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

// hasCycle checks whether adding taskID → dependsOn would create a cycle by
// walking the dependency graph from dependsOn looking for taskID.
func hasCycle(db *gorm.DB, taskID, dependsOn uint) bool {
	visited := make(map[uint]bool)
	return reachable(db, dependsOn, taskID, visited)
}

func reachable(db *gorm.DB, current, target uint, visited map[uint]bool) bool {
	if current == target {
		return true
	}
	if visited[current] {
		return false
	}
	visited[current] = true

	var deps []models.TaskDependency
	if err := db.Where("task_id = ?", current).Find(&deps).Error; err != nil {
		return false
	}
	for _, d := range deps {
		if reachable(db, d.DependsOnTaskID, target, visited) {
			return true
		}
	}
	return false
}
