// Package budget is the single writer of derived budget fields. Every write
// path that touches a task's budget or actual cost goes through SetCosts so
// the stored variance always equals budget minus actual cost.
package budget

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the referenced task does not exist.
var ErrNotFound = errors.New("budget: task not found")

// Variance computes budget minus actual cost. An unset operand counts as 0,
// but when both are unset the variance stays unset rather than materializing
// a spurious zero.
func Variance(budget, actualCost *float64) *float64 {
	if budget == nil && actualCost == nil {
		return nil
	}
	var b, a float64
	if budget != nil {
		b = *budget
	}
	if actualCost != nil {
		a = *actualCost
	}
	v := b - a
	return &v
}

// SetCosts updates a task's budget and/or actual cost and recomputes the
// stored variance in the same write. A nil field leaves the current value in
// place. Returns the updated task.
func SetCosts(db *gorm.DB, taskID uint, budget, actualCost *float64) (*models.Task, error) {
	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrNotFound, taskID)
			}
			return fmt.Errorf("budget: load task %d: %w", taskID, err)
		}

		if budget != nil {
			task.Budget = budget
		}
		if actualCost != nil {
			task.ActualCost = actualCost
		}
		task.BudgetVariance = Variance(task.Budget, task.ActualCost)

		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).
			Select("budget", "actual_cost", "budget_variance").
			Updates(map[string]interface{}{
				"budget":          task.Budget,
				"actual_cost":     task.ActualCost,
				"budget_variance": task.BudgetVariance,
			}).Error; err != nil {
			return fmt.Errorf("budget: update task %d: %w", taskID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ProjectRollup holds derived budget figures for a whole project.
type ProjectRollup struct {
	ProjectID   uint
	Budget      float64
	BudgetSet   bool
	Used        float64
	Variance    float64
	Utilization float64 // percent of project budget consumed; 0 when unset
}

// Rollup sums actual costs across a project's tasks and derives the
// project-level variance and utilization. Unset task costs count as 0.
// Utilization is guarded: a zero or unset project budget reports 0%.
func Rollup(db *gorm.DB, projectID uint) (*ProjectRollup, error) {
	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("budget: project not found: %d", projectID)
		}
		return nil, fmt.Errorf("budget: load project %d: %w", projectID, err)
	}

	var used float64
	if err := db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(actual_cost), 0)").
		Scan(&used).Error; err != nil {
		return nil, fmt.Errorf("budget: sum costs for project %d: %w", projectID, err)
	}

	r := &ProjectRollup{ProjectID: projectID, Used: used}
	if project.Budget != nil {
		r.Budget = *project.Budget
		r.BudgetSet = true
	}
	r.Variance = r.Budget - used
	if r.Budget > 0 {
		r.Utilization = used / r.Budget * 100
	}
	return r, nil
}
