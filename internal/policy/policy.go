// Package policy decides whether an actor may view, edit, or delete
// projects and tasks. All checks are read-only predicates over stored state.
package policy

import (
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
	"gorm.io/gorm"
)

// Actor is the authenticated user performing an operation. It is passed
// explicitly into every check; nothing here reads ambient session state.
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the actor carries the Admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanEditTask reports whether the actor may modify the given task: admins,
// the task's assignee, the owner of its project, or any project team member.
func CanEditTask(db *gorm.DB, actor Actor, task *models.Task) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if task.AssignedTo != nil && *task.AssignedTo == actor.UserID {
		return true, nil
	}

	var project models.Project
	if err := db.Select("id, owner_id").Where("id = ?", task.ProjectID).First(&project).Error; err != nil {
		return false, fmt.Errorf("policy: load project %d: %w", task.ProjectID, err)
	}
	if project.OwnerID == actor.UserID {
		return true, nil
	}

	return isTeamMember(db, actor.UserID, task.ProjectID)
}

// CanViewProject reports whether the actor may see the given project: admins,
// the owner, anyone assigned to one of its tasks, or any team member.
func CanViewProject(db *gorm.DB, actor Actor, project *models.Project) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if project.OwnerID == actor.UserID {
		return true, nil
	}

	var assigned int64
	if err := db.Model(&models.Task{}).
		Where("project_id = ? AND assigned_to = ?", project.ID, actor.UserID).
		Count(&assigned).Error; err != nil {
		return false, fmt.Errorf("policy: count assignments in project %d: %w", project.ID, err)
	}
	if assigned > 0 {
		return true, nil
	}

	return isTeamMember(db, actor.UserID, project.ID)
}

// CanDeleteProject reports whether the actor may delete the project.
// Ownership alone is insufficient: only admins may delete.
func CanDeleteProject(db *gorm.DB, actor Actor, project *models.Project) (bool, error) {
	return actor.IsAdmin(), nil
}

func isTeamMember(db *gorm.DB, userID, projectID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.ProjectTeam{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("policy: check team membership: %w", err)
	}
	return count > 0, nil
}
