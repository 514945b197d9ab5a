// Package project provides project lifecycle operations, including the
// transactional cascade delete over everything a project owns.
package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"gorm.io/gorm"
)

// Sentinel errors for the failure kinds callers branch on.
var (
	ErrNotFound  = errors.New("project: not found")
	ErrForbidden = errors.New("project: forbidden")
	// ErrIntegrity marks a broken cascade: orphaned child rows survived a
	// delete. With correctly scoped transactions it must never occur.
	ErrIntegrity = errors.New("project: integrity violation")
)

// CreateOpts holds parameters for creating a project.
type CreateOpts struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	OwnerID     uint // 0 means the actor owns it; only admins may set another owner
}

// UpdateOpts holds optional field updates. Nil fields are left unchanged.
type UpdateOpts struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	OwnerID     *uint // reassignment, admin only
}

// Create creates a project owned by the actor, or by OwnerID when an admin
// assigns ownership elsewhere.
func Create(db *gorm.DB, actor policy.Actor, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("project: name is required")
	}

	ownerID := actor.UserID
	if opts.OwnerID != 0 && opts.OwnerID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("project: assign owner: %w", ErrForbidden)
		}
		ownerID = opts.OwnerID
	}

	p := models.Project{
		OwnerID:     ownerID,
		Name:        opts.Name,
		Description: opts.Description,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		Budget:      opts.Budget,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project the actor is allowed to see.
func Get(db *gorm.DB, actor policy.Actor, id uint) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("project: get %d: %w", id, err)
	}

	ok, err := policy.CanViewProject(db, actor, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project: view %d: %w", id, ErrForbidden)
	}
	return &p, nil
}

// ListVisible returns the projects the actor may see: all of them for
// admins, otherwise owned projects plus those the actor is assigned to or a
// team member of.
func ListVisible(db *gorm.DB, actor policy.Actor) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if !actor.IsAdmin() {
		q = q.Where(
			"owner_id = ? OR id IN (?) OR id IN (?)",
			actor.UserID,
			db.Model(&models.Task{}).Select("project_id").Where("assigned_to = ?", actor.UserID),
			db.Model(&models.ProjectTeam{}).Select("project_id").Where("user_id = ?", actor.UserID),
		)
	}

	var projects []models.Project
	if err := q.Order("name ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// Update modifies project fields. The owner or an admin may edit; only an
// admin may reassign ownership.
func Update(db *gorm.DB, actor policy.Actor, id uint, opts UpdateOpts) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("project: get %d for update: %w", id, err)
	}

	if !actor.IsAdmin() && p.OwnerID != actor.UserID {
		return nil, fmt.Errorf("project: update %d: %w", id, ErrForbidden)
	}

	updates := map[string]interface{}{}
	if opts.Name != nil {
		if *opts.Name == "" {
			return nil, fmt.Errorf("project: name is required")
		}
		updates["name"] = *opts.Name
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	if opts.StartDate != nil {
		updates["start_date"] = *opts.StartDate
	}
	if opts.EndDate != nil {
		updates["end_date"] = *opts.EndDate
	}
	if opts.Budget != nil {
		updates["budget"] = *opts.Budget
	}
	if opts.OwnerID != nil {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("project: reassign owner of %d: %w", id, ErrForbidden)
		}
		updates["owner_id"] = *opts.OwnerID
	}
	if len(updates) == 0 {
		return &p, nil
	}

	if err := db.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project: update %d: %w", id, err)
	}
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, fmt.Errorf("project: reload %d: %w", id, err)
	}
	return &p, nil
}

// Delete removes a project and everything its tasks own — dependency edges
// touching those tasks from either side, comments, attachments, subtasks,
// the tasks themselves, team rows, and discussions — in one transaction.
// Admin only. Either every row goes or none do.
func Delete(db *gorm.DB, actor policy.Actor, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrNotFound, id)
			}
			return fmt.Errorf("project: get %d for delete: %w", id, err)
		}

		ok, err := policy.CanDeleteProject(tx, actor, &p)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("project: delete %d: %w", id, ErrForbidden)
		}

		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

		if err := tx.Where("task_id IN (?) OR depends_on_task_id IN (?)", taskIDs, taskIDs).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return fmt.Errorf("project: delete dependencies of %d: %w", id, err)
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("project: delete comments of %d: %w", id, err)
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
			return fmt.Errorf("project: delete subtasks of %d: %w", id, err)
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("project: delete attachments of %d: %w", id, err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("project: delete tasks of %d: %w", id, err)
		}
		if err := tx.Where("topic_id IN (?)",
			tx.Model(&models.DiscussionTopic{}).Select("id").Where("project_id = ?", id)).
			Delete(&models.DiscussionMessage{}).Error; err != nil {
			return fmt.Errorf("project: delete discussion messages of %d: %w", id, err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.DiscussionTopic{}).Error; err != nil {
			return fmt.Errorf("project: delete discussion topics of %d: %w", id, err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectTeam{}).Error; err != nil {
			return fmt.Errorf("project: delete team of %d: %w", id, err)
		}
		if err := tx.Delete(&models.Project{}, id).Error; err != nil {
			return fmt.Errorf("project: delete %d: %w", id, err)
		}

		// Orphan probe inside the same transaction: any surviving task rows
		// mean the cascade is broken, and the whole delete must roll back.
		var orphans int64
		if err := tx.Model(&models.Task{}).Where("project_id = ?", id).Count(&orphans).Error; err != nil {
			return fmt.Errorf("project: verify cascade for %d: %w", id, err)
		}
		if orphans > 0 {
			return fmt.Errorf("project: delete %d left %d orphaned tasks: %w", id, orphans, ErrIntegrity)
		}
		return nil
	})
}

// AddTeamMember grants a user membership on a project. Owner or admin only.
func AddTeamMember(db *gorm.DB, actor policy.Actor, projectID, userID uint) error {
	p, err := ownedProject(db, actor, projectID)
	if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("project: check user %d: %w", userID, err)
	}
	if count == 0 {
		return fmt.Errorf("project: user %d: %w", userID, ErrNotFound)
	}

	member := models.ProjectTeam{ProjectID: p.ID, UserID: userID}
	if err := db.Create(&member).Error; err != nil {
		return fmt.Errorf("project: add member %d to %d: %w", userID, projectID, err)
	}
	return nil
}

// RemoveTeamMember revokes a user's membership. Owner or admin only.
func RemoveTeamMember(db *gorm.DB, actor policy.Actor, projectID, userID uint) error {
	if _, err := ownedProject(db, actor, projectID); err != nil {
		return err
	}

	result := db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectTeam{})
	if result.Error != nil {
		return fmt.Errorf("project: remove member %d from %d: %w", userID, projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project: membership %d/%d: %w", projectID, userID, ErrNotFound)
	}
	return nil
}

// ListTeam returns a project's team memberships.
func ListTeam(db *gorm.DB, projectID uint) ([]models.ProjectTeam, error) {
	var team []models.ProjectTeam
	if err := db.Preload("User").Where("project_id = ?", projectID).Find(&team).Error; err != nil {
		return nil, fmt.Errorf("project: list team of %d: %w", projectID, err)
	}
	return team, nil
}

func ownedProject(db *gorm.DB, actor policy.Actor, projectID uint) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", projectID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("project: get %d: %w", projectID, err)
	}
	if !actor.IsAdmin() && p.OwnerID != actor.UserID {
		return nil, fmt.Errorf("project: manage team of %d: %w", projectID, ErrForbidden)
	}
	return &p, nil
}
