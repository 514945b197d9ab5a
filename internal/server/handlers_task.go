package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/budget"
	"github.com/taskdeck/taskdeck/internal/task"
	"gorm.io/gorm"
)

type taskRequest struct {
	ProjectID   uint     `json:"project_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Recurrence  string   `json:"recurrence"`
	StartDate   string   `json:"start_date"`
	Deadline    string   `json:"deadline"`
	AssignedTo  *uint    `json:"assigned_to"`
	Budget      *float64 `json:"budget"`
	ActualCost  *float64 `json:"actual_cost"`
}

func handleTaskCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := parseDate(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		deadline, err := parseDate(req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := task.Create(db, currentActor(c), task.CreateOpts{
			ProjectID:   req.ProjectID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Recurrence:  req.Recurrence,
			StartDate:   start,
			Deadline:    deadline,
			AssignedTo:  req.AssignedTo,
			Budget:      req.Budget,
			ActualCost:  req.ActualCost,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func handleTaskList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters task.ListFilters
		if v := c.Query("project_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
				return
			}
			filters.ProjectID = uint(id)
		}
		filters.Status = c.Query("status")
		filters.Priority = c.Query("priority")
		if v := c.Query("assigned_to"); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assigned_to"})
				return
			}
			filters.AssignedTo = uint(id)
		}

		tasks, err := task.List(db, filters)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, tasks)
	}
}

func handleTaskGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t, err := task.Get(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func handleTaskUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Priority    *string `json:"priority"`
			Recurrence  *string `json:"recurrence"`
			StartDate   string  `json:"start_date"`
			Deadline    string  `json:"deadline"`
			AssignedTo  *uint   `json:"assigned_to"`
			Unassign    bool    `json:"unassign"`
			TimeSpent   *int    `json:"time_spent"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := parseDate(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		deadline, err := parseDate(req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := task.Update(db, currentActor(c), id, task.UpdateOpts{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Recurrence:  req.Recurrence,
			StartDate:   start,
			Deadline:    deadline,
			AssignedTo:  req.AssignedTo,
			Unassign:    req.Unassign,
			TimeSpent:   req.TimeSpent,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func handleTaskDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.Delete(db, currentActor(c), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleTaskTransition(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := task.Transition(db, id, req.Status, currentActor(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"task":      result.Task,
			"successor": result.Successor,
		})
	}
}

func handleTaskCosts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var req struct {
			Budget     *float64 `json:"budget"`
			ActualCost *float64 `json:"actual_cost"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Edit policy first; the budget package itself is policy-agnostic.
		if _, err := task.Update(db, currentActor(c), id, task.UpdateOpts{}); err != nil {
			writeError(c, err)
			return
		}

		t, err := budget.SetCosts(db, id, req.Budget, req.ActualCost)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func handleDepAdd(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var req struct {
			DependsOn uint `json:"depends_on" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.AddDep(db, id, req.DependsOn); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

func handleDepRemove(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		depID, err := parseID(c, "depID")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.RemoveDep(db, id, depID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleDepList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		blockers, dependents, err := task.ListDeps(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		canComplete, err := task.CanComplete(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"depends_on":   blockers,
			"dependents":   dependents,
			"can_complete": canComplete,
		})
	}
}

func handleSubtaskAdd(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var req struct {
			Title string `json:"title" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := task.AddSubtask(db, currentActor(c), id, req.Title)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, st)
	}
}

func handleSubtaskList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		subtasks, err := task.ListSubtasks(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, subtasks)
	}
}

func handleSubtaskStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := task.SetSubtaskStatus(db, currentActor(c), id, req.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func handleSubtaskDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.DeleteSubtask(db, currentActor(c), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleCommentAdd(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var req struct {
			Body string `json:"body" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		comment, err := task.AddComment(db, currentActor(c), id, req.Body)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}

func handleCommentList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		comments, err := task.ListComments(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}

func handleAttachmentUpload(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		a, err := task.AddAttachment(db, currentActor(c), id, file.Filename, data)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":        a.ID,
			"task_id":   a.TaskID,
			"file_name": a.FileName,
		})
	}
}

func handleAttachmentList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		attachments, err := task.ListAttachments(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, attachments)
	}
}

func handleAttachmentDownload(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := task.GetAttachment(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=\""+a.FileName+"\"")
		c.Data(http.StatusOK, "application/octet-stream", a.FileData)
	}
}

func handleAttachmentDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.DeleteAttachment(db, currentActor(c), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
