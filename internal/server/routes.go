package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/discussion"
	"github.com/taskdeck/taskdeck/internal/project"
	"github.com/taskdeck/taskdeck/internal/task"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	router.POST("/api/register", handleRegister(db, cfg))
	router.POST("/api/login", handleLogin(db, cfg))

	api := router.Group("/api", requireAuth(cfg.Auth.JWTSecret))

	api.GET("/projects", handleProjectList(db))
	api.POST("/projects", handleProjectCreate(db))
	api.GET("/projects/:id", handleProjectGet(db))
	api.PATCH("/projects/:id", handleProjectUpdate(db))
	api.DELETE("/projects/:id", handleProjectDelete(db))
	api.GET("/projects/:id/summary", handleProjectSummary(db))
	api.GET("/projects/:id/team", handleTeamList(db))
	api.POST("/projects/:id/team", handleTeamAdd(db))
	api.DELETE("/projects/:id/team/:userID", handleTeamRemove(db))

	api.GET("/projects/:id/topics", handleTopicList(db))
	api.POST("/projects/:id/topics", handleTopicCreate(db))
	api.POST("/topics/:id/messages", handleTopicPost(db))
	api.GET("/topics/:id/messages", handleTopicMessages(db))
	api.POST("/topics/:id/archive", handleTopicArchive(db))
	api.DELETE("/topics/:id", handleTopicDelete(db))
	api.PATCH("/messages/:id", handleMessageEdit(db))
	api.DELETE("/messages/:id", handleMessageDelete(db))

	api.GET("/tasks", handleTaskList(db))
	api.POST("/tasks", handleTaskCreate(db))
	api.GET("/tasks/:id", handleTaskGet(db))
	api.PATCH("/tasks/:id", handleTaskUpdate(db))
	api.DELETE("/tasks/:id", handleTaskDelete(db))
	api.POST("/tasks/:id/status", handleTaskTransition(db))
	api.POST("/tasks/:id/costs", handleTaskCosts(db))
	api.POST("/tasks/:id/deps", handleDepAdd(db))
	api.DELETE("/tasks/:id/deps/:depID", handleDepRemove(db))
	api.GET("/tasks/:id/deps", handleDepList(db))
	api.POST("/tasks/:id/subtasks", handleSubtaskAdd(db))
	api.GET("/tasks/:id/subtasks", handleSubtaskList(db))
	api.POST("/subtasks/:id/status", handleSubtaskStatus(db))
	api.DELETE("/subtasks/:id", handleSubtaskDelete(db))
	api.POST("/tasks/:id/comments", handleCommentAdd(db))
	api.GET("/tasks/:id/comments", handleCommentList(db))
	api.POST("/tasks/:id/attachments", handleAttachmentUpload(db))
	api.GET("/tasks/:id/attachments", handleAttachmentList(db))
	api.GET("/attachments/:id", handleAttachmentDownload(db))
	api.DELETE("/attachments/:id", handleAttachmentDelete(db))

	api.GET("/reminders", handleReminders(db, cfg))
	api.GET("/calendar", handleCalendar(db, cfg))
}

// writeError translates component errors into HTTP responses. Integrity
// violations are logged loudly; everything else is an expected runtime
// condition.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, project.ErrNotFound),
		errors.Is(err, discussion.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrForbidden),
		errors.Is(err, project.ErrForbidden),
		errors.Is(err, discussion.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrDependenciesUnmet),
		errors.Is(err, discussion.ErrArchived):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, project.ErrIntegrity):
		log.Printf("FATAL integrity violation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "integrity violation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
