package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/task"
	"gorm.io/gorm"
)

// StatusCounts holds task counts by status for one project.
type StatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	OnHold     int `json:"on_hold"`
	Total      int `json:"total"`
}

// StatusSummary returns per-status task counts for a project.
func StatusSummary(db *gorm.DB, projectID uint) (*StatusCounts, error) {
	type row struct {
		Status string
		Count  int
	}
	var rows []row
	if err := db.Model(&models.Task{}).
		Select("status, count(*) as count").
		Where("project_id = ?", projectID).
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("server: status summary for project %d: %w", projectID, err)
	}

	counts := &StatusCounts{}
	for _, r := range rows {
		counts.Total += r.Count
		switch r.Status {
		case models.StatusPending:
			counts.Pending += r.Count
		case models.StatusInProgress:
			counts.InProgress += r.Count
		case models.StatusCompleted:
			counts.Completed += r.Count
		case models.StatusOnHold:
			counts.OnHold += r.Count
		}
	}
	return counts, nil
}

// CalendarEvent is a task deadline prepared for calendar display.
type CalendarEvent struct {
	TaskID   uint      `json:"task_id"`
	Title    string    `json:"title"`
	Project  string    `json:"project"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Schedule string    `json:"schedule"` // Overdue, Upcoming, or empty
}

// CalendarEvents returns every task with a deadline as a dated event,
// annotated with its derived schedule classification.
func CalendarEvents(db *gorm.DB, reminderDays int, today time.Time) ([]CalendarEvent, error) {
	var tasks []models.Task
	if err := db.Preload("Project").Where("deadline IS NOT NULL").
		Order("deadline ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("server: calendar scan: %w", err)
	}

	events := make([]CalendarEvent, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		ev := CalendarEvent{
			TaskID:   t.ID,
			Title:    t.Title,
			Date:     *t.Deadline,
			Status:   t.Status,
			Schedule: task.Classify(t, today, reminderDays),
		}
		if t.Project != nil {
			ev.Project = t.Project.Name
		}
		events = append(events, ev)
	}
	return events, nil
}

// handleReminders serves the due-date feed. The reminder window defaults to
// the configured value and can be overridden per request with ?days=N.
func handleReminders(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := cfg.Reminders.Days
		if v := c.Query("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
				return
			}
			days = n
		}

		var userID uint
		if c.Query("mine") == "true" {
			userID = currentActor(c).UserID
		}

		feed, err := task.RemindersFeed(db, userID, days, time.Now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"overdue":  feed.Overdue,
			"upcoming": feed.Upcoming,
		})
	}
}

func handleCalendar(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := CalendarEvents(db, cfg.Reminders.Days, time.Now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, events)
	}
}
