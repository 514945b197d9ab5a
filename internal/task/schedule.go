package task

import (
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
	"gorm.io/gorm"
)

// DefaultReminderDays is the default window for "upcoming" classification.
const DefaultReminderDays = 7

// Schedule classifications. These are derived, never stored.
const (
	ClassOverdue  = "Overdue"
	ClassUpcoming = "Upcoming"
	ClassNone     = ""
)

// Classify derives a task's schedule classification for a given day.
// Overdue: not Completed and the deadline has passed. Upcoming: not Completed
// and the deadline falls within the next reminderDays days (today included).
// Completed tasks and tasks without a deadline classify as none.
func Classify(t *models.Task, today time.Time, reminderDays int) string {
	if t.Status == models.StatusCompleted || t.Deadline == nil {
		return ClassNone
	}
	day := truncateToDay(today)
	deadline := truncateToDay(*t.Deadline)

	if deadline.Before(day) {
		return ClassOverdue
	}
	days := int(deadline.Sub(day).Hours() / 24)
	if days <= reminderDays {
		return ClassUpcoming
	}
	return ClassNone
}

// Reminders holds the due-date feed: tasks already late and tasks coming due
// within the reminder window.
type Reminders struct {
	Overdue  []models.Task
	Upcoming []models.Task
}

// RemindersFeed scans non-completed tasks with a deadline and splits them
// into overdue and upcoming buckets. userID limits the scan to one assignee;
// pass 0 for all tasks. reminderDays <= 0 falls back to the default of 7.
func RemindersFeed(db *gorm.DB, userID uint, reminderDays int, today time.Time) (*Reminders, error) {
	if reminderDays <= 0 {
		reminderDays = DefaultReminderDays
	}

	q := db.Where("status != ? AND deadline IS NOT NULL", models.StatusCompleted)
	if userID != 0 {
		q = q.Where("assigned_to = ?", userID)
	}

	var tasks []models.Task
	if err := q.Order("deadline ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: reminders scan: %w", err)
	}

	feed := &Reminders{}
	for i := range tasks {
		switch Classify(&tasks[i], today, reminderDays) {
		case ClassOverdue:
			feed.Overdue = append(feed.Overdue, tasks[i])
		case ClassUpcoming:
			feed.Upcoming = append(feed.Upcoming, tasks[i])
		}
	}
	return feed, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
