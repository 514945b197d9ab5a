package task

import (
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
)

func TestClassify(t *testing.T) {
	today := time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   string
		deadline *time.Time
		want     string
	}{
		{"no deadline", models.StatusPending, nil, ClassNone},
		{"completed ignores deadline", models.StatusCompleted, date(2026, 9, 1), ClassNone},
		{"past deadline", models.StatusPending, date(2026, 9, 14), ClassOverdue},
		{"long past deadline", models.StatusInProgress, date(2026, 8, 1), ClassOverdue},
		{"due today", models.StatusPending, date(2026, 9, 15), ClassUpcoming},
		{"due within window", models.StatusOnHold, date(2026, 9, 20), ClassUpcoming},
		{"window boundary", models.StatusPending, date(2026, 9, 22), ClassUpcoming},
		{"beyond window", models.StatusPending, date(2026, 9, 23), ClassNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &models.Task{Status: tt.status, Deadline: tt.deadline}
			got := Classify(task, today, 7)
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_TimeOfDayIrrelevant(t *testing.T) {
	// A deadline later today is Upcoming even if its clock time has passed.
	today := time.Date(2026, 9, 15, 23, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)

	task := &models.Task{Status: models.StatusPending, Deadline: &deadline}
	if got := Classify(task, today, 7); got != ClassUpcoming {
		t.Errorf("Classify() = %q, want Upcoming", got)
	}
}

func TestRemindersFeed(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	today := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	mk := func(title string, deadline *time.Time, status string) {
		t.Helper()
		task, err := Create(gormDB, adminActor(), CreateOpts{
			ProjectID: p.ID, Title: title, Deadline: deadline,
		})
		if err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
		if status != models.StatusPending {
			if _, err := Transition(gormDB, task.ID, status, adminActor()); err != nil {
				t.Fatalf("Transition %q: %v", title, err)
			}
		}
	}

	mk("late", date(2026, 9, 10), models.StatusPending)
	mk("soon", date(2026, 9, 18), models.StatusInProgress)
	mk("far", date(2026, 12, 1), models.StatusPending)
	mk("done late", date(2026, 9, 10), models.StatusCompleted)
	mk("undated", nil, models.StatusPending)

	feed, err := RemindersFeed(gormDB, 0, 7, today)
	if err != nil {
		t.Fatalf("RemindersFeed: %v", err)
	}
	if len(feed.Overdue) != 1 || feed.Overdue[0].Title != "late" {
		t.Errorf("Overdue = %d tasks, want [late]", len(feed.Overdue))
	}
	if len(feed.Upcoming) != 1 || feed.Upcoming[0].Title != "soon" {
		t.Errorf("Upcoming = %d tasks, want [soon]", len(feed.Upcoming))
	}
}

func TestRemindersFeed_WindowOverride(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	today := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	if _, err := Create(gormDB, adminActor(), CreateOpts{
		ProjectID: p.ID, Title: "month out", Deadline: date(2026, 10, 10),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	feed, err := RemindersFeed(gormDB, 0, 30, today)
	if err != nil {
		t.Fatalf("RemindersFeed: %v", err)
	}
	if len(feed.Upcoming) != 1 {
		t.Errorf("Upcoming with 30-day window = %d, want 1", len(feed.Upcoming))
	}

	feed, err = RemindersFeed(gormDB, 0, 7, today)
	if err != nil {
		t.Fatalf("RemindersFeed: %v", err)
	}
	if len(feed.Upcoming) != 0 {
		t.Errorf("Upcoming with 7-day window = %d, want 0", len(feed.Upcoming))
	}
}

func TestRemindersFeed_FiltersByAssignee(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	today := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	alice := uint(2)
	if _, err := Create(gormDB, adminActor(), CreateOpts{
		ProjectID: p.ID, Title: "mine", Deadline: date(2026, 9, 16), AssignedTo: &alice,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(gormDB, adminActor(), CreateOpts{
		ProjectID: p.ID, Title: "theirs", Deadline: date(2026, 9, 16),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	feed, err := RemindersFeed(gormDB, alice, 7, today)
	if err != nil {
		t.Fatalf("RemindersFeed: %v", err)
	}
	if len(feed.Upcoming) != 1 || feed.Upcoming[0].Title != "mine" {
		t.Errorf("Upcoming = %d tasks, want [mine]", len(feed.Upcoming))
	}
}

func TestRemindersFeed_DefaultWindow(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	today := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	if _, err := Create(gormDB, adminActor(), CreateOpts{
		ProjectID: p.ID, Title: "within default", Deadline: date(2026, 9, 21),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// reminderDays <= 0 falls back to the 7-day default.
	feed, err := RemindersFeed(gormDB, 0, 0, today)
	if err != nil {
		t.Fatalf("RemindersFeed: %v", err)
	}
	if len(feed.Upcoming) != 1 {
		t.Errorf("Upcoming = %d, want 1 under the default window", len(feed.Upcoming))
	}
}
