package task

import (
	"errors"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
)

func TestTransition_AnyToAny(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	task := seedTask(t, gormDB, p.ID, "Mover")

	// Walk an arbitrary path through the status set, including reopening a
	// completed task.
	path := []string{
		models.StatusInProgress,
		models.StatusOnHold,
		models.StatusCompleted,
		models.StatusPending,
	}
	for _, status := range path {
		result, err := Transition(gormDB, task.ID, status, adminActor())
		if err != nil {
			t.Fatalf("Transition to %q: %v", status, err)
		}
		if result.Task.Status != status {
			t.Errorf("Status = %q, want %q", result.Task.Status, status)
		}
	}
}

func TestTransition_InvalidStatus(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	task := seedTask(t, gormDB, p.ID, "Stuck")

	_, err := Transition(gormDB, task.ID, "Done-ish", adminActor())
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestTransition_NotFound(t *testing.T) {
	gormDB := openTestDB(t)

	_, err := Transition(gormDB, 404, models.StatusInProgress, adminActor())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestTransition_Forbidden(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	task := seedTask(t, gormDB, p.ID, "Guarded")

	outsider := policy.Actor{UserID: 42, Role: models.RoleUser}
	_, err := Transition(gormDB, task.ID, models.StatusInProgress, outsider)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestTransition_CompleteGatedOnDeps(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	a := seedTask(t, gormDB, p.ID, "A")
	b := seedTask(t, gormDB, p.ID, "B")

	if err := AddDep(gormDB, a.ID, b.ID); err != nil {
		t.Fatalf("AddDep: %v", err)
	}

	_, err := Transition(gormDB, a.ID, models.StatusCompleted, adminActor())
	if !errors.Is(err, ErrDependenciesUnmet) {
		t.Fatalf("error = %v, want ErrDependenciesUnmet", err)
	}

	// The gate only guards Completed; other transitions stay open.
	if _, err := Transition(gormDB, a.ID, models.StatusInProgress, adminActor()); err != nil {
		t.Fatalf("Transition to In Progress: %v", err)
	}

	if _, err := Transition(gormDB, b.ID, models.StatusCompleted, adminActor()); err != nil {
		t.Fatalf("complete blocker: %v", err)
	}
	if _, err := Transition(gormDB, a.ID, models.StatusCompleted, adminActor()); err != nil {
		t.Fatalf("complete after blocker done: %v", err)
	}
}

func TestTransition_SameStatusNoOp(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	daily, err := Create(gormDB, adminActor(), CreateOpts{
		ProjectID: p.ID, Title: "Standup", Recurrence: models.RecurrenceDaily,
		Deadline: date(2026, 9, 1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := Transition(gormDB, daily.ID, models.StatusCompleted, adminActor())
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if first.Successor == nil {
		t.Fatal("first completion of a recurring task should create a successor")
	}

	// Completing an already-completed task is a no-op: no second successor.
	second, err := Transition(gormDB, daily.ID, models.StatusCompleted, adminActor())
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if second.Successor != nil {
		t.Error("repeated completion must not create another successor")
	}

	var count int64
	if err := gormDB.Model(&models.Task{}).Where("title = ?", "Standup").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("task rows = %d, want 2 (original plus one successor)", count)
	}
}

func TestTransition_RecurringRollover(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	tests := []struct {
		recurrence string
		days       int
	}{
		{models.RecurrenceDaily, 1},
		{models.RecurrenceWeekly, 7},
		{models.RecurrenceMonthly, 30},
	}
	for _, tt := range tests {
		t.Run(tt.recurrence, func(t *testing.T) {
			deadline := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
			task, err := Create(gormDB, adminActor(), CreateOpts{
				ProjectID: p.ID, Title: "Recurring " + tt.recurrence,
				Priority: models.PriorityHigh, Recurrence: tt.recurrence,
				Deadline: &deadline,
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			result, err := Transition(gormDB, task.ID, models.StatusCompleted, adminActor())
			if err != nil {
				t.Fatalf("Transition: %v", err)
			}
			if result.Task.Status != models.StatusCompleted {
				t.Errorf("parent Status = %q, want Completed", result.Task.Status)
			}

			s := result.Successor
			if s == nil {
				t.Fatal("expected a successor")
			}
			if s.Status != models.StatusPending {
				t.Errorf("successor Status = %q, want Pending", s.Status)
			}
			if s.Priority != models.PriorityHigh {
				t.Errorf("successor Priority = %q, want High", s.Priority)
			}
			if s.Recurrence != tt.recurrence {
				t.Errorf("successor Recurrence = %q, want %q", s.Recurrence, tt.recurrence)
			}
			want := deadline.AddDate(0, 0, tt.days)
			if s.Deadline == nil || !s.Deadline.Equal(want) {
				t.Errorf("successor Deadline = %v, want %v", s.Deadline, want)
			}
		})
	}
}

func TestTransition_RolloverWithoutDeadline(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	task, err := Create(gormDB, adminActor(), CreateOpts{
		ProjectID: p.ID, Title: "Undated chore", Recurrence: models.RecurrenceWeekly,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := Transition(gormDB, task.ID, models.StatusCompleted, adminActor())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if result.Successor == nil {
		t.Fatal("expected a successor")
	}
	if result.Successor.Deadline != nil {
		t.Errorf("successor Deadline = %v, want nil", result.Successor.Deadline)
	}
}

func TestTransition_NonRecurringNoRollover(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)
	task := seedTask(t, gormDB, p.ID, "One-off")

	result, err := Transition(gormDB, task.ID, models.StatusCompleted, adminActor())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if result.Successor != nil {
		t.Error("non-recurring task must not create a successor")
	}
}
