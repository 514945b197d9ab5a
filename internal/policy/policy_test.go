package policy

import (
	"testing"

	"github.com/taskdeck/taskdeck/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectTeam{}, &models.Task{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

// fixture: owner (id 1) owns the project, assignee (id 2) holds the task,
// member (id 3) is on the team, outsider (id 4) has no relation, admin (id 5).
type fixture struct {
	db       *gorm.DB
	project  models.Project
	task     models.Task
	owner    Actor
	assignee Actor
	member   Actor
	outsider Actor
	admin    Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gormDB := openTestDB(t)

	f := &fixture{
		db:       gormDB,
		owner:    Actor{UserID: 1, Role: models.RoleUser},
		assignee: Actor{UserID: 2, Role: models.RoleUser},
		member:   Actor{UserID: 3, Role: models.RoleUser},
		outsider: Actor{UserID: 4, Role: models.RoleUser},
		admin:    Actor{UserID: 5, Role: models.RoleAdmin},
	}

	f.project = models.Project{OwnerID: f.owner.UserID, Name: "Alpha"}
	if err := gormDB.Create(&f.project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	assignedTo := f.assignee.UserID
	f.task = models.Task{
		ProjectID: f.project.ID, Title: "Build", Status: models.StatusPending,
		Priority: models.PriorityMedium, AssignedTo: &assignedTo,
	}
	if err := gormDB.Create(&f.task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := gormDB.Create(&models.ProjectTeam{ProjectID: f.project.ID, UserID: f.member.UserID}).Error; err != nil {
		t.Fatalf("create team row: %v", err)
	}
	return f
}

func TestCanEditTask(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", f.admin, true},
		{"assignee", f.assignee, true},
		{"project owner", f.owner, true},
		{"team member", f.member, true},
		{"outsider", f.outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanEditTask(f.db, tt.actor, &f.task)
			if err != nil {
				t.Fatalf("CanEditTask: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanEditTask(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCanViewProject(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", f.admin, true},
		{"owner", f.owner, true},
		{"task assignee", f.assignee, true},
		{"team member", f.member, true},
		{"outsider", f.outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanViewProject(f.db, tt.actor, &f.project)
			if err != nil {
				t.Fatalf("CanViewProject: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanViewProject(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCanDeleteProject_AdminOnly(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", f.admin, true},
		{"owner", f.owner, false},
		{"team member", f.member, false},
		{"outsider", f.outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanDeleteProject(f.db, tt.actor, &f.project)
			if err != nil {
				t.Fatalf("CanDeleteProject: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanDeleteProject(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if !(Actor{UserID: 1, Role: models.RoleAdmin}).IsAdmin() {
		t.Error("Admin role should report IsAdmin")
	}
	if (Actor{UserID: 1, Role: models.RoleUser}).IsAdmin() {
		t.Error("User role should not report IsAdmin")
	}
}
