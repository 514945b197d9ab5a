package discussion

import (
	"errors"
	"testing"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
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
	if err := gormDB.AutoMigrate(
		&models.Project{}, &models.DiscussionTopic{}, &models.DiscussionMessage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

func seedProject(t *testing.T, gormDB *gorm.DB) *models.Project {
	t.Helper()
	p := models.Project{OwnerID: 1, Name: "Alpha"}
	if err := gormDB.Create(&p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return &p
}

var (
	alice = policy.Actor{UserID: 1, Role: models.RoleUser}
	bob   = policy.Actor{UserID: 2, Role: models.RoleUser}
	admin = policy.Actor{UserID: 9, Role: models.RoleAdmin}
)

func TestCreateTopic_WithFirstMessage(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	topic, err := CreateTopic(gormDB, alice, p.ID, "Kickoff", "welcome all")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if topic.UserID != alice.UserID {
		t.Errorf("UserID = %d, want %d", topic.UserID, alice.UserID)
	}

	msgs, err := ListMessages(gormDB, topic.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "welcome all" {
		t.Errorf("messages = %v, want [welcome all]", msgs)
	}
}

func TestCreateTopic_NoFirstMessage(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	topic, err := CreateTopic(gormDB, alice, p.ID, "Quiet start", "")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	msgs, err := ListMessages(gormDB, topic.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages = %d, want 0", len(msgs))
	}
}

func TestCreateTopic_ProjectNotFound(t *testing.T) {
	gormDB := openTestDB(t)

	_, err := CreateTopic(gormDB, alice, 404, "Lost", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestPost_AndArchive(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	topic, err := CreateTopic(gormDB, alice, p.ID, "Open thread", "")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if _, err := Post(gormDB, bob, topic.ID, "hi"); err != nil {
		t.Fatalf("Post: %v", err)
	}

	// Only the creator or an admin may archive.
	if err := Archive(gormDB, bob, topic.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-creator archive = %v, want ErrForbidden", err)
	}
	if err := Archive(gormDB, alice, topic.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	// Archived topics are read-only.
	if _, err := Post(gormDB, bob, topic.ID, "too late"); !errors.Is(err, ErrArchived) {
		t.Fatalf("post to archived = %v, want ErrArchived", err)
	}

	// Still listed and readable.
	topics, err := ListTopics(gormDB, p.ID)
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 1 || !topics[0].Archived {
		t.Errorf("topics = %v, want one archived topic", topics)
	}
}

func TestEditMessage_AuthorOrAdmin(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	topic, err := CreateTopic(gormDB, alice, p.ID, "Thread", "")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	msg, err := Post(gormDB, bob, topic.ID, "draft")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if err := EditMessage(gormDB, alice, msg.ID, "hijack"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-author edit = %v, want ErrForbidden", err)
	}
	if err := EditMessage(gormDB, bob, msg.ID, "final"); err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if err := EditMessage(gormDB, admin, msg.ID, "moderated"); err != nil {
		t.Fatalf("admin edit: %v", err)
	}

	msgs, err := ListMessages(gormDB, topic.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if msgs[0].Body != "moderated" {
		t.Errorf("Body = %q, want moderated", msgs[0].Body)
	}
}

func TestDeleteMessage(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	topic, err := CreateTopic(gormDB, alice, p.ID, "Thread", "")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	msg, err := Post(gormDB, bob, topic.ID, "oops")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if err := DeleteMessage(gormDB, alice, msg.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-author delete = %v, want ErrForbidden", err)
	}
	if err := DeleteMessage(gormDB, bob, msg.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := DeleteMessage(gormDB, bob, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteTopic_RemovesMessages(t *testing.T) {
	gormDB := openTestDB(t)
	p := seedProject(t, gormDB)

	topic, err := CreateTopic(gormDB, alice, p.ID, "Doomed", "first")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if _, err := Post(gormDB, bob, topic.ID, "second"); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if err := DeleteTopic(gormDB, bob, topic.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-creator delete = %v, want ErrForbidden", err)
	}
	if err := DeleteTopic(gormDB, alice, topic.ID); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}

	var topics, msgs int64
	gormDB.Model(&models.DiscussionTopic{}).Count(&topics)
	gormDB.Model(&models.DiscussionMessage{}).Count(&msgs)
	if topics != 0 || msgs != 0 {
		t.Errorf("topics = %d, messages = %d; want 0, 0", topics, msgs)
	}
}
