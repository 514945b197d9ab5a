// Package discussion provides project discussion threads: topics and the
// messages posted under them.
package discussion

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("discussion: not found")
	ErrForbidden = errors.New("discussion: forbidden")
	ErrArchived  = errors.New("discussion: topic is archived")
)

// CreateTopic opens a new topic on a project, optionally with a first
// message.
func CreateTopic(db *gorm.DB, actor policy.Actor, projectID uint, title, firstMessage string) (*models.DiscussionTopic, error) {
	if title == "" {
		return nil, fmt.Errorf("discussion: topic title is required")
	}

	var topic models.DiscussionTopic
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
			return fmt.Errorf("discussion: check project %d: %w", projectID, err)
		}
		if count == 0 {
			return fmt.Errorf("discussion: project %d: %w", projectID, ErrNotFound)
		}

		topic = models.DiscussionTopic{
			ProjectID: projectID,
			UserID:    actor.UserID,
			Topic:     title,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&topic).Error; err != nil {
			return fmt.Errorf("discussion: create topic: %w", err)
		}

		if firstMessage != "" {
			msg := models.DiscussionMessage{
				TopicID:   topic.ID,
				UserID:    actor.UserID,
				Body:      firstMessage,
				CreatedAt: time.Now(),
			}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("discussion: create first message: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// Post appends a message to a topic. Archived topics are read-only.
func Post(db *gorm.DB, actor policy.Actor, topicID uint, body string) (*models.DiscussionMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("discussion: message body is required")
	}

	topic, err := getTopic(db, topicID)
	if err != nil {
		return nil, err
	}
	if topic.Archived {
		return nil, fmt.Errorf("discussion: post to topic %d: %w", topicID, ErrArchived)
	}

	msg := models.DiscussionMessage{
		TopicID:   topicID,
		UserID:    actor.UserID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("discussion: post to topic %d: %w", topicID, err)
	}
	return &msg, nil
}

// EditMessage rewrites a message body. Authors may edit their own messages;
// admins may edit any.
func EditMessage(db *gorm.DB, actor policy.Actor, messageID uint, body string) error {
	if body == "" {
		return fmt.Errorf("discussion: message body is required")
	}

	var msg models.DiscussionMessage
	if err := db.Where("id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("discussion: message %d: %w", messageID, ErrNotFound)
		}
		return fmt.Errorf("discussion: get message %d: %w", messageID, err)
	}
	if msg.UserID != actor.UserID && !actor.IsAdmin() {
		return fmt.Errorf("discussion: edit message %d: %w", messageID, ErrForbidden)
	}

	if err := db.Model(&models.DiscussionMessage{}).Where("id = ?", messageID).
		Update("body", body).Error; err != nil {
		return fmt.Errorf("discussion: edit message %d: %w", messageID, err)
	}
	return nil
}

// DeleteMessage removes a message. Author or admin only.
func DeleteMessage(db *gorm.DB, actor policy.Actor, messageID uint) error {
	var msg models.DiscussionMessage
	if err := db.Where("id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("discussion: message %d: %w", messageID, ErrNotFound)
		}
		return fmt.Errorf("discussion: get message %d: %w", messageID, err)
	}
	if msg.UserID != actor.UserID && !actor.IsAdmin() {
		return fmt.Errorf("discussion: delete message %d: %w", messageID, ErrForbidden)
	}

	if err := db.Delete(&models.DiscussionMessage{}, messageID).Error; err != nil {
		return fmt.Errorf("discussion: delete message %d: %w", messageID, err)
	}
	return nil
}

// Archive marks a topic read-only. Creator or admin only.
func Archive(db *gorm.DB, actor policy.Actor, topicID uint) error {
	topic, err := getTopic(db, topicID)
	if err != nil {
		return err
	}
	if topic.UserID != actor.UserID && !actor.IsAdmin() {
		return fmt.Errorf("discussion: archive topic %d: %w", topicID, ErrForbidden)
	}

	if err := db.Model(&models.DiscussionTopic{}).Where("id = ?", topicID).
		Update("archived", true).Error; err != nil {
		return fmt.Errorf("discussion: archive topic %d: %w", topicID, err)
	}
	return nil
}

// DeleteTopic removes a topic and all its messages in one transaction.
// Creator or admin only.
func DeleteTopic(db *gorm.DB, actor policy.Actor, topicID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		topic, err := getTopic(tx, topicID)
		if err != nil {
			return err
		}
		if topic.UserID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("discussion: delete topic %d: %w", topicID, ErrForbidden)
		}

		if err := tx.Where("topic_id = ?", topicID).Delete(&models.DiscussionMessage{}).Error; err != nil {
			return fmt.Errorf("discussion: delete messages of topic %d: %w", topicID, err)
		}
		if err := tx.Delete(&models.DiscussionTopic{}, topicID).Error; err != nil {
			return fmt.Errorf("discussion: delete topic %d: %w", topicID, err)
		}
		return nil
	})
}

// ListTopics returns a project's topics newest first. Archived topics are
// included; they simply refuse new posts.
func ListTopics(db *gorm.DB, projectID uint) ([]models.DiscussionTopic, error) {
	var topics []models.DiscussionTopic
	if err := db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("discussion: list topics of project %d: %w", projectID, err)
	}
	return topics, nil
}

// ListMessages returns a topic's messages oldest first.
func ListMessages(db *gorm.DB, topicID uint) ([]models.DiscussionMessage, error) {
	var msgs []models.DiscussionMessage
	if err := db.Where("topic_id = ?", topicID).Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("discussion: list messages of topic %d: %w", topicID, err)
	}
	return msgs, nil
}

func getTopic(db *gorm.DB, topicID uint) (*models.DiscussionTopic, error) {
	var topic models.DiscussionTopic
	if err := db.Where("id = ?", topicID).First(&topic).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("discussion: topic %d: %w", topicID, ErrNotFound)
		}
		return nil, fmt.Errorf("discussion: get topic %d: %w", topicID, err)
	}
	return &topic, nil
}
