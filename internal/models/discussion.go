package models

import "time"

// DiscussionTopic is a conversation thread attached to a project.
type DiscussionTopic struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Topic     string `gorm:"size:255;not null"`
	Archived  bool   `gorm:"default:false"`
	CreatedAt time.Time

	User     *User               `gorm:"foreignKey:UserID"`
	Messages []DiscussionMessage `gorm:"foreignKey:TopicID"`
}

// DiscussionMessage is a single post within a topic.
type DiscussionMessage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TopicID   uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}
