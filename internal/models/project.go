package models

import "time"

// Project groups tasks under a single owner. Budget is nullable so an unset
// budget stays distinguishable from a zero one.
type Project struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint   `gorm:"not null;index"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner *User         `gorm:"foreignKey:OwnerID"`
	Tasks []Task        `gorm:"foreignKey:ProjectID"`
	Team  []ProjectTeam `gorm:"foreignKey:ProjectID"`
}

// ProjectTeam grants a user visibility and edit rights on a project
// without being its owner.
type ProjectTeam struct {
	ProjectID uint `gorm:"primaryKey"`
	UserID    uint `gorm:"primaryKey"`

	Project Project `gorm:"foreignKey:ProjectID"`
	User    User    `gorm:"foreignKey:UserID"`
}
