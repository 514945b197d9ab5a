package models

import "time"

// Roles assignable to a user. The first registered user becomes an Admin.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User is an account that can own projects, join teams, and be assigned tasks.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:128;not null"`
	Role         string `gorm:"size:16;not null;default:User"`
	FirstName    string `gorm:"size:64"`
	LastName     string `gorm:"size:64"`
	Company      string `gorm:"size:128"`
	JobTitle     string `gorm:"size:128"`
	Department   string `gorm:"size:128"`
	Email        string `gorm:"size:128"`
	Phone        string `gorm:"size:32"`
	CreatedAt    time.Time

	Projects []Project `gorm:"foreignKey:OwnerID"`
}
