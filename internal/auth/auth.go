// Package auth handles registration, login, and session tokens. It is the
// only component that touches password hashes; everything downstream works
// with a policy.Actor.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("auth: username already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// ProfileOpts holds the optional profile fields collected at registration.
type ProfileOpts struct {
	FirstName  string
	LastName   string
	Company    string
	JobTitle   string
	Department string
	Email      string
	Phone      string
}

// Register creates a user with a bcrypt password hash. The very first
// registered user becomes an Admin; everyone after that is a regular User.
func Register(db *gorm.DB, username, password string, profile ProfileOpts) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("auth: username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("auth: password is required")
	}

	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return fmt.Errorf("auth: check username %q: %w", username, err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrUsernameTaken, username)
		}

		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return fmt.Errorf("auth: count users: %w", err)
		}
		role := models.RoleUser
		if total == 0 {
			role = models.RoleAdmin
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("auth: hash password: %w", err)
		}

		user = models.User{
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			Company:      profile.Company,
			JobTitle:     profile.JobTitle,
			Department:   profile.Department,
			Email:        profile.Email,
			Phone:        profile.Phone,
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("auth: create user %q: %w", username, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies a username/password pair and returns the user.
func Login(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: load user %q: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// claims is the JWT payload: the actor plus standard registered claims.
type claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the user.
func IssueToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns the actor it carries.
func ParseToken(tokenString, secret string) (policy.Actor, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return policy.Actor{}, ErrInvalidToken
	}
	return policy.Actor{UserID: c.UserID, Role: c.Role}, nil
}
