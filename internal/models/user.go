package models

import "time"

// User is the database representation of an application user.
type User struct {
	UserID        string    `db:"user_id"`
	Username      string    `db:"username"`
	Name          string    `db:"name"`
	PasswordHash  string    `db:"password_hash"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}
