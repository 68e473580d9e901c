// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address users type to log in

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a site account. Staff accounts (admin, editor, moderator) use the
// back office; customer accounts (user) only see their own profile.
//
// Auth fields:
//   - LoginID: the account email, stored lowercase
//   - LoginIDCI: case/diacritic-insensitive version for matching (folded)
//   - PasswordHash: bcrypt hash, never serialized to JSON
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped

	LoginID   *string `bson:"login_id" json:"login_id"`
	LoginIDCI *string `bson:"login_id_ci" json:"-"`
	Email     *string `bson:"email" json:"email"`
	Phone     string  `bson:"phone,omitempty" json:"phone,omitempty"`
	Company   string  `bson:"company,omitempty" json:"company,omitempty"`

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Role   string `bson:"role" json:"role"`
	Status string `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleAdmin     = "admin"
	RoleEditor    = "editor"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleEditor,
		RoleModerator,
		RoleUser,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaffRole reports whether role may sign in to the back office.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleModerator
}
