package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleBoss  UserRole = "boss"
	RoleOp    UserRole = "op"
	RoleSales UserRole = "sales"

	// roleUnknown is never stored; ParseRole returns it for anything else.
	roleUnknown UserRole = ""
)

// ParseRole maps the stored role string onto the closed role set. The
// historical "planner" value is an alias of op.
func ParseRole(s string) UserRole {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boss":
		return RoleBoss
	case "op", "planner":
		return RoleOp
	case "sales":
		return RoleSales
	default:
		return roleUnknown
	}
}

func (r UserRole) Valid() bool {
	return r == RoleBoss || r == RoleOp || r == RoleSales
}

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"size:64;uniqueIndex;not null" json:"username"`
	DisplayName  string   `gorm:"size:100" json:"display_name"`
	Role         UserRole `gorm:"size:20;not null;index" json:"role"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Enabled      bool     `gorm:"not null;default:true" json:"enabled"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
