// Package authz is the single place that decides who may do what. Every
// service receives an explicit Actor and calls Require before touching the
// store.
package authz

import (
	"erp-backend/internal/apperror"
	"erp-backend/internal/models"
)

type Actor struct {
	UserID uint
	Role   models.UserRole
}

// NewActor normalises the raw role string (so "planner" becomes op).
func NewActor(userID uint, role string) Actor {
	return Actor{UserID: userID, Role: models.ParseRole(role)}
}

type Action int

const (
	ViewInventory Action = iota + 1
	ManageInventory
	ManageCategories
	ManageStatuses
	ManageUsers
	ViewAuditLog
	CreateOrder
	ViewOrder
	EditOrder
)

func (a Action) String() string {
	switch a {
	case ViewInventory:
		return "view_inventory"
	case ManageInventory:
		return "manage_inventory"
	case ManageCategories:
		return "manage_categories"
	case ManageStatuses:
		return "manage_statuses"
	case ManageUsers:
		return "manage_users"
	case ViewAuditLog:
		return "view_audit_log"
	case CreateOrder:
		return "create_order"
	case ViewOrder:
		return "view_order"
	case EditOrder:
		return "edit_order"
	default:
		return "unknown"
	}
}

var roleActions = map[models.UserRole]map[Action]bool{
	models.RoleBoss: {
		ViewInventory: true, ManageInventory: true, ManageCategories: true,
		ManageStatuses: true, ManageUsers: true, ViewAuditLog: true,
		CreateOrder: true, ViewOrder: true, EditOrder: true,
	},
	models.RoleOp: {
		ViewInventory: true, ManageInventory: true, ManageCategories: true,
		ManageStatuses: true,
		CreateOrder: true, ViewOrder: true, EditOrder: true,
	},
	models.RoleSales: {
		ViewInventory: true, CreateOrder: true, ViewOrder: true, EditOrder: true,
	},
}

// ownerScoped actions are limited to the actor's own rows for sales.
var ownerScoped = map[Action]bool{
	ViewOrder: true,
	EditOrder: true,
}

// Can reports whether actor may perform action on a resource owned by
// ownerID. ownerID is ignored for actions that are not owner scoped.
func Can(actor Actor, action Action, ownerID uint) bool {
	if actor.UserID == 0 {
		return false
	}
	allowed := roleActions[actor.Role]
	if !allowed[action] {
		return false
	}
	if actor.Role == models.RoleSales && ownerScoped[action] {
		return ownerID == actor.UserID
	}
	return true
}

func Require(actor Actor, action Action, ownerID uint) error {
	if Can(actor, action, ownerID) {
		return nil
	}
	if actor.Role == models.RoleSales && ownerScoped[action] {
		return apperror.Forbidden("this production order does not belong to you")
	}
	return apperror.Forbidden("you are not allowed to perform this action")
}

// RolesFor lists the roles that can perform action at all. Used to build
// route-level gates from the same table.
func RolesFor(action Action) []models.UserRole {
	var roles []models.UserRole
	for _, r := range []models.UserRole{models.RoleBoss, models.RoleOp, models.RoleSales} {
		if roleActions[r][action] {
			roles = append(roles, r)
		}
	}
	return roles
}
