// Package access defines the closed set of roles and the permission gates
// every core operation checks against an explicitly passed Actor.
package access

import (
	"fmt"
	"strings"

	"predpraznik_backend/platform/apperr"

	"github.com/google/uuid"
)

// Role is the closed set of roles the hosted auth provider issues.
type Role int

const (
	RoleSalesperson Role = iota + 1
	RoleInventory
	RoleAdmin
)

// String returns the wire name stored in profiles.role and JWT claims.
func (r Role) String() string {
	switch r {
	case RoleSalesperson:
		return "salesperson"
	case RoleInventory:
		return "inventory"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole accepts only the three known wire names.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "salesperson":
		return RoleSalesperson, nil
	case "inventory":
		return RoleInventory, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, apperr.Validation("unknown role " + value)
}

// Actor is the authenticated caller of a core operation.
type Actor struct {
	UserID     uuid.UUID
	Role       Role
	CodePrefix string
}

const msgForbidden = "operation not permitted for role "

func deny(a Actor) error {
	return apperr.Forbidden(msgForbidden + a.Role.String())
}

// CanGenerateCodes allows inventory and admin for any prefix, and a
// salesperson only for their own prefix.
func CanGenerateCodes(a Actor, prefix string) error {
	switch a.Role {
	case RoleInventory, RoleAdmin:
		return nil
	case RoleSalesperson:
		if a.CodePrefix != "" && strings.EqualFold(a.CodePrefix, prefix) {
			return nil
		}
		return deny(a)
	}
	return deny(a)
}

// CanAssignCodes gates code ownership changes.
func CanAssignCodes(a Actor) error {
	switch a.Role {
	case RoleInventory, RoleAdmin:
		return nil
	case RoleSalesperson:
		return deny(a)
	}
	return deny(a)
}

// CanDeleteCodes is admin only.
func CanDeleteCodes(a Actor) error {
	switch a.Role {
	case RoleAdmin:
		return nil
	case RoleSalesperson, RoleInventory:
		return deny(a)
	}
	return deny(a)
}

// CanOperateCycle allows a salesperson to act on their own cycles only.
func CanOperateCycle(a Actor, ownerID uuid.UUID) error {
	switch a.Role {
	case RoleInventory, RoleAdmin:
		return nil
	case RoleSalesperson:
		if a.UserID == ownerID {
			return nil
		}
		return apperr.Forbidden("cycle belongs to another salesperson")
	}
	return deny(a)
}

// CanManagePickups gates starting, completing and deleting pickup batches.
// Salespeople may only create batches, checked per cycle via CanOperateCycle.
func CanManagePickups(a Actor) error {
	switch a.Role {
	case RoleInventory, RoleAdmin:
		return nil
	case RoleSalesperson:
		return deny(a)
	}
	return deny(a)
}

// CanManageAccounts is admin only.
func CanManageAccounts(a Actor) error {
	switch a.Role {
	case RoleAdmin:
		return nil
	case RoleSalesperson, RoleInventory:
		return deny(a)
	}
	return deny(a)
}

// SeesAllSalespeople reports whether reads may span every salesperson.
func SeesAllSalespeople(a Actor) bool {
	switch a.Role {
	case RoleInventory, RoleAdmin:
		return true
	case RoleSalesperson:
		return false
	}
	return false
}

// ScopeSalesperson resolves the salesperson filter for a read. Salespeople
// are always pinned to themselves whatever they asked for.
func ScopeSalesperson(a Actor, requested *uuid.UUID) *uuid.UUID {
	if SeesAllSalespeople(a) {
		return requested
	}
	id := a.UserID
	return &id
}

// CanEditCompany lets salespeople edit unowned companies and their own.
func CanEditCompany(a Actor, ownerID *uuid.UUID) error {
	switch a.Role {
	case RoleInventory, RoleAdmin:
		return nil
	case RoleSalesperson:
		if ownerID == nil || *ownerID == a.UserID {
			return nil
		}
		return apperr.Forbidden("company belongs to another salesperson")
	}
	return deny(a)
}

// CanManageReminder lets users handle their own reminders; admin handles any.
func CanManageReminder(a Actor, ownerID uuid.UUID) error {
	return ownOrAdmin(a, ownerID, "reminder belongs to another user")
}

// CanManageTask lets users work their own board; admin works any board.
func CanManageTask(a Actor, ownerID uuid.UUID) error {
	return ownOrAdmin(a, ownerID, "task belongs to another user")
}

func ownOrAdmin(a Actor, ownerID uuid.UUID, message string) error {
	switch a.Role {
	case RoleAdmin:
		return nil
	case RoleSalesperson, RoleInventory:
		if a.UserID == ownerID {
			return nil
		}
		return apperr.Forbidden(message)
	}
	return deny(a)
}
