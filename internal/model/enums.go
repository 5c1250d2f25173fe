package model

import (
	"fmt"
	"strings"

	"github.com/and161185/cardkeeper/internal/errs"
)

// Role is the closed set of user roles.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleMember
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "MEMBER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

// ParseRole maps a stored or user-supplied role name onto Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MEMBER":
		return RoleMember, nil
	case "ADMIN":
		return RoleAdmin, nil
	}
	return RoleUnknown, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, s)
}

// Status is the workflow state of a card.
type Status uint8

const (
	StatusTodo Status = iota + 1
	StatusInProgress
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "TODO"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusDone:
		return "DONE"
	default:
		return ""
	}
}

// ParseStatus normalizes s case-insensitively; "in progress" and
// "in-progress" are accepted for IN_PROGRESS.
func ParseStatus(s string) (Status, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	switch n {
	case "TODO":
		return StatusTodo, nil
	case "IN_PROGRESS":
		return StatusInProgress, nil
	case "DONE":
		return StatusDone, nil
	}
	return 0, fmt.Errorf("%w: unknown status %q", errs.ErrValidation, s)
}
