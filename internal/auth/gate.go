package auth

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID        string
	Role      domain.Role
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller holds the admin role.
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == domain.RoleAdmin
}

// Operation enumerates the complaint operations subject to authorization.
type Operation string

const (
	OpReadOwn         Operation = "read_own"
	OpReadAll         Operation = "read_all"
	OpCreateOwn       Operation = "create_own"
	OpUpdateOwnFields Operation = "update_own_fields"
	OpUpdateStatus    Operation = "update_status"
	OpDeleteOwn       Operation = "delete_own"
)

// DenyReason explains why an operation was refused.
type DenyReason string

const (
	ReasonNotAuthenticated DenyReason = "not_authenticated"
	ReasonNotOwner         DenyReason = "not_owner"
	ReasonInsufficientRole DenyReason = "insufficient_role"
)

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Err converts a denial into an API error; it returns nil when the decision allows.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonNotAuthenticated:
		return apperrors.NewUnauthorized("authentication required")
	case ReasonNotOwner:
		return apperrors.NewForbidden("complaint belongs to another user")
	default:
		return apperrors.NewForbidden("insufficient role")
	}
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Authenticated reports whether caller carries a usable identity at now. A zero ExpiresAt
// means the credential carried no expiry.
func Authenticated(caller *Caller, now time.Time) bool {
	if caller == nil || caller.ID == "" || !caller.Role.Valid() {
		return false
	}
	return caller.ExpiresAt.IsZero() || now.Before(caller.ExpiresAt)
}

// Authorize decides whether caller may perform op. targetOwner is the createdBy of the
// complaint for owner-scoped operations and is ignored otherwise.
//
// Rules apply in order: authentication, admin-only operations, then ownership. Admins do
// not bypass ownership; they read through OpReadAll instead.
func Authorize(caller *Caller, op Operation, targetOwner string, now time.Time) Decision {
	if !Authenticated(caller, now) {
		return deny(ReasonNotAuthenticated)
	}

	switch op {
	case OpReadAll, OpUpdateStatus:
		if caller.Role != domain.RoleAdmin {
			return deny(ReasonInsufficientRole)
		}
		return allow()
	case OpCreateOwn:
		return allow()
	case OpReadOwn, OpUpdateOwnFields, OpDeleteOwn:
		if targetOwner == "" || caller.ID != targetOwner {
			return deny(ReasonNotOwner)
		}
		return allow()
	default:
		return deny(ReasonInsufficientRole)
	}
}
