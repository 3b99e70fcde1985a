// AngelaMos | 2026
// access.go

// Package access is the role authorization gate. Every mutating operation
// receives the caller as an explicit *Principal and asks this package for a
// Decision before touching state. Route middleware and services share the
// same functions so role and ownership rules live in one place.
package access

import (
	"net/http"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleDetective Role = "detective"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDetective, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID   string
	Role Role
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotOwner        Reason = "not owner"
)

// ErrNotOwner matches core.ErrForbidden and renders as 403 NOT_OWNER.
var ErrNotOwner = core.NewAppError(
	core.ErrForbidden,
	"not the resource owner",
	http.StatusForbidden,
	"NOT_OWNER",
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Admit() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into the matching sentinel. It returns nil for Admit.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}

	switch d.Reason {
	case ReasonUnauthenticated:
		return core.ErrUnauthorized
	case ReasonNotOwner:
		return ErrNotOwner
	default:
		return core.ErrForbidden
	}
}

// Authorize admits p when it is present and holds one of roles. An empty
// role list admits any authenticated principal.
func Authorize(p *Principal, roles ...Role) Decision {
	if p == nil || p.ID == "" {
		return Deny(ReasonUnauthenticated)
	}

	if len(roles) == 0 {
		return Admit()
	}

	for _, r := range roles {
		if p.Role == r {
			return Admit()
		}
	}

	return Deny(ReasonForbidden)
}

// AuthorizeOwner runs the role gate and then requires p to own the resource
// unless p is an admin. ownerID is empty for resources with no owner, which
// only admins may then act on.
func AuthorizeOwner(p *Principal, ownerID string, roles ...Role) Decision {
	if d := Authorize(p, roles...); !d.Allowed {
		return d
	}

	if p.IsAdmin() {
		return Admit()
	}

	if ownerID == "" || ownerID != p.ID {
		return Deny(ReasonNotOwner)
	}

	return Admit()
}

// Require is shorthand for Authorize(...).Err().
func Require(p *Principal, roles ...Role) error {
	return Authorize(p, roles...).Err()
}

// RequireOwner is shorthand for AuthorizeOwner(...).Err().
func RequireOwner(p *Principal, ownerID string, roles ...Role) error {
	return AuthorizeOwner(p, ownerID, roles...).Err()
}
