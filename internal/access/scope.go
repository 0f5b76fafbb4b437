// Package access turns a caller's role into the filter applied to every
// project read.
package access

import (
	"fmt"

	"promanage/internal/common"
	"promanage/internal/models"
)

// Scope restricts which projects are visible. Zero value means unrestricted.
// When Involving is set, a project matches if either PMID or DeveloperID
// equals it; PMID and DeveloperID are then ignored.
type Scope struct {
	PMID        string
	DeveloperID string
	Involving   string
}

// All is the unrestricted scope.
var All = Scope{}

// ScopeFor maps a role and user id to the scope of projects the user may see.
func ScopeFor(role models.Role, userID string) (Scope, error) {
	switch role {
	case models.RolePM:
		return Scope{PMID: userID}, nil
	case models.RoleTL, models.RoleProduction:
		return Scope{DeveloperID: userID}, nil
	case models.RoleExecutive:
		return All, nil
	}
	return Scope{}, common.Forbidden(fmt.Sprintf("No project access defined for role %q", role))
}

// Involving matches projects the user manages or is assigned to.
func Involving(userID string) Scope {
	return Scope{Involving: userID}
}

// ManagedBy matches projects whose PM is the user.
func ManagedBy(userID string) Scope {
	return Scope{PMID: userID}
}

// AssignedTo matches projects whose developer is the user.
func AssignedTo(userID string) Scope {
	return Scope{DeveloperID: userID}
}

// Unrestricted reports whether the scope lets every project through.
func (s Scope) Unrestricted() bool {
	return s == All
}

// Allows evaluates the scope against a project already in memory.
func (s Scope) Allows(p models.Project) bool {
	if s.Involving != "" {
		return p.PMID == s.Involving || (p.DeveloperID != nil && *p.DeveloperID == s.Involving)
	}
	if s.PMID != "" && p.PMID != s.PMID {
		return false
	}
	if s.DeveloperID != "" && (p.DeveloperID == nil || *p.DeveloperID != s.DeveloperID) {
		return false
	}
	return true
}
