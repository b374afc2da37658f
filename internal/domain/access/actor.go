package access

import "strings"

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTeacher:
		return RoleTeacher, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Actor is the resolved caller: identity, role and tenant scope. It is
// passed explicitly into every service call instead of being read from
// session state.
type Actor struct {
	ID       string
	Role     Role
	TenantID string
	// ClassIDs is only populated for teachers.
	ClassIDs []string
}

func (a Actor) IsZero() bool {
	return a.ID == "" || a.Role == ""
}

// SameTenant reports whether the actor is scoped to tenantID. Owners are
// tenant-less and never match.
func (a Actor) SameTenant(tenantID string) bool {
	return a.TenantID != "" && tenantID != "" && a.TenantID == tenantID
}

func (a Actor) TeachesClass(classID string) bool {
	if a.Role != RoleTeacher || classID == "" {
		return false
	}
	for _, id := range a.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// StudentScope builds the policy inputs for a student living in tenantID/classID.
func (a Actor) StudentScope(tenantID, classID string) StudentScope {
	return StudentScope{
		SameSchool: a.SameTenant(tenantID),
		IsOwnClass: a.TeachesClass(classID),
	}
}
