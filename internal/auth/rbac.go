package auth

import (
	"slices"
	"strings"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
)

// Role is an account role issued by the auth provider.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// Permission names one guarded capability.
type Permission string

const (
	PermEventsRead          Permission = "events:read"
	PermEventsCreate        Permission = "events:create"
	PermEventsUpdate        Permission = "events:update"
	PermEventsFeature       Permission = "events:feature"
	PermOrganizersRead      Permission = "organizers:read"
	PermOrganizersManage    Permission = "organizers:manage"
	PermRegistrationsCreate Permission = "registrations:create"
	PermRegistrationsRead   Permission = "registrations:read"
	PermPaymentsUpdate      Permission = "payments:update"
)

// RolePermissions is the static role to permission table.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermEventsRead, PermEventsCreate, PermEventsUpdate, PermEventsFeature,
		PermOrganizersRead, PermOrganizersManage,
		PermRegistrationsCreate, PermRegistrationsRead, PermPaymentsUpdate,
	},
	RoleOrganizer: {
		PermEventsRead, PermEventsCreate, PermEventsUpdate,
		PermOrganizersRead, PermOrganizersManage,
		PermRegistrationsCreate, PermRegistrationsRead,
	},
	RoleParticipant: {
		PermEventsRead, PermOrganizersRead, PermRegistrationsCreate,
	},
}

// HasPermission reports whether role grants p.
func HasPermission(role Role, p Permission) bool {
	return slices.Contains(RolePermissions[role], p)
}

// Policy describes who may call a route. With RequireAll the user needs one
// of Roles and every permission; otherwise one of Roles or any permission
// suffices. Empty lists impose no constraint.
type Policy struct {
	Roles       []Role
	Permissions []Permission
	RequireAll  bool
}

// Evaluate checks user against policy and returns an Authorization error
// describing the failed check.
func Evaluate(user *User, policy Policy) error {
	if user == nil {
		return apperr.Authorization("access denied")
	}

	hasRoles := len(policy.Roles) > 0
	hasPerms := len(policy.Permissions) > 0
	if !hasRoles && !hasPerms {
		return nil
	}

	roleOK := !hasRoles || slices.Contains(policy.Roles, user.Role)

	var missing []Permission
	anyPerm := false
	for _, p := range policy.Permissions {
		if HasPermission(user.Role, p) {
			anyPerm = true
		} else {
			missing = append(missing, p)
		}
	}
	var permOK bool
	switch {
	case !hasPerms:
		permOK = true
	case policy.RequireAll:
		permOK = len(missing) == 0
	default:
		permOK = anyPerm
	}

	if policy.RequireAll || !hasRoles || !hasPerms {
		if !roleOK {
			return rolesError(policy.Roles)
		}
		if !permOK {
			return permissionsError(missing)
		}
		return nil
	}

	if roleOK || permOK {
		return nil
	}
	return rolesError(policy.Roles)
}

// RequireRole checks a single-role route.
func RequireRole(user *User, roles ...Role) error {
	if user == nil || !slices.Contains(roles, user.Role) {
		return apperr.Authorization("access denied")
	}
	return nil
}

func rolesError(roles []Role) error {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return apperr.Authorization("requires at least one of roles: "+strings.Join(names, ", ")).
		WithDetails(map[string]any{"requiredRoles": names})
}

func permissionsError(missing []Permission) error {
	names := make([]string, len(missing))
	for i, p := range missing {
		names[i] = string(p)
	}
	return apperr.Authorization("missing permissions: "+strings.Join(names, ", ")).
		WithDetails(map[string]any{"missingPermissions": names})
}
