package client

// Role is a member's role within one space. Roles are per-space: the
// same user can be an admin in one space and a plain member in another.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// The Can* predicates gate UI affordances only. The server re-checks
// every permission, so a stale local role can at worst show a control
// that then fails with an AuthorizationError.

// CanInvite reports whether a holder of the role may invite users.
func (r Role) CanInvite() bool {
	return r == RoleAdmin
}

// CanDissolve reports whether a holder of the role may dissolve the space.
func (r Role) CanDissolve() bool {
	return r == RoleAdmin
}

// CanRemove reports whether an actor with this role may remove a
// member holding target. Admins are never removable, by anyone.
func (r Role) CanRemove(target Role) bool {
	return r == RoleAdmin && target != RoleAdmin
}
