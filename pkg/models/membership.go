package models

import "time"

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Membership relates a user to a space with a role. Unique per
// (space, email); the creator's membership is always admin and
// cannot be removed, so every space keeps at least one admin.
type Membership struct {
	ID       string     `json:"id" db:"id"`
	SpaceID  string     `json:"space_id" db:"space_id"`
	Email    string     `json:"email" db:"email"`
	Role     MemberRole `json:"role" db:"role"`
	JoinedAt time.Time  `json:"joined_at" db:"joined_at"`
}

// Member is the wire shape returned by the member listing: the
// membership joined with the user's display fields.
type Member struct {
	Email     string     `json:"email"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
}
