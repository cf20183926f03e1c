package models

import "time"

// Space is an invite-only content group with membership roles
type Space struct {
	ID           string    `json:"space_id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	AvatarURL    string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatorEmail string    `json:"creator_email" db:"creator_email"`
	MemberCount  int       `json:"member_count" db:"member_count"`
	PostCount    int       `json:"post_count" db:"post_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SpaceWithRole annotates a space with the viewing user's role.
// The role is relationship data between one user and the space,
// not a space-wide property.
type SpaceWithRole struct {
	Space
	UserRole MemberRole `json:"user_role"`
}

// CreateSpaceRequest represents the request payload for space creation
type CreateSpaceRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatarUrl"`
}
