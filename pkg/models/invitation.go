package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a pending offer of membership in a space. At most one
// pending invitation may exist per (space, invitee email) pair.
type Invitation struct {
	ID           string           `json:"invitation_id" db:"id"`
	SpaceID      string           `json:"space_id" db:"space_id"`
	SpaceName    string           `json:"space_name,omitempty" db:"space_name"`
	InviterEmail string           `json:"inviter_email" db:"inviter_email"`
	InviteeEmail string           `json:"invitee_email" db:"invitee_email"`
	Status       InvitationStatus `json:"status" db:"status"`
	ExpiresAt    time.Time        `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// InviteRequest represents the request payload for inviting a user
type InviteRequest struct {
	InviteeEmail string `json:"inviteeEmail" validate:"required,email"`
}
