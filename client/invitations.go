package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is one pending (or settled) invitation addressed to a user.
type Invitation struct {
	ID           string           `json:"invitation_id"`
	SpaceID      string           `json:"space_id"`
	SpaceName    string           `json:"space_name"`
	InviterEmail string           `json:"inviter_email"`
	InviteeEmail string           `json:"invitee_email"`
	Status       InvitationStatus `json:"status"`
	ExpiresAt    time.Time        `json:"expires_at"`
	CreatedAt    time.Time        `json:"created_at"`
}

// InviteUser invites a registered user to a space. Only admins may
// invite. Repeated invitations for a user who is already a member or
// already has a pending invitation surface as a DuplicateError.
func (c *Client) InviteUser(ctx context.Context, spaceID, inviteeEmail string) error {
	inviteeEmail = strings.TrimSpace(inviteeEmail)
	if inviteeEmail == "" {
		return &ValidationError{Reason: "invitee email must not be blank"}
	}
	return c.do(ctx, http.MethodPost, "/inviteToPrivateSpace/"+url.PathEscape(spaceID), map[string]string{
		"inviteeEmail": inviteeEmail,
	}, nil)
}

// PendingInvitations fetches the unexpired pending invitations
// addressed to the session user.
func (c *Client) PendingInvitations(ctx context.Context) ([]Invitation, error) {
	var resp struct {
		Invitations []Invitation `json:"invitations"`
	}
	if err := c.do(ctx, http.MethodGet, "/getPendingInvitations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Invitations, nil
}

// AcceptInvitation accepts a pending invitation. The user joins the
// space with the member role; a subsequent Spaces call includes it.
func (c *Client) AcceptInvitation(ctx context.Context, invitationID string) error {
	return c.do(ctx, http.MethodPost, "/acceptPrivateSpaceInvitation/"+url.PathEscape(invitationID), nil, nil)
}

// DeclineInvitation declines a pending invitation. Declining is
// terminal; the same invitation cannot be accepted later.
func (c *Client) DeclineInvitation(ctx context.Context, invitationID string) error {
	return c.do(ctx, http.MethodPost, "/declinePrivateSpaceInvitation/"+url.PathEscape(invitationID), nil, nil)
}
