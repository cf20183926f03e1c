package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Space is the canonical client-side shape of a private space. All
// wire variants (space_id vs id and similar drift) are normalized by
// the JSON tags here, at the API boundary, so the rest of the
// application never sees raw payload keys.
type Space struct {
	ID           string    `json:"space_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	AvatarURL    string    `json:"avatar_url"`
	CreatorEmail string    `json:"creator_email"`
	MemberCount  int       `json:"member_count"`
	PostCount    int       `json:"post_count"`
	UserRole     Role      `json:"user_role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Member is one entry of a space's member list.
type Member struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// DisplayName returns the member's name, falling back to the email.
func (m Member) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		return m.Email
	}
	return name
}

// InvitableUser is a registered user who can still be invited to a
// given space: not a member and with no pending invitation.
type InvitableUser struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	SchoolName string `json:"school_name"`
	AvatarURL  string `json:"avatar_url"`
}

// CreateSpace creates a private space. The creator becomes its first
// member with the admin role. A blank name fails locally.
func (c *Client) CreateSpace(ctx context.Context, name, description, avatarURL string) (*Space, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Reason: "space name must not be blank"}
	}

	var space Space
	err := c.do(ctx, http.MethodPost, "/createPrivateSpace", map[string]string{
		"name":        name,
		"description": description,
		"avatarUrl":   avatarURL,
	}, &space)
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// Spaces fetches all spaces the session user belongs to, each carrying
// the user's role in it. The result is cached; DissolveSpace prunes
// the cache so the list stays consistent without a refetch.
func (c *Client) Spaces(ctx context.Context) ([]Space, error) {
	var resp struct {
		Spaces []Space `json:"spaces"`
	}
	if err := c.do(ctx, http.MethodGet, "/getUserPrivateSpaces", nil, &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.spaces = append([]Space(nil), resp.Spaces...)
	c.mu.Unlock()
	return resp.Spaces, nil
}

// CachedSpaces returns the space list from the last Spaces call,
// minus any spaces dissolved since.
func (c *Client) CachedSpaces() []Space {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Space(nil), c.spaces...)
}

// SpaceDetails fetches one space plus the session user's role in it.
func (c *Client) SpaceDetails(ctx context.Context, spaceID string) (*Space, error) {
	var resp struct {
		Space    Space `json:"space"`
		UserRole Role  `json:"user_role"`
	}
	if err := c.do(ctx, http.MethodGet, "/getPrivateSpaceDetails/"+url.PathEscape(spaceID), nil, &resp); err != nil {
		return nil, err
	}
	resp.Space.UserRole = resp.UserRole
	return &resp.Space, nil
}

// Members fetches the member list of a space.
func (c *Client) Members(ctx context.Context, spaceID string) ([]Member, error) {
	var resp struct {
		Members []Member `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, "/getPrivateSpaceMembers/"+url.PathEscape(spaceID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

// RemoveMember removes a member from a space. Only admins may remove,
// and admins themselves can never be removed.
func (c *Client) RemoveMember(ctx context.Context, spaceID, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Reason: "member email must not be blank"}
	}
	path := "/removePrivateSpaceMember/" + url.PathEscape(spaceID) + "/" + url.PathEscape(email)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// DissolveSpace deletes a space and all of its content. On success the
// space is pruned from the cached list.
func (c *Client) DissolveSpace(ctx context.Context, spaceID string) error {
	if err := c.do(ctx, http.MethodDelete, "/dissolvePrivateSpace/"+url.PathEscape(spaceID), nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.spaces[:0]
	for _, s := range c.spaces {
		if s.ID != spaceID {
			kept = append(kept, s)
		}
	}
	c.spaces = kept
	return nil
}

// InvitableUsers fetches the users who can still be invited to a space.
func (c *Client) InvitableUsers(ctx context.Context, spaceID string) ([]InvitableUser, error) {
	return c.fetchInvitable(ctx, "/getInvitableUsers/"+url.PathEscape(spaceID))
}

// SearchInvitableUsers filters invitable users by name or email.
func (c *Client) SearchInvitableUsers(ctx context.Context, spaceID, query string) ([]InvitableUser, error) {
	path := "/searchInvitableUsers/" + url.PathEscape(spaceID) + "?query=" + url.QueryEscape(query)
	return c.fetchInvitable(ctx, path)
}

func (c *Client) fetchInvitable(ctx context.Context, path string) ([]InvitableUser, error) {
	var resp struct {
		Users []InvitableUser `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
