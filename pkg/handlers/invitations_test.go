package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"private-spaces-backend/pkg/models"
)

func TestInviteUser(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, tok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusOK)

	inv, err := e.db.GetPendingInvitation(space.ID, bob.Email)
	if err != nil {
		t.Fatalf("pending invitation missing: %v", err)
	}
	if inv.InviterEmail != alice.Email {
		t.Errorf("inviter = %q, want %q", inv.InviterEmail, alice.Email)
	}
	if inv.ExpiresAt.Before(time.Now()) {
		t.Error("invitation already expired at creation")
	}
}

func TestInviteRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	carol := e.addUser("carol@example.com", "Carol", "")
	space := e.createSpace(e.token(alice), "Chess")
	e.join(space.ID, bob.Email, models.RoleMember)

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, e.token(bob),
		map[string]string{"inviteeEmail": carol.Email})
	wantStatus(t, rec, http.StatusForbidden)
}

func TestInviteRejectsUnregisteredEmail(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, tok,
		map[string]string{"inviteeEmail": "nobody@example.com"})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestInviteRejectsExistingMember(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")
	e.join(space.ID, bob.Email, models.RoleMember)

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, tok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusConflict)
}

func TestInviteRejectsDuplicatePending(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, tok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusOK)

	rec = e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, tok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusConflict)
	if msg := errorMessage(t, rec); msg != "An invitation is already pending for this user" {
		t.Errorf("message = %q", msg)
	}
}

func TestAcceptInvitation(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	aliceTok := e.token(alice)
	bobTok := e.token(bob)
	space := e.createSpace(aliceTok, "Chess")

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, aliceTok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusOK)

	rec = e.do(http.MethodGet, "/getPendingInvitations", bobTok, nil)
	wantStatus(t, rec, http.StatusOK)
	var pending struct {
		Invitations []models.Invitation `json:"invitations"`
	}
	decode(t, rec, &pending)
	if len(pending.Invitations) != 1 {
		t.Fatalf("pending invitations = %d, want 1", len(pending.Invitations))
	}
	if pending.Invitations[0].SpaceName != "Chess" {
		t.Errorf("space_name = %q, want Chess", pending.Invitations[0].SpaceName)
	}
	invID := pending.Invitations[0].ID

	rec = e.do(http.MethodPost, "/acceptPrivateSpaceInvitation/"+invID, bobTok, nil)
	wantStatus(t, rec, http.StatusOK)

	// Acceptance produces a member-role membership.
	m, err := e.db.GetMembership(space.ID, bob.Email)
	if err != nil {
		t.Fatalf("membership missing after accept: %v", err)
	}
	if m.Role != models.RoleMember {
		t.Errorf("role = %q, want member", m.Role)
	}

	// The space now shows up in bob's directory.
	rec = e.do(http.MethodGet, "/getUserPrivateSpaces", bobTok, nil)
	var resp struct {
		Spaces []models.SpaceWithRole `json:"spaces"`
	}
	decode(t, rec, &resp)
	if len(resp.Spaces) != 1 || resp.Spaces[0].ID != space.ID {
		t.Fatalf("spaces after accept = %+v, want [%s]", resp.Spaces, space.ID)
	}
	if resp.Spaces[0].UserRole != models.RoleMember {
		t.Errorf("user_role = %q, want member", resp.Spaces[0].UserRole)
	}

	// Settled invitations leave the pending list and cannot be
	// answered twice.
	rec = e.do(http.MethodGet, "/getPendingInvitations", bobTok, nil)
	decode(t, rec, &pending)
	if len(pending.Invitations) != 0 {
		t.Errorf("pending invitations after accept = %d, want 0", len(pending.Invitations))
	}
	rec = e.do(http.MethodPost, "/acceptPrivateSpaceInvitation/"+invID, bobTok, nil)
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestAcceptRejectsForeignInvitation(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	carol := e.addUser("carol@example.com", "Carol", "")
	aliceTok := e.token(alice)
	space := e.createSpace(aliceTok, "Chess")

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, aliceTok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusOK)
	inv, err := e.db.GetPendingInvitation(space.ID, bob.Email)
	if err != nil {
		t.Fatal(err)
	}

	rec = e.do(http.MethodPost, "/acceptPrivateSpaceInvitation/"+inv.ID, e.token(carol), nil)
	wantStatus(t, rec, http.StatusForbidden)
}

func TestDeclineIsTerminal(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	aliceTok := e.token(alice)
	bobTok := e.token(bob)
	space := e.createSpace(aliceTok, "Chess")

	rec := e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, aliceTok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusOK)
	inv, err := e.db.GetPendingInvitation(space.ID, bob.Email)
	if err != nil {
		t.Fatal(err)
	}

	rec = e.do(http.MethodPost, "/declinePrivateSpaceInvitation/"+inv.ID, bobTok, nil)
	wantStatus(t, rec, http.StatusOK)

	// No membership, and the declined invitation cannot be accepted.
	if _, err := e.db.GetMembership(space.ID, bob.Email); err == nil {
		t.Error("membership exists after decline")
	}
	rec = e.do(http.MethodPost, "/acceptPrivateSpaceInvitation/"+inv.ID, bobTok, nil)
	wantStatus(t, rec, http.StatusBadRequest)

	// A declined invitation no longer blocks a fresh one.
	rec = e.do(http.MethodPost, "/inviteToPrivateSpace/"+space.ID, aliceTok,
		map[string]string{"inviteeEmail": bob.Email})
	wantStatus(t, rec, http.StatusOK)
}

func TestExpiredInvitationCannotBeAccepted(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	bobTok := e.token(bob)
	space := e.createSpace(e.token(alice), "Chess")

	inv := &models.Invitation{
		SpaceID:      space.ID,
		InviterEmail: alice.Email,
		InviteeEmail: bob.Email,
		Status:       models.InvitationPending,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	if err := e.db.CreateInvitation(inv); err != nil {
		t.Fatal(err)
	}

	// Expired invitations are filtered from the pending list.
	rec := e.do(http.MethodGet, "/getPendingInvitations", bobTok, nil)
	var pending struct {
		Invitations []models.Invitation `json:"invitations"`
	}
	decode(t, rec, &pending)
	if len(pending.Invitations) != 0 {
		t.Errorf("pending invitations = %d, want 0", len(pending.Invitations))
	}

	rec = e.do(http.MethodPost, "/acceptPrivateSpaceInvitation/"+inv.ID, bobTok, nil)
	wantStatus(t, rec, http.StatusBadRequest)

	// The attempt marks it expired; still no membership.
	stored, err := e.db.GetInvitation(inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.InvitationExpired {
		t.Errorf("status = %q, want expired", stored.Status)
	}
	if _, err := e.db.GetMembership(space.ID, bob.Email); err == nil {
		t.Error("membership exists after expired accept attempt")
	}
}
