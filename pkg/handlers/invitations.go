package handlers

import (
	"net/http"
	"strings"
	"time"

	"private-spaces-backend/pkg/middleware"
	"private-spaces-backend/pkg/models"
	"private-spaces-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// POST /inviteToPrivateSpace/{id}
//
// Rejection policy: the invitee must be a registered user, must not
// already be a member, and must not already hold a pending invitation
// to the space.
func (h *SpacesHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	var req models.InviteRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	inviteeEmail := strings.TrimSpace(strings.ToLower(req.InviteeEmail))
	if inviteeEmail == "" {
		utils.WriteBadRequestResponse(w, "Invitee email is required")
		return
	}

	if !h.requireAdmin(w, spaceID, user.Email) {
		return
	}

	if _, err := h.db.GetSpace(spaceID); err != nil {
		utils.WriteNotFoundResponse(w, "Private space not found")
		return
	}
	if _, err := h.db.GetUserByEmail(inviteeEmail); err != nil {
		utils.WriteNotFoundResponse(w, "No account exists for this email")
		return
	}
	if _, err := h.db.GetMembership(spaceID, inviteeEmail); err == nil {
		utils.WriteConflictResponse(w, "User is already a member of this space")
		return
	}
	if _, err := h.db.GetPendingInvitation(spaceID, inviteeEmail); err == nil {
		utils.WriteConflictResponse(w, "An invitation is already pending for this user")
		return
	}

	inv := &models.Invitation{
		SpaceID:      spaceID,
		InviterEmail: user.Email,
		InviteeEmail: inviteeEmail,
		Status:       models.InvitationPending,
		ExpiresAt:    time.Now().Add(h.config.InvitationExpiry),
	}
	if err := h.db.CreateInvitation(inv); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to send invitation")
		return
	}

	h.logger.Info("invitation sent",
		zap.String("space_id", spaceID),
		zap.String("inviter", user.Email),
		zap.String("invitee", inviteeEmail))
	utils.WriteMessageResponse(w, "Invitation sent")
}

// GET /getPendingInvitations
func (h *SpacesHandler) ListPendingInvitations(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	invitations, err := h.db.ListPendingInvitations(user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to fetch invitations")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"invitations": invitations})
}

// POST /acceptPrivateSpaceInvitation/{id}
func (h *SpacesHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	invitationID := chiRoute.URLParam(r, "id")

	inv, ok := h.loadAnswerableInvitation(w, invitationID, user.Email)
	if !ok {
		return
	}

	// Acceptance produces a member-role membership
	membership := &models.Membership{
		SpaceID: inv.SpaceID,
		Email:   user.Email,
		Role:    models.RoleMember,
	}
	if err := h.db.AddMembership(membership); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to join private space")
		return
	}

	inv.Status = models.InvitationAccepted
	if err := h.db.UpdateInvitation(inv); err != nil {
		h.logger.Warn("failed to mark invitation accepted", zap.String("invitation_id", inv.ID), zap.Error(err))
	}

	h.logger.Info("invitation accepted",
		zap.String("invitation_id", inv.ID),
		zap.String("space_id", inv.SpaceID),
		zap.String("invitee", user.Email))
	utils.WriteMessageResponse(w, "Invitation accepted")
}

// POST /declinePrivateSpaceInvitation/{id}
func (h *SpacesHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	invitationID := chiRoute.URLParam(r, "id")

	inv, ok := h.loadAnswerableInvitation(w, invitationID, user.Email)
	if !ok {
		return
	}

	// Declining is terminal; no membership is created
	inv.Status = models.InvitationDeclined
	if err := h.db.UpdateInvitation(inv); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to decline invitation")
		return
	}
	utils.WriteMessageResponse(w, "Invitation declined")
}

// loadAnswerableInvitation fetches the invitation and verifies it is
// addressed to the user, still pending and unexpired. Expired
// invitations are marked as such on the way out.
func (h *SpacesHandler) loadAnswerableInvitation(w http.ResponseWriter, invitationID, email string) (*models.Invitation, bool) {
	inv, err := h.db.GetInvitation(invitationID)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Invitation not found")
		return nil, false
	}
	if inv.InviteeEmail != email {
		utils.WriteForbiddenResponse(w, "This invitation is not addressed to you")
		return nil, false
	}
	if inv.Status != models.InvitationPending {
		utils.WriteBadRequestResponse(w, "Invitation is no longer pending")
		return nil, false
	}
	if time.Now().After(inv.ExpiresAt) {
		inv.Status = models.InvitationExpired
		_ = h.db.UpdateInvitation(inv)
		utils.WriteBadRequestResponse(w, "Invitation has expired")
		return nil, false
	}
	return inv, true
}
