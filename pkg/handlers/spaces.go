package handlers

import (
	"net/http"
	"strings"

	"private-spaces-backend/pkg/config"
	"private-spaces-backend/pkg/database"
	"private-spaces-backend/pkg/middleware"
	"private-spaces-backend/pkg/models"
	"private-spaces-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SpacesHandler serves the private space directory, membership and
// invitation operations
type SpacesHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	logger *zap.Logger
}

func NewSpacesHandler(cfg *config.Config, db database.DatabaseInterface, logger *zap.Logger) *SpacesHandler {
	return &SpacesHandler{config: cfg, db: db, logger: logger}
}

// ==== helpers: membership/role checks ====

// requireMember writes a 403 and returns false when the user holds no
// membership in the space
func (h *SpacesHandler) requireMember(w http.ResponseWriter, spaceID, email string) (models.MemberRole, bool) {
	m, err := h.db.GetMembership(spaceID, email)
	if err != nil {
		utils.WriteForbiddenResponse(w, "You are not a member of this space")
		return "", false
	}
	return m.Role, true
}

// requireAdmin writes a 403 and returns false when the user is not an
// admin of the space
func (h *SpacesHandler) requireAdmin(w http.ResponseWriter, spaceID, email string) bool {
	m, err := h.db.GetMembership(spaceID, email)
	if err != nil || m.Role != models.RoleAdmin {
		utils.WriteForbiddenResponse(w, "Admin privileges required")
		return false
	}
	return true
}

// POST /createPrivateSpace
func (h *SpacesHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req models.CreateSpaceRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Space name is required")
		return
	}

	space := &models.Space{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		AvatarURL:    req.AvatarURL,
		CreatorEmail: user.Email,
	}
	if err := h.db.CreateSpace(space); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create private space")
		return
	}

	// The creator's membership is always admin and is never removable
	membership := &models.Membership{
		SpaceID: space.ID,
		Email:   user.Email,
		Role:    models.RoleAdmin,
	}
	if err := h.db.AddMembership(membership); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create membership")
		return
	}

	h.logger.Info("space created", zap.String("space_id", space.ID), zap.String("creator", user.Email))

	space.MemberCount = 1
	utils.WriteCreatedResponse(w, models.SpaceWithRole{Space: *space, UserRole: models.RoleAdmin})
}

// GET /getUserPrivateSpaces
func (h *SpacesHandler) ListMySpaces(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	spaces, err := h.db.ListUserSpaces(user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to fetch private spaces")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"spaces": spaces})
}

// GET /getPrivateSpaceDetails/{id}
func (h *SpacesHandler) SpaceDetails(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	role, ok := h.requireMember(w, spaceID, user.Email)
	if !ok {
		return
	}

	space, err := h.db.GetSpace(spaceID)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Private space not found")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"space":     space,
		"user_role": role,
	})
}

// GET /getPrivateSpaceMembers/{id}
func (h *SpacesHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	if _, ok := h.requireMember(w, spaceID, user.Email); !ok {
		return
	}

	members, err := h.db.ListMembers(spaceID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to fetch members")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"members": members})
}

// DELETE /removePrivateSpaceMember/{id}/{email}
func (h *SpacesHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")
	targetEmail := chiRoute.URLParam(r, "email")

	if !h.requireAdmin(w, spaceID, user.Email) {
		return
	}

	target, err := h.db.GetMembership(spaceID, targetEmail)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Member not found in this space")
		return
	}
	// Admins are never removable; this keeps the creator's admin
	// membership permanent.
	if target.Role == models.RoleAdmin {
		utils.WriteForbiddenResponse(w, "Admins cannot be removed from a space")
		return
	}

	if err := h.db.RemoveMembership(spaceID, targetEmail); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to remove member")
		return
	}

	h.logger.Info("member removed",
		zap.String("space_id", spaceID),
		zap.String("target", targetEmail),
		zap.String("actor", user.Email))
	utils.WriteMessageResponse(w, "Member removed from private space")
}

// DELETE /dissolvePrivateSpace/{id}
func (h *SpacesHandler) DissolveSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	if !h.requireAdmin(w, spaceID, user.Email) {
		return
	}

	// Irreversible: posts, comments, memberships and invitations all
	// go with the space
	if err := h.db.DeleteSpace(spaceID); err != nil {
		if database.IsNotFound(err) {
			utils.WriteNotFoundResponse(w, "Private space not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to dissolve private space")
		return
	}

	h.logger.Info("space dissolved", zap.String("space_id", spaceID), zap.String("actor", user.Email))
	utils.WriteMessageResponse(w, "Private space dissolved")
}

// GET /getInvitableUsers/{id}
func (h *SpacesHandler) ListInvitableUsers(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	if !h.requireAdmin(w, spaceID, user.Email) {
		return
	}

	users, err := h.db.ListInvitableUsers(spaceID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to fetch invitable users")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"users": users})
}

// GET /searchInvitableUsers/{id}?query=
func (h *SpacesHandler) SearchInvitableUsers(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	if !h.requireAdmin(w, spaceID, user.Email) {
		return
	}

	users, err := h.db.SearchInvitableUsers(spaceID, r.URL.Query().Get("query"))
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to search users")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"users": users})
}
