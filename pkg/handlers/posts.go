package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"private-spaces-backend/pkg/config"
	"private-spaces-backend/pkg/database"
	"private-spaces-backend/pkg/middleware"
	"private-spaces-backend/pkg/models"
	"private-spaces-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostsHandler serves the space-scoped content feed
type PostsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	logger *zap.Logger
}

func NewPostsHandler(cfg *config.Config, db database.DatabaseInterface, logger *zap.Logger) *PostsHandler {
	return &PostsHandler{config: cfg, db: db, logger: logger}
}

func (h *PostsHandler) requireMember(w http.ResponseWriter, spaceID, email string) (models.MemberRole, bool) {
	m, err := h.db.GetMembership(spaceID, email)
	if err != nil {
		utils.WriteForbiddenResponse(w, "You are not a member of this space")
		return "", false
	}
	return m.Role, true
}

// POST /createPrivateSpacePost/{id}
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	if _, ok := h.requireMember(w, spaceID, user.Email); !ok {
		return
	}

	var req models.CreatePostRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		utils.WriteBadRequestResponse(w, "Post content cannot be empty")
		return
	}
	if len(content) > models.MaxPostContentLen {
		utils.WriteBadRequestResponse(w, fmt.Sprintf("Post content exceeds %d characters", models.MaxPostContentLen))
		return
	}

	post := &models.Post{
		SpaceID:     spaceID,
		AuthorEmail: user.Email,
		Content:     content,
		FileURL:     req.FileURL,
	}
	if err := h.db.CreatePost(post); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create post")
		return
	}

	created, err := h.db.GetPost(post.ID)
	if err != nil {
		created = post
	}
	utils.WriteCreatedResponse(w, created)
}

// GET /getPrivateSpacePosts/{id}?page&limit
func (h *PostsHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	spaceID := chiRoute.URLParam(r, "id")

	if _, ok := h.requireMember(w, spaceID, user.Email); !ok {
		return
	}

	page, err := strconv.Atoi(utils.GetQueryParam(r, "page", "1"))
	if err != nil || page < 1 {
		utils.WriteBadRequestResponse(w, "Invalid page parameter")
		return
	}
	limit, err := strconv.Atoi(utils.GetQueryParam(r, "limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		utils.WriteBadRequestResponse(w, "Invalid limit parameter")
		return
	}

	posts, err := h.db.ListPosts(spaceID, page, limit)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to fetch posts")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"posts": posts})
}

// DELETE /deletePrivateSpacePost/{id}
//
// Deletion is allowed for the post's author and for space admins.
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	postID := chiRoute.URLParam(r, "id")

	post, err := h.db.GetPost(postID)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Post not found")
		return
	}

	role, ok := h.requireMember(w, post.SpaceID, user.Email)
	if !ok {
		return
	}
	if post.AuthorEmail != user.Email && role != models.RoleAdmin {
		utils.WriteForbiddenResponse(w, "Only the author or a space admin can delete this post")
		return
	}

	if err := h.db.DeletePost(postID); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete post")
		return
	}

	h.logger.Info("post deleted",
		zap.String("post_id", postID),
		zap.String("space_id", post.SpaceID),
		zap.String("actor", user.Email))
	utils.WriteMessageResponse(w, "Post deleted")
}

// POST /addPrivateSpaceComment/{id}
func (h *PostsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	postID := chiRoute.URLParam(r, "id")

	post, err := h.db.GetPost(postID)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Post not found")
		return
	}
	if _, ok := h.requireMember(w, post.SpaceID, user.Email); !ok {
		return
	}

	var req models.AddCommentRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		utils.WriteBadRequestResponse(w, "Comment content cannot be empty")
		return
	}
	if len(content) > models.MaxCommentContentLen {
		utils.WriteBadRequestResponse(w, fmt.Sprintf("Comment content exceeds %d characters", models.MaxCommentContentLen))
		return
	}

	comment := &models.Comment{
		PostID:      postID,
		AuthorEmail: user.Email,
		Content:     content,
	}
	if err := h.db.CreateComment(comment); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to add comment")
		return
	}
	utils.WriteCreatedResponse(w, comment)
}

// GET /getPrivateSpaceComments/{id}
func (h *PostsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	postID := chiRoute.URLParam(r, "id")

	post, err := h.db.GetPost(postID)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Post not found")
		return
	}
	if _, ok := h.requireMember(w, post.SpaceID, user.Email); !ok {
		return
	}

	comments, err := h.db.ListComments(postID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to fetch comments")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"comments": comments})
}
