package models

import "time"

// Content limits enforced on both sides of the wire. The client
// rejects oversize input before sending; the server is authoritative.
const (
	MaxPostContentLen    = 1000
	MaxCommentContentLen = 500
)

// Post is a space-scoped post. Deletable by its author or by a
// space admin.
type Post struct {
	ID           string    `json:"post_id" db:"id"`
	SpaceID      string    `json:"space_id" db:"space_id"`
	AuthorEmail  string    `json:"author_email" db:"author_email"`
	AuthorName   string    `json:"author_name,omitempty" db:"author_name"`
	Content      string    `json:"content" db:"content"`
	FileURL      string    `json:"file_url,omitempty" db:"file_url"`
	CommentCount int       `json:"comment_count" db:"comment_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Comment belongs to exactly one post and has no lifecycle beyond it
type Comment struct {
	ID          string    `json:"comment_id" db:"id"`
	PostID      string    `json:"post_id" db:"post_id"`
	AuthorEmail string    `json:"author_email" db:"author_email"`
	AuthorName  string    `json:"author_name,omitempty" db:"author_name"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CreatePostRequest represents the request payload for post creation
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
	FileURL string `json:"fileUrl"`
}

// AddCommentRequest represents the request payload for adding a comment
type AddCommentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}
