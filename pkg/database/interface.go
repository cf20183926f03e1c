package database

import (
	"fmt"

	"private-spaces-backend/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = fmt.Errorf("record not found")

// DatabaseInterface defines the storage operations used by handlers.
// Policy (role gating, duplicate rejection) lives in the handlers;
// implementations only store and retrieve.
type DatabaseInterface interface {
	// Users
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUser(user *models.User) error

	// OTP challenges, keyed by email. Saving replaces any prior
	// challenge for the same email.
	SaveOTPChallenge(challenge *models.OTPChallenge) error
	GetOTPChallenge(email string) (*models.OTPChallenge, error)
	DeleteOTPChallenge(email string) error

	// Spaces. DeleteSpace cascades posts, comments, memberships and
	// invitations belonging to the space.
	CreateSpace(space *models.Space) error
	GetSpace(spaceID string) (*models.Space, error)
	ListUserSpaces(email string) ([]models.SpaceWithRole, error)
	DeleteSpace(spaceID string) error

	// Memberships, unique per (space, email)
	AddMembership(m *models.Membership) error
	GetMembership(spaceID, email string) (*models.Membership, error)
	ListMembers(spaceID string) ([]models.Member, error)
	RemoveMembership(spaceID, email string) error

	// Invitations
	CreateInvitation(inv *models.Invitation) error
	GetInvitation(id string) (*models.Invitation, error)
	GetPendingInvitation(spaceID, inviteeEmail string) (*models.Invitation, error)
	ListPendingInvitations(inviteeEmail string) ([]models.Invitation, error)
	UpdateInvitation(inv *models.Invitation) error

	// Posts, listed newest first. DeletePost cascades comments.
	CreatePost(post *models.Post) error
	GetPost(postID string) (*models.Post, error)
	ListPosts(spaceID string, page, limit int) ([]models.Post, error)
	DeletePost(postID string) error

	// Comments, listed oldest first
	CreateComment(comment *models.Comment) error
	ListComments(postID string) ([]models.Comment, error)

	// Invitable users: users who are neither members of the space nor
	// holders of a pending invitation to it
	ListInvitableUsers(spaceID string) ([]models.User, error)
	SearchInvitableUsers(spaceID, query string) ([]models.User, error)

	HealthCheck() error
	Close() error
}

// DatabaseConfig selects and configures a database implementation
type DatabaseConfig struct {
	UseMemoryDB bool
	PostgresDSN string
}

// NewDatabase creates the database implementation for the config.
// Falls back to the in-memory database when no DSN is configured or
// the Postgres connection fails.
func NewDatabase(config DatabaseConfig) DatabaseInterface {
	if !config.UseMemoryDB && config.PostgresDSN != "" {
		db, err := NewPostgresDatabase(config.PostgresDSN)
		if err == nil {
			return db
		}
		fmt.Printf("Warning: Postgres connection failed, falling back to in-memory database: %v\n", err)
	}
	return NewMemoryDatabase()
}
