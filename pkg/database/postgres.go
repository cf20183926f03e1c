package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"private-spaces-backend/pkg/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresDatabase is the production storage implementation
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase opens and pings a Postgres connection
func NewPostgresDatabase(dsn string) (*PostgresDatabase, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDatabase{db: db}, nil
}

// translateError maps pq unique violations to DuplicateError and
// sql.ErrNoRows to ErrNotFound
func translateError(err error, entity, key string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return &DuplicateError{Entity: entity, Key: key}
	}
	return err
}

// CreateUser stores a new user
func (p *PostgresDatabase) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := p.db.Exec(`
		INSERT INTO users (id, email, password_hash, first_name, last_name, school_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Password, user.FirstName, user.LastName,
		user.SchoolName, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	return translateError(err, "user", user.Email)
}

func (p *PostgresDatabase) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.SchoolName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "user", "")
	}
	return &u, nil
}

// GetUserByEmail returns the user with the given email
func (p *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	row := p.db.QueryRow(`
		SELECT id, email, password_hash, first_name, last_name, school_name, avatar_url, created_at, updated_at
		FROM users WHERE email = $1`, email)
	return p.scanUser(row)
}

// GetUserByID returns the user with the given ID
func (p *PostgresDatabase) GetUserByID(id string) (*models.User, error) {
	row := p.db.QueryRow(`
		SELECT id, email, password_hash, first_name, last_name, school_name, avatar_url, created_at, updated_at
		FROM users WHERE id = $1`, id)
	return p.scanUser(row)
}

// UpdateUser replaces the stored user record
func (p *PostgresDatabase) UpdateUser(user *models.User) error {
	user.UpdatedAt = time.Now()
	res, err := p.db.Exec(`
		UPDATE users SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
			school_name = $6, avatar_url = $7, updated_at = $8
		WHERE id = $1`,
		user.ID, user.Email, user.Password, user.FirstName, user.LastName,
		user.SchoolName, user.AvatarURL, user.UpdatedAt)
	if err != nil {
		return translateError(err, "user", user.Email)
	}
	return requireRows(res)
}

// SaveOTPChallenge upserts the challenge for the email
func (p *PostgresDatabase) SaveOTPChallenge(challenge *models.OTPChallenge) error {
	if challenge.ID == "" {
		challenge.ID = uuid.New().String()
	}
	challenge.CreatedAt = time.Now()

	_, err := p.db.Exec(`
		INSERT INTO otp_challenges (id, email, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET id = $1, code = $3, expires_at = $4, created_at = $5`,
		challenge.ID, challenge.Email, challenge.Code, challenge.ExpiresAt, challenge.CreatedAt)
	return err
}

// GetOTPChallenge returns the stored challenge for the email
func (p *PostgresDatabase) GetOTPChallenge(email string) (*models.OTPChallenge, error) {
	var c models.OTPChallenge
	err := p.db.QueryRow(`
		SELECT id, email, code, expires_at, created_at
		FROM otp_challenges WHERE email = $1`, email).
		Scan(&c.ID, &c.Email, &c.Code, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, translateError(err, "otp_challenge", email)
	}
	return &c, nil
}

// DeleteOTPChallenge removes the stored challenge for the email
func (p *PostgresDatabase) DeleteOTPChallenge(email string) error {
	_, err := p.db.Exec(`DELETE FROM otp_challenges WHERE email = $1`, email)
	return err
}

// CreateSpace stores a new space
func (p *PostgresDatabase) CreateSpace(space *models.Space) error {
	if space.ID == "" {
		space.ID = uuid.New().String()
	}
	space.CreatedAt = time.Now()
	space.UpdatedAt = space.CreatedAt

	_, err := p.db.Exec(`
		INSERT INTO spaces (id, name, description, avatar_url, creator_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		space.ID, space.Name, space.Description, space.AvatarURL,
		space.CreatorEmail, space.CreatedAt, space.UpdatedAt)
	return translateError(err, "space", space.Name)
}

// GetSpace returns the space with member and post counts filled in
func (p *PostgresDatabase) GetSpace(spaceID string) (*models.Space, error) {
	var s models.Space
	err := p.db.QueryRow(`
		SELECT s.id, s.name, s.description, s.avatar_url, s.creator_email, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM memberships m WHERE m.space_id = s.id),
			(SELECT COUNT(*) FROM posts p2 WHERE p2.space_id = s.id)
		FROM spaces s WHERE s.id = $1`, spaceID).
		Scan(&s.ID, &s.Name, &s.Description, &s.AvatarURL, &s.CreatorEmail,
			&s.CreatedAt, &s.UpdatedAt, &s.MemberCount, &s.PostCount)
	if err != nil {
		return nil, translateError(err, "space", spaceID)
	}
	return &s, nil
}

// ListUserSpaces returns the spaces where a membership exists for the
// email, in space creation order, annotated with the user's role
func (p *PostgresDatabase) ListUserSpaces(email string) ([]models.SpaceWithRole, error) {
	rows, err := p.db.Query(`
		SELECT s.id, s.name, s.description, s.avatar_url, s.creator_email, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM memberships m2 WHERE m2.space_id = s.id),
			(SELECT COUNT(*) FROM posts p2 WHERE p2.space_id = s.id),
			m.role
		FROM spaces s
		JOIN memberships m ON m.space_id = s.id AND m.email = $1
		ORDER BY s.created_at ASC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spaces := []models.SpaceWithRole{}
	for rows.Next() {
		var s models.SpaceWithRole
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.AvatarURL, &s.CreatorEmail,
			&s.CreatedAt, &s.UpdatedAt, &s.MemberCount, &s.PostCount, &s.UserRole); err != nil {
			return nil, err
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// DeleteSpace removes the space; posts, comments, memberships and
// invitations cascade via foreign keys
func (p *PostgresDatabase) DeleteSpace(spaceID string) error {
	res, err := p.db.Exec(`DELETE FROM spaces WHERE id = $1`, spaceID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// AddMembership stores a membership, rejecting duplicates per
// (space, email)
func (p *PostgresDatabase) AddMembership(m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.JoinedAt = time.Now()

	_, err := p.db.Exec(`
		INSERT INTO memberships (id, space_id, email, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.SpaceID, m.Email, m.Role, m.JoinedAt)
	return translateError(err, "membership", m.Email)
}

// GetMembership returns the membership for (space, email)
func (p *PostgresDatabase) GetMembership(spaceID, email string) (*models.Membership, error) {
	var m models.Membership
	err := p.db.QueryRow(`
		SELECT id, space_id, email, role, joined_at
		FROM memberships WHERE space_id = $1 AND email = $2`, spaceID, email).
		Scan(&m.ID, &m.SpaceID, &m.Email, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, translateError(err, "membership", email)
	}
	return &m, nil
}

// ListMembers returns the space's members joined with user display
// fields, in join order
func (p *PostgresDatabase) ListMembers(spaceID string) ([]models.Member, error) {
	rows, err := p.db.Query(`
		SELECT m.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
			COALESCE(u.avatar_url, ''), m.role, m.joined_at
		FROM memberships m
		LEFT JOIN users u ON u.email = m.email
		WHERE m.space_id = $1
		ORDER BY m.joined_at ASC`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.Email, &m.FirstName, &m.LastName, &m.AvatarURL, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RemoveMembership deletes the membership for (space, email)
func (p *PostgresDatabase) RemoveMembership(spaceID, email string) error {
	res, err := p.db.Exec(`DELETE FROM memberships WHERE space_id = $1 AND email = $2`, spaceID, email)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// CreateInvitation stores a new invitation. A partial unique index on
// (space_id, invitee_email) WHERE status = 'pending' enforces the
// one-outstanding-invitation rule at the storage layer too.
func (p *PostgresDatabase) CreateInvitation(inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	_, err := p.db.Exec(`
		INSERT INTO invitations (id, space_id, inviter_email, invitee_email, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.SpaceID, inv.InviterEmail, inv.InviteeEmail,
		inv.Status, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt)
	return translateError(err, "invitation", inv.InviteeEmail)
}

// GetInvitation returns the invitation with the given ID
func (p *PostgresDatabase) GetInvitation(id string) (*models.Invitation, error) {
	var inv models.Invitation
	err := p.db.QueryRow(`
		SELECT i.id, i.space_id, COALESCE(s.name, ''), i.inviter_email, i.invitee_email,
			i.status, i.expires_at, i.created_at, i.updated_at
		FROM invitations i
		LEFT JOIN spaces s ON s.id = i.space_id
		WHERE i.id = $1`, id).
		Scan(&inv.ID, &inv.SpaceID, &inv.SpaceName, &inv.InviterEmail, &inv.InviteeEmail,
			&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "invitation", id)
	}
	return &inv, nil
}

// GetPendingInvitation returns the pending invitation for
// (space, invitee email), if any
func (p *PostgresDatabase) GetPendingInvitation(spaceID, inviteeEmail string) (*models.Invitation, error) {
	var inv models.Invitation
	err := p.db.QueryRow(`
		SELECT id, space_id, inviter_email, invitee_email, status, expires_at, created_at, updated_at
		FROM invitations
		WHERE space_id = $1 AND invitee_email = $2 AND status = 'pending'`, spaceID, inviteeEmail).
		Scan(&inv.ID, &inv.SpaceID, &inv.InviterEmail, &inv.InviteeEmail,
			&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "invitation", inviteeEmail)
	}
	return &inv, nil
}

// ListPendingInvitations returns the unexpired pending invitations
// addressed to the email, across spaces, annotated with the space name
func (p *PostgresDatabase) ListPendingInvitations(inviteeEmail string) ([]models.Invitation, error) {
	rows, err := p.db.Query(`
		SELECT i.id, i.space_id, COALESCE(s.name, ''), i.inviter_email, i.invitee_email,
			i.status, i.expires_at, i.created_at, i.updated_at
		FROM invitations i
		LEFT JOIN spaces s ON s.id = i.space_id
		WHERE i.invitee_email = $1 AND i.status = 'pending' AND i.expires_at > NOW()
		ORDER BY i.created_at ASC`, inviteeEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invs := []models.Invitation{}
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.ID, &inv.SpaceID, &inv.SpaceName, &inv.InviterEmail, &inv.InviteeEmail,
			&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// UpdateInvitation replaces the stored invitation
func (p *PostgresDatabase) UpdateInvitation(inv *models.Invitation) error {
	inv.UpdatedAt = time.Now()
	res, err := p.db.Exec(`
		UPDATE invitations SET status = $2, updated_at = $3 WHERE id = $1`,
		inv.ID, inv.Status, inv.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// CreatePost stores a new post
func (p *PostgresDatabase) CreatePost(post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.CreatedAt = time.Now()

	_, err := p.db.Exec(`
		INSERT INTO posts (id, space_id, author_email, content, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.SpaceID, post.AuthorEmail, post.Content, post.FileURL, post.CreatedAt)
	return err
}

// GetPost returns the post with its comment count filled in
func (p *PostgresDatabase) GetPost(postID string) (*models.Post, error) {
	var post models.Post
	err := p.db.QueryRow(`
		SELECT p.id, p.space_id, p.author_email,
			COALESCE(TRIM(u.first_name || ' ' || u.last_name), ''),
			p.content, p.file_url, p.created_at,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		FROM posts p
		LEFT JOIN users u ON u.email = p.author_email
		WHERE p.id = $1`, postID).
		Scan(&post.ID, &post.SpaceID, &post.AuthorEmail, &post.AuthorName,
			&post.Content, &post.FileURL, &post.CreatedAt, &post.CommentCount)
	if err != nil {
		return nil, translateError(err, "post", postID)
	}
	return &post, nil
}

// ListPosts returns one page of the space's posts, newest first
func (p *PostgresDatabase) ListPosts(spaceID string, page, limit int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	rows, err := p.db.Query(`
		SELECT p.id, p.space_id, p.author_email,
			COALESCE(TRIM(u.first_name || ' ' || u.last_name), ''),
			p.content, p.file_url, p.created_at,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		FROM posts p
		LEFT JOIN users u ON u.email = p.author_email
		WHERE p.space_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`, spaceID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.SpaceID, &post.AuthorEmail, &post.AuthorName,
			&post.Content, &post.FileURL, &post.CreatedAt, &post.CommentCount); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// DeletePost removes the post; comments cascade via foreign keys
func (p *PostgresDatabase) DeletePost(postID string) error {
	res, err := p.db.Exec(`DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// CreateComment stores a new comment on a post
func (p *PostgresDatabase) CreateComment(comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now()

	_, err := p.db.Exec(`
		INSERT INTO comments (id, post_id, author_email, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.PostID, comment.AuthorEmail, comment.Content, comment.CreatedAt)
	return err
}

// ListComments returns the post's comments, oldest first
func (p *PostgresDatabase) ListComments(postID string) ([]models.Comment, error) {
	rows, err := p.db.Query(`
		SELECT c.id, c.post_id, c.author_email,
			COALESCE(TRIM(u.first_name || ' ' || u.last_name), ''),
			c.content, c.created_at
		FROM comments c
		LEFT JOIN users u ON u.email = c.author_email
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorEmail, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListInvitableUsers returns users who are neither members of the
// space nor pending invitees
func (p *PostgresDatabase) ListInvitableUsers(spaceID string) ([]models.User, error) {
	return p.queryInvitableUsers(spaceID, "")
}

// SearchInvitableUsers filters invitable users by a case-insensitive
// substring match on email and name
func (p *PostgresDatabase) SearchInvitableUsers(spaceID, query string) ([]models.User, error) {
	return p.queryInvitableUsers(spaceID, strings.TrimSpace(query))
}

func (p *PostgresDatabase) queryInvitableUsers(spaceID, query string) ([]models.User, error) {
	args := []interface{}{spaceID}
	q := `
		SELECT u.id, u.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
			COALESCE(u.school_name, ''), COALESCE(u.avatar_url, ''), u.created_at, u.updated_at
		FROM users u
		WHERE u.email NOT IN (SELECT email FROM memberships WHERE space_id = $1)
		AND u.email NOT IN (SELECT invitee_email FROM invitations WHERE space_id = $1 AND status = 'pending')`
	if query != "" {
		q += `
		AND (u.email ILIKE $2 OR u.first_name ILIKE $2 OR u.last_name ILIKE $2)`
		args = append(args, "%"+query+"%")
	}
	q += `
		ORDER BY u.email ASC`

	rows, err := p.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName,
			&u.SchoolName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// HealthCheck pings the database
func (p *PostgresDatabase) HealthCheck() error {
	return p.db.Ping()
}

// Close closes the connection pool
func (p *PostgresDatabase) Close() error {
	return p.db.Close()
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
