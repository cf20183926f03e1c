package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"private-spaces-backend/pkg/models"

	"github.com/google/uuid"
)

// MemoryDatabase is the in-memory implementation, used by development
// mode and tests. All data is lost on restart.
type MemoryDatabase struct {
	mu sync.RWMutex

	users       map[string]*models.User // by ID
	usersByMail map[string]string       // email -> ID

	spaces     map[string]*models.Space
	spaceOrder []string

	memberships []*models.Membership

	invitations map[string]*models.Invitation
	inviteOrder []string

	posts     map[string]*models.Post
	postOrder []string // creation order across all spaces

	comments map[string][]*models.Comment // by post ID

	otps map[string]*models.OTPChallenge // by email
}

// NewMemoryDatabase creates an empty in-memory database
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		users:       make(map[string]*models.User),
		usersByMail: make(map[string]string),
		spaces:      make(map[string]*models.Space),
		invitations: make(map[string]*models.Invitation),
		posts:       make(map[string]*models.Post),
		comments:    make(map[string][]*models.Comment),
		otps:        make(map[string]*models.OTPChallenge),
	}
}

// CreateUser stores a new user
func (db *MemoryDatabase) CreateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.usersByMail[user.Email]; exists {
		return &DuplicateError{Entity: "user", Key: user.Email}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	u := *user
	db.users[u.ID] = &u
	db.usersByMail[u.Email] = u.ID
	return nil
}

// GetUserByEmail returns the user with the given email
func (db *MemoryDatabase) GetUserByEmail(email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	id, ok := db.usersByMail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := *db.users[id]
	return &u, nil
}

// GetUserByID returns the user with the given ID
func (db *MemoryDatabase) GetUserByID(id string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	user, ok := db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

// UpdateUser replaces the stored user record
func (db *MemoryDatabase) UpdateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, ok := db.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	if user.Email != existing.Email {
		if _, taken := db.usersByMail[user.Email]; taken {
			return &DuplicateError{Entity: "user", Key: user.Email}
		}
		delete(db.usersByMail, existing.Email)
		db.usersByMail[user.Email] = user.ID
	}

	user.UpdatedAt = time.Now()
	u := *user
	db.users[u.ID] = &u
	return nil
}

// SaveOTPChallenge stores a challenge, replacing any prior one for
// the same email
func (db *MemoryDatabase) SaveOTPChallenge(challenge *models.OTPChallenge) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if challenge.ID == "" {
		challenge.ID = uuid.New().String()
	}
	challenge.CreatedAt = time.Now()

	c := *challenge
	db.otps[c.Email] = &c
	return nil
}

// GetOTPChallenge returns the stored challenge for the email
func (db *MemoryDatabase) GetOTPChallenge(email string) (*models.OTPChallenge, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	challenge, ok := db.otps[email]
	if !ok {
		return nil, ErrNotFound
	}
	c := *challenge
	return &c, nil
}

// DeleteOTPChallenge removes the stored challenge for the email
func (db *MemoryDatabase) DeleteOTPChallenge(email string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.otps, email)
	return nil
}

// CreateSpace stores a new space
func (db *MemoryDatabase) CreateSpace(space *models.Space) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if space.ID == "" {
		space.ID = uuid.New().String()
	}
	space.CreatedAt = time.Now()
	space.UpdatedAt = space.CreatedAt

	s := *space
	db.spaces[s.ID] = &s
	db.spaceOrder = append(db.spaceOrder, s.ID)
	return nil
}

// GetSpace returns the space with member and post counts filled in
func (db *MemoryDatabase) GetSpace(spaceID string) (*models.Space, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	space, ok := db.spaces[spaceID]
	if !ok {
		return nil, ErrNotFound
	}
	s := *space
	s.MemberCount = db.countMembers(spaceID)
	s.PostCount = db.countPosts(spaceID)
	return &s, nil
}

// ListUserSpaces returns the spaces where a membership exists for the
// email, in space creation order, annotated with the user's role
func (db *MemoryDatabase) ListUserSpaces(email string) ([]models.SpaceWithRole, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	roleBySpace := make(map[string]models.MemberRole)
	for _, m := range db.memberships {
		if m.Email == email {
			roleBySpace[m.SpaceID] = m.Role
		}
	}

	spaces := []models.SpaceWithRole{}
	for _, id := range db.spaceOrder {
		role, ok := roleBySpace[id]
		if !ok {
			continue
		}
		s := *db.spaces[id]
		s.MemberCount = db.countMembers(id)
		s.PostCount = db.countPosts(id)
		spaces = append(spaces, models.SpaceWithRole{Space: s, UserRole: role})
	}
	return spaces, nil
}

// DeleteSpace removes the space and cascades posts, comments,
// memberships and invitations
func (db *MemoryDatabase) DeleteSpace(spaceID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.spaces[spaceID]; !ok {
		return ErrNotFound
	}
	delete(db.spaces, spaceID)
	db.spaceOrder = removeString(db.spaceOrder, spaceID)

	kept := db.memberships[:0]
	for _, m := range db.memberships {
		if m.SpaceID != spaceID {
			kept = append(kept, m)
		}
	}
	db.memberships = kept

	for id, inv := range db.invitations {
		if inv.SpaceID == spaceID {
			delete(db.invitations, id)
			db.inviteOrder = removeString(db.inviteOrder, id)
		}
	}

	for id, post := range db.posts {
		if post.SpaceID == spaceID {
			delete(db.posts, id)
			delete(db.comments, id)
			db.postOrder = removeString(db.postOrder, id)
		}
	}
	return nil
}

// AddMembership stores a membership, rejecting duplicates per
// (space, email)
func (db *MemoryDatabase) AddMembership(m *models.Membership) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.memberships {
		if existing.SpaceID == m.SpaceID && existing.Email == m.Email {
			return &DuplicateError{Entity: "membership", Key: m.Email}
		}
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.JoinedAt = time.Now()

	mv := *m
	db.memberships = append(db.memberships, &mv)
	return nil
}

// GetMembership returns the membership for (space, email)
func (db *MemoryDatabase) GetMembership(spaceID, email string) (*models.Membership, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, m := range db.memberships {
		if m.SpaceID == spaceID && m.Email == email {
			mv := *m
			return &mv, nil
		}
	}
	return nil, ErrNotFound
}

// ListMembers returns the space's members joined with user display
// fields, in join order
func (db *MemoryDatabase) ListMembers(spaceID string) ([]models.Member, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	members := []models.Member{}
	for _, m := range db.memberships {
		if m.SpaceID != spaceID {
			continue
		}
		member := models.Member{
			Email:    m.Email,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if id, ok := db.usersByMail[m.Email]; ok {
			u := db.users[id]
			member.FirstName = u.FirstName
			member.LastName = u.LastName
			member.AvatarURL = u.AvatarURL
		}
		members = append(members, member)
	}
	return members, nil
}

// RemoveMembership deletes the membership for (space, email)
func (db *MemoryDatabase) RemoveMembership(spaceID, email string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, m := range db.memberships {
		if m.SpaceID == spaceID && m.Email == email {
			db.memberships = append(db.memberships[:i], db.memberships[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// CreateInvitation stores a new invitation
func (db *MemoryDatabase) CreateInvitation(inv *models.Invitation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	iv := *inv
	db.invitations[iv.ID] = &iv
	db.inviteOrder = append(db.inviteOrder, iv.ID)
	return nil
}

// GetInvitation returns the invitation with the given ID
func (db *MemoryDatabase) GetInvitation(id string) (*models.Invitation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	inv, ok := db.invitations[id]
	if !ok {
		return nil, ErrNotFound
	}
	iv := *inv
	return &iv, nil
}

// GetPendingInvitation returns the pending invitation for
// (space, invitee email), if any
func (db *MemoryDatabase) GetPendingInvitation(spaceID, inviteeEmail string) (*models.Invitation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, id := range db.inviteOrder {
		inv := db.invitations[id]
		if inv.SpaceID == spaceID && inv.InviteeEmail == inviteeEmail && inv.Status == models.InvitationPending {
			iv := *inv
			return &iv, nil
		}
	}
	return nil, ErrNotFound
}

// ListPendingInvitations returns the unexpired pending invitations
// addressed to the email, across spaces, annotated with the space name
func (db *MemoryDatabase) ListPendingInvitations(inviteeEmail string) ([]models.Invitation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	now := time.Now()
	invs := []models.Invitation{}
	for _, id := range db.inviteOrder {
		inv := db.invitations[id]
		if inv.InviteeEmail != inviteeEmail || inv.Status != models.InvitationPending {
			continue
		}
		if now.After(inv.ExpiresAt) {
			continue
		}
		iv := *inv
		if space, ok := db.spaces[iv.SpaceID]; ok {
			iv.SpaceName = space.Name
		}
		invs = append(invs, iv)
	}
	return invs, nil
}

// UpdateInvitation replaces the stored invitation
func (db *MemoryDatabase) UpdateInvitation(inv *models.Invitation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.invitations[inv.ID]; !ok {
		return ErrNotFound
	}
	inv.UpdatedAt = time.Now()
	iv := *inv
	db.invitations[iv.ID] = &iv
	return nil
}

// CreatePost stores a new post
func (db *MemoryDatabase) CreatePost(post *models.Post) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.CreatedAt = time.Now()

	p := *post
	db.posts[p.ID] = &p
	db.postOrder = append(db.postOrder, p.ID)
	return nil
}

// GetPost returns the post with its comment count filled in
func (db *MemoryDatabase) GetPost(postID string) (*models.Post, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	post, ok := db.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	p := *post
	p.AuthorName = db.displayName(p.AuthorEmail)
	p.CommentCount = len(db.comments[postID])
	return &p, nil
}

// ListPosts returns one page of the space's posts, newest first.
// Page is 1-indexed; a page past the end returns an empty slice.
func (db *MemoryDatabase) ListPosts(spaceID string, page, limit int) ([]models.Post, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var all []models.Post
	for i := len(db.postOrder) - 1; i >= 0; i-- {
		post := db.posts[db.postOrder[i]]
		if post.SpaceID != spaceID {
			continue
		}
		p := *post
		p.AuthorName = db.displayName(p.AuthorEmail)
		p.CommentCount = len(db.comments[p.ID])
		all = append(all, p)
	}

	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Post{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// DeletePost removes the post and its comments
func (db *MemoryDatabase) DeletePost(postID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[postID]; !ok {
		return ErrNotFound
	}
	delete(db.posts, postID)
	delete(db.comments, postID)
	db.postOrder = removeString(db.postOrder, postID)
	return nil
}

// CreateComment stores a new comment on a post
func (db *MemoryDatabase) CreateComment(comment *models.Comment) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[comment.PostID]; !ok {
		return ErrNotFound
	}

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now()

	c := *comment
	db.comments[c.PostID] = append(db.comments[c.PostID], &c)
	return nil
}

// ListComments returns the post's comments, oldest first
func (db *MemoryDatabase) ListComments(postID string) ([]models.Comment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	comments := []models.Comment{}
	for _, c := range db.comments[postID] {
		cv := *c
		cv.AuthorName = db.displayName(cv.AuthorEmail)
		comments = append(comments, cv)
	}
	return comments, nil
}

// ListInvitableUsers returns users who are neither members of the
// space nor pending invitees, sorted by email
func (db *MemoryDatabase) ListInvitableUsers(spaceID string) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.invitableUsers(spaceID, ""), nil
}

// SearchInvitableUsers filters invitable users by a case-insensitive
// substring match on email and name
func (db *MemoryDatabase) SearchInvitableUsers(spaceID, query string) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.invitableUsers(spaceID, query), nil
}

// HealthCheck always succeeds for the in-memory database
func (db *MemoryDatabase) HealthCheck() error {
	return nil
}

// Close is a no-op for the in-memory database
func (db *MemoryDatabase) Close() error {
	return nil
}

// callers must hold db.mu
func (db *MemoryDatabase) countMembers(spaceID string) int {
	n := 0
	for _, m := range db.memberships {
		if m.SpaceID == spaceID {
			n++
		}
	}
	return n
}

// callers must hold db.mu
func (db *MemoryDatabase) countPosts(spaceID string) int {
	n := 0
	for _, id := range db.postOrder {
		if db.posts[id].SpaceID == spaceID {
			n++
		}
	}
	return n
}

// callers must hold db.mu
func (db *MemoryDatabase) invitableUsers(spaceID, query string) []models.User {
	excluded := make(map[string]bool)
	for _, m := range db.memberships {
		if m.SpaceID == spaceID {
			excluded[m.Email] = true
		}
	}
	for _, id := range db.inviteOrder {
		inv := db.invitations[id]
		if inv.SpaceID == spaceID && inv.Status == models.InvitationPending {
			excluded[inv.InviteeEmail] = true
		}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	users := []models.User{}
	for _, u := range db.users {
		if excluded[u.Email] {
			continue
		}
		if query != "" && !matchesUser(u, query) {
			continue
		}
		uv := *u
		uv.Password = ""
		users = append(users, uv)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users
}

// callers must hold db.mu
func (db *MemoryDatabase) displayName(email string) string {
	id, ok := db.usersByMail[email]
	if !ok {
		return ""
	}
	u := db.users[id]
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func matchesUser(u *models.User, query string) bool {
	return strings.Contains(strings.ToLower(u.Email), query) ||
		strings.Contains(strings.ToLower(u.FirstName), query) ||
		strings.Contains(strings.ToLower(u.LastName), query)
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
