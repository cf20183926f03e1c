package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"private-spaces-backend/pkg/models"
)

func (e *env) createPost(token, spaceID, content string) models.Post {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/createPrivateSpacePost/"+spaceID, token, map[string]string{"content": content})
	wantStatus(e.t, rec, http.StatusCreated)
	var post models.Post
	decode(e.t, rec, &post)
	return post
}

func (e *env) listPosts(token, spaceID string, page, limit int) []models.Post {
	e.t.Helper()
	path := fmt.Sprintf("/getPrivateSpacePosts/%s?page=%d&limit=%d", spaceID, page, limit)
	rec := e.do(http.MethodGet, path, token, nil)
	wantStatus(e.t, rec, http.StatusOK)
	var resp struct {
		Posts []models.Post `json:"posts"`
	}
	decode(e.t, rec, &resp)
	return resp.Posts
}

func TestCreatePost(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "Chen")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")

	post := e.createPost(tok, space.ID, "first move")

	if post.AuthorEmail != alice.Email {
		t.Errorf("author_email = %q, want %q", post.AuthorEmail, alice.Email)
	}
	if post.SpaceID != space.ID {
		t.Errorf("space_id = %q, want %q", post.SpaceID, space.ID)
	}
	if post.Content != "first move" {
		t.Errorf("content = %q", post.Content)
	}
}

func TestCreatePostValidation(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.addUser("alice@example.com", "Alice", ""))
	space := e.createSpace(tok, "Chess")

	rec := e.do(http.MethodPost, "/createPrivateSpacePost/"+space.ID, tok, map[string]string{"content": "   \n "})
	wantStatus(t, rec, http.StatusBadRequest)

	long := strings.Repeat("a", models.MaxPostContentLen+1)
	rec = e.do(http.MethodPost, "/createPrivateSpacePost/"+space.ID, tok, map[string]string{"content": long})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestCreatePostRequiresMembership(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	mallory := e.addUser("mallory@example.com", "Mallory", "")
	space := e.createSpace(e.token(alice), "Chess")

	rec := e.do(http.MethodPost, "/createPrivateSpacePost/"+space.ID, e.token(mallory),
		map[string]string{"content": "let me in"})
	wantStatus(t, rec, http.StatusForbidden)
}

func TestListPostsPagination(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.addUser("alice@example.com", "Alice", ""))
	space := e.createSpace(tok, "Chess")

	for i := 0; i < 25; i++ {
		e.createPost(tok, space.ID, fmt.Sprintf("post %d", i))
	}

	page1 := e.listPosts(tok, space.ID, 1, 20)
	if len(page1) != 20 {
		t.Fatalf("page 1 = %d posts, want 20", len(page1))
	}
	// Newest first.
	if page1[0].Content != "post 24" {
		t.Errorf("first post = %q, want %q", page1[0].Content, "post 24")
	}

	page2 := e.listPosts(tok, space.ID, 2, 20)
	if len(page2) != 5 {
		t.Fatalf("page 2 = %d posts, want 5", len(page2))
	}
	if page2[4].Content != "post 0" {
		t.Errorf("last post = %q, want %q", page2[4].Content, "post 0")
	}

	page3 := e.listPosts(tok, space.ID, 3, 20)
	if len(page3) != 0 {
		t.Errorf("page 3 = %d posts, want 0", len(page3))
	}
}

func TestListPostsRejectsBadParams(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.addUser("alice@example.com", "Alice", ""))
	space := e.createSpace(tok, "Chess")

	for _, path := range []string{
		"/getPrivateSpacePosts/" + space.ID + "?page=0",
		"/getPrivateSpacePosts/" + space.ID + "?page=abc",
		"/getPrivateSpacePosts/" + space.ID + "?limit=0",
		"/getPrivateSpacePosts/" + space.ID + "?limit=101",
	} {
		rec := e.do(http.MethodGet, path, tok, nil)
		wantStatus(t, rec, http.StatusBadRequest)
	}
}

func TestDeletePostByAuthor(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	aliceTok := e.token(alice)
	bobTok := e.token(bob)
	space := e.createSpace(aliceTok, "Chess")
	e.join(space.ID, bob.Email, models.RoleMember)

	post := e.createPost(bobTok, space.ID, "my post")

	rec := e.do(http.MethodDelete, "/deletePrivateSpacePost/"+post.ID, bobTok, nil)
	wantStatus(t, rec, http.StatusOK)
	if _, err := e.db.GetPost(post.ID); err == nil {
		t.Error("post still exists after delete")
	}
}

func TestDeletePostByAdmin(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	aliceTok := e.token(alice)
	space := e.createSpace(aliceTok, "Chess")
	e.join(space.ID, bob.Email, models.RoleMember)

	post := e.createPost(e.token(bob), space.ID, "bob's post")

	rec := e.do(http.MethodDelete, "/deletePrivateSpacePost/"+post.ID, aliceTok, nil)
	wantStatus(t, rec, http.StatusOK)
}

func TestDeletePostForbiddenForOtherMembers(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	bob := e.addUser("bob@example.com", "Bob", "")
	carol := e.addUser("carol@example.com", "Carol", "")
	aliceTok := e.token(alice)
	space := e.createSpace(aliceTok, "Chess")
	e.join(space.ID, bob.Email, models.RoleMember)
	e.join(space.ID, carol.Email, models.RoleMember)

	post := e.createPost(e.token(bob), space.ID, "bob's post")

	rec := e.do(http.MethodDelete, "/deletePrivateSpacePost/"+post.ID, e.token(carol), nil)
	wantStatus(t, rec, http.StatusForbidden)
	if _, err := e.db.GetPost(post.ID); err != nil {
		t.Error("post was deleted by a non-author member")
	}
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "Chen")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")
	post := e.createPost(tok, space.ID, "thoughts?")

	rec := e.do(http.MethodPost, "/addPrivateSpaceComment/"+post.ID, tok, map[string]string{"content": "nice"})
	wantStatus(t, rec, http.StatusCreated)
	var comment models.Comment
	decode(t, rec, &comment)
	if comment.PostID != post.ID {
		t.Errorf("post_id = %q, want %q", comment.PostID, post.ID)
	}

	rec = e.do(http.MethodGet, "/getPrivateSpaceComments/"+post.ID, tok, nil)
	wantStatus(t, rec, http.StatusOK)
	var resp struct {
		Comments []models.Comment `json:"comments"`
	}
	decode(t, rec, &resp)
	if len(resp.Comments) != 1 || resp.Comments[0].Content != "nice" {
		t.Errorf("comments = %+v", resp.Comments)
	}

	// Comment deletion cascades from the post.
	rec = e.do(http.MethodDelete, "/deletePrivateSpacePost/"+post.ID, tok, nil)
	wantStatus(t, rec, http.StatusOK)
	comments, err := e.db.ListComments(post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 0 {
		t.Errorf("comments after post delete = %d, want 0", len(comments))
	}
}

func TestCommentValidation(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.addUser("alice@example.com", "Alice", ""))
	space := e.createSpace(tok, "Chess")
	post := e.createPost(tok, space.ID, "hello")

	rec := e.do(http.MethodPost, "/addPrivateSpaceComment/"+post.ID, tok, map[string]string{"content": " "})
	wantStatus(t, rec, http.StatusBadRequest)

	long := strings.Repeat("b", models.MaxCommentContentLen+1)
	rec = e.do(http.MethodPost, "/addPrivateSpaceComment/"+post.ID, tok, map[string]string{"content": long})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestCommentRequiresMembershipOfPostSpace(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser("alice@example.com", "Alice", "")
	mallory := e.addUser("mallory@example.com", "Mallory", "")
	tok := e.token(alice)
	space := e.createSpace(tok, "Chess")
	post := e.createPost(tok, space.ID, "hello")

	rec := e.do(http.MethodPost, "/addPrivateSpaceComment/"+post.ID, e.token(mallory),
		map[string]string{"content": "hi"})
	wantStatus(t, rec, http.StatusForbidden)
}
