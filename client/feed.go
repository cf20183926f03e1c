package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Content limits enforced before a request is sent. The server applies
// the same limits, so a local rejection never diverges from a remote one.
const (
	MaxPostContentLen    = 1000
	MaxCommentContentLen = 500
)

// Post is one entry of a space's content feed.
type Post struct {
	ID           string    `json:"post_id"`
	SpaceID      string    `json:"space_id"`
	AuthorEmail  string    `json:"author_email"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"content"`
	FileURL      string    `json:"file_url"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Comment is one comment under a post.
type Comment struct {
	ID          string    `json:"comment_id"`
	PostID      string    `json:"post_id"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// postList tolerates both page shapes the API has shipped: the current
// {"posts": [...]} envelope and a bare array. Normalizing here keeps
// the drift out of every caller.
type postList []Post

func (p *postList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, (*[]Post)(p))
	}
	var envelope struct {
		Posts []Post `json:"posts"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	*p = envelope.Posts
	return nil
}

// DefaultFeedPageSize is the page size a feed requests unless overridden.
const DefaultFeedPageSize = 20

// Feed accumulates the paginated content of one space. Pages are
// 1-indexed and fetched newest-first; LoadMore appends each page to
// the posts already held, so the feed only ever grows until Reset.
type Feed struct {
	client  *Client
	spaceID string
	limit   int

	mu      sync.Mutex
	page    int // last page fetched, 0 before the first load
	hasMore bool
	posts   []Post
}

// Feed returns a fresh feed accumulator for a space.
func (c *Client) Feed(spaceID string) *Feed {
	return &Feed{
		client:  c,
		spaceID: spaceID,
		limit:   DefaultFeedPageSize,
		hasMore: true,
	}
}

// FeedWithPageSize returns a feed accumulator with a custom page size.
func (c *Client) FeedWithPageSize(spaceID string, limit int) *Feed {
	f := c.Feed(spaceID)
	if limit > 0 {
		f.limit = limit
	}
	return f
}

// LoadMore fetches the next page and appends it to the feed. It
// returns only the newly fetched posts. When the feed is exhausted it
// returns an empty batch and HasMore turns false; further calls are
// no-ops until Reset.
func (f *Feed) LoadMore(ctx context.Context) ([]Post, error) {
	f.mu.Lock()
	if !f.hasMore {
		f.mu.Unlock()
		return nil, nil
	}
	next := f.page + 1
	f.mu.Unlock()

	batch, err := f.client.fetchPosts(ctx, f.spaceID, next, f.limit)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = next
	f.hasMore = len(batch) > 0
	f.posts = append(f.posts, batch...)
	return batch, nil
}

// Posts returns the accumulated posts, newest first.
func (f *Feed) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Post(nil), f.posts...)
}

// HasMore reports whether another LoadMore may yield posts.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Page returns the number of pages fetched so far.
func (f *Feed) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// Reset discards the accumulated posts so the next LoadMore starts
// from the first page again, e.g. on pull-to-refresh.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = 0
	f.hasMore = true
	f.posts = nil
}

// DeletePost deletes a post and, on success, prunes it from the
// accumulated feed so the UI updates without a refetch.
func (f *Feed) DeletePost(ctx context.Context, postID string) error {
	if err := f.client.DeletePost(ctx, postID); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.posts[:0]
	for _, p := range f.posts {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	f.posts = kept
	return nil
}

func (c *Client) fetchPosts(ctx context.Context, spaceID string, page, limit int) ([]Post, error) {
	path := fmt.Sprintf("/getPrivateSpacePosts/%s?page=%s&limit=%s",
		url.PathEscape(spaceID), strconv.Itoa(page), strconv.Itoa(limit))
	var posts postList
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a post in a space. Whitespace-only content and
// content over MaxPostContentLen are rejected locally; no request is sent.
func (c *Client) CreatePost(ctx context.Context, spaceID, content, fileURL string) (*Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Reason: "post content must not be blank"}
	}
	if len(content) > MaxPostContentLen {
		return nil, &ValidationError{Reason: fmt.Sprintf("post content exceeds %d characters", MaxPostContentLen)}
	}

	var post Post
	err := c.do(ctx, http.MethodPost, "/createPrivateSpacePost/"+url.PathEscape(spaceID), map[string]string{
		"content": content,
		"fileUrl": fileURL,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post. The server permits this only for the
// post's author or an admin of its space.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/deletePrivateSpacePost/"+url.PathEscape(postID), nil, nil)
}

// AddComment adds a comment under a post. The same local validation
// applies as for posts, with the comment length limit.
func (c *Client) AddComment(ctx context.Context, postID, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Reason: "comment content must not be blank"}
	}
	if len(content) > MaxCommentContentLen {
		return nil, &ValidationError{Reason: fmt.Sprintf("comment content exceeds %d characters", MaxCommentContentLen)}
	}

	var comment Comment
	err := c.do(ctx, http.MethodPost, "/addPrivateSpaceComment/"+url.PathEscape(postID), map[string]string{
		"content": content,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments fetches all comments under a post, oldest first.
func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var resp struct {
		Comments []Comment `json:"comments"`
	}
	if err := c.do(ctx, http.MethodGet, "/getPrivateSpaceComments/"+url.PathEscape(postID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}
