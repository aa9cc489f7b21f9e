package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// ListPosts returns the community feed, newest first
func (c *Client) ListPosts(ctx context.Context, page, limit int) ([]Post, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	out := []Post{}
	if err := c.get(ctx, "/api/posts", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost returns one post
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	var out Post
	if err := c.get(ctx, "/api/posts/"+pathEscape(postID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes a photo post
func (c *Client) CreatePost(ctx context.Context, p NewPost) (*Post, error) {
	var out Post
	if err := c.post(ctx, "/api/posts", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TogglePostLike flips the signed-in user's like on a post and returns the
// server's updated membership list
func (c *Client) TogglePostLike(ctx context.Context, postID string) ([]string, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/api/posts/"+pathEscape(postID)+"/like", nil, &raw); err != nil {
		return nil, err
	}
	return decodeMembers(raw, "likes")
}
