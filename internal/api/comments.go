package api

import "context"

type commentRequest struct {
	Body string `json:"body"`
}

// ListComments returns a post's comments, oldest first
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	out := []Comment{}
	if err := c.get(ctx, "/api/posts/"+pathEscape(postID)+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddComment posts a comment as the signed-in user
func (c *Client) AddComment(ctx context.Context, postID, body string) (*Comment, error) {
	var out Comment
	if err := c.post(ctx, "/api/posts/"+pathEscape(postID)+"/comments", commentRequest{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes one of the signed-in user's comments
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.delete(ctx, "/api/comments/"+pathEscape(commentID))
}
