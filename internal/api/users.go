package api

import "context"

// Me returns the signed-in user's profile
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns a public profile. The backend omits the email.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var out User
	if err := c.get(ctx, "/api/users/"+pathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Favorites returns the pets the signed-in user has favorited
func (c *Client) Favorites(ctx context.Context) ([]Pet, error) {
	out := []Pet{}
	if err := c.get(ctx, "/api/users/me/favorites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
