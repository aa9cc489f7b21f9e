package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// ListPets returns adoption listings matching f
func (c *Client) ListPets(ctx context.Context, f PetFilter) ([]Pet, error) {
	q := url.Values{}
	if f.Species != "" {
		q.Set("species", f.Species)
	}
	if f.OwnerID != "" {
		q.Set("owner", f.OwnerID)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	out := []Pet{}
	if err := c.get(ctx, "/api/pets", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPet returns one listing
func (c *Client) GetPet(ctx context.Context, petID string) (*Pet, error) {
	var out Pet
	if err := c.get(ctx, "/api/pets/"+pathEscape(petID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePet publishes a new listing owned by the signed-in user
func (c *Client) CreatePet(ctx context.Context, p NewPet) (*Pet, error) {
	var out Pet
	if err := c.post(ctx, "/api/pets", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TogglePetLove flips the signed-in user's favorite on a pet and returns the
// server's updated membership list
func (c *Client) TogglePetLove(ctx context.Context, petID string) ([]string, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/api/pets/"+pathEscape(petID)+"/love", nil, &raw); err != nil {
		return nil, err
	}
	return decodeMembers(raw, "loves")
}
