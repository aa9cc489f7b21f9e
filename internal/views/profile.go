package views

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"petpal/internal/api"
	"petpal/internal/logger"
	"petpal/internal/notify"
)

// ProfileAPI is the part of the API the profile hub needs
type ProfileAPI interface {
	Me(ctx context.Context) (*api.User, error)
	ListPets(ctx context.Context, f api.PetFilter) ([]api.Pet, error)
	Favorites(ctx context.Context) ([]api.Pet, error)
}

// Profile is everything the hub shows
type Profile struct {
	User      api.User  `json:"user" yaml:"user"`
	Listings  []api.Pet `json:"listings" yaml:"listings"`
	Favorites []api.Pet `json:"favorites" yaml:"favorites"`
}

// ProfileHub is the signed-in user's profile page
type ProfileHub struct {
	gate     *Gate
	api      ProfileAPI
	notifier notify.Notifier
	log      *zap.Logger
}

// NewProfileHub creates a profile hub behind gate
func NewProfileHub(gate *Gate, c ProfileAPI, notifier notify.Notifier, log *zap.Logger) *ProfileHub {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	return &ProfileHub{gate: gate, api: c, notifier: notifier, log: logger.OrNop(log)}
}

// Load fetches the profile, the user's own listings and their favorites
func (h *ProfileHub) Load(ctx context.Context) (*Profile, error) {
	if err := h.gate.Require(); err != nil {
		return nil, err
	}

	me, err := h.api.Me(ctx)
	if err != nil {
		return nil, h.fail("load your profile", err)
	}
	listings, err := h.api.ListPets(ctx, api.PetFilter{OwnerID: me.ID})
	if err != nil {
		return nil, h.fail("load your listings", err)
	}
	favorites, err := h.api.Favorites(ctx)
	if err != nil {
		return nil, h.fail("load your favorites", err)
	}

	return &Profile{User: *me, Listings: listings, Favorites: favorites}, nil
}

func (h *ProfileHub) fail(action string, err error) error {
	h.log.Warn("profile request failed", zap.String("action", action), zap.Error(err))
	h.notifier.Notify(notify.Notification{
		Level:   notify.LevelError,
		Title:   "Something went wrong",
		Message: fmt.Sprintf("Could not %s. Please try again.", action),
		Err:     err,
	})
	return fmt.Errorf("%s: %w", action, err)
}
