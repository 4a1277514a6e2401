package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/credentials"
	"bloomfield.org/bloom-web/internal/gateway"
)

// ProfileFetcher is the gateway subset the restore protocol needs.
type ProfileFetcher interface {
	Profile(ctx context.Context, userID string) (gateway.Profile, error)
}

// WishlistHydrator accepts the wishlist payload embedded in a restored profile.
type WishlistHydrator interface {
	Set(entries []gateway.WishlistEntry)
}

// Restorer replays a persisted credential set into a live session. It runs at
// most once per browser session, before the first meaningful response.
type Restorer struct {
	sessions *Store
	creds    credentials.Store
	profiles ProfileFetcher
	wishlist WishlistHydrator
	logger   *zap.Logger
}

// NewRestorer wires the restore protocol. wishlist may be nil when hydration
// is not wanted.
func NewRestorer(sessions *Store, creds credentials.Store, profiles ProfileFetcher, wishlist WishlistHydrator, logger *zap.Logger) *Restorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Restorer{
		sessions: sessions,
		creds:    creds,
		profiles: profiles,
		wishlist: wishlist,
		logger:   logger,
	}
}

// Run executes the restore: read the persisted user id, fetch the profile,
// populate the session and hydrate the wishlist from the embedded payload.
// On failure every credential artifact is cleared and the session stays
// anonymous; there is no retry. An already authenticated session is left
// untouched.
func (r *Restorer) Run(ctx context.Context) error {
	if r.sessions.Current().Authenticated {
		return nil
	}
	userID := r.creds.Get(credentials.KeyUserID)
	if userID == "" {
		return nil
	}

	profile, err := r.profiles.Profile(ctx, userID)
	if err != nil {
		r.logger.Info("session restore failed, clearing credentials",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		r.creds.Clear()
		r.sessions.Clear()
		return err
	}

	r.sessions.SetAuthenticated(profile.ID, ParseRole(profile.Role))
	if r.wishlist != nil && len(profile.Wishlist) > 0 {
		r.wishlist.Set(profile.Wishlist)
	}
	return nil
}

// WithMinimumSplash runs fn and then holds until at least floor has elapsed
// since the start, so fast auth checks still show a stable splash state. The
// floor is perceived-performance polish, not a correctness mechanism, and is
// cut short if the context ends.
func WithMinimumSplash(ctx context.Context, floor time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)

	if remaining := floor - time.Since(start); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return err
}
