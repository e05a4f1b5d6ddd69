// Package profiles manages broker-link profiles and watchlists.
package profiles

import (
	"context"
	"strings"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

// ProfileUpdate carries the fields of a profile edit; nil fields are unchanged
type ProfileUpdate struct {
	Broker       *string `json:"broker,omitempty"`
	BrokerUserID *string `json:"brokerUserId,omitempty"`
	UserName     *string `json:"userName,omitempty"`
	Email        *string `json:"email,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// ProfileService handles broker profiles and the watchlist.
// Writes hold the owner lock so a sync pull cannot replace profiles mid-write.
type ProfileService struct {
	profiles  domain.ProfileStore
	watchlist domain.WatchlistStore
	locks     *utils.OwnerLocks
	log       zerolog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	profiles domain.ProfileStore,
	watchlist domain.WatchlistStore,
	locks *utils.OwnerLocks,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		watchlist: watchlist,
		locks:     locks,
		log:       log.With().Str("service", "profiles").Logger(),
	}
}

// CreateProfile stores a new broker profile
func (s *ProfileService) CreateProfile(ctx context.Context, profile domain.BrokerProfile) (*domain.BrokerProfile, error) {
	profile.ID = 0
	profile.Broker = strings.ToLower(strings.TrimSpace(profile.Broker))

	unlock := s.locks.Lock(profile.OwnerID)
	defer unlock()

	if _, err := s.profiles.Create(ctx, &profile); err != nil {
		return nil, err
	}
	s.log.Info().Str("owner_id", profile.OwnerID).Str("broker", profile.Broker).Msg("Broker profile created")
	return &profile, nil
}

// UpdateProfile applies an explicit edit to a profile
func (s *ProfileService) UpdateProfile(ctx context.Context, ownerID string, id int64, update ProfileUpdate) (*domain.BrokerProfile, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	profile, err := s.profiles.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if update.Broker != nil {
		profile.Broker = strings.ToLower(strings.TrimSpace(*update.Broker))
	}
	if update.BrokerUserID != nil {
		profile.BrokerUserID = *update.BrokerUserID
	}
	if update.UserName != nil {
		profile.UserName = *update.UserName
	}
	if update.Email != nil {
		profile.Email = *update.Email
	}
	if update.IsActive != nil {
		profile.IsActive = *update.IsActive
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a profile
func (s *ProfileService) DeleteProfile(ctx context.Context, ownerID string, id int64) error {
	unlock := s.locks.Lock(ownerID)
	defer unlock()
	return s.profiles.Delete(ctx, ownerID, id)
}

// ListProfiles returns the owner's profiles
func (s *ProfileService) ListProfiles(ctx context.Context, ownerID string) ([]domain.BrokerProfile, error) {
	return s.profiles.GetAll(ctx, ownerID)
}

// AddToWatchlist adds a symbol to a watchlist
func (s *ProfileService) AddToWatchlist(ctx context.Context, item domain.WatchlistItem) (*domain.WatchlistItem, error) {
	item.ID = 0

	unlock := s.locks.Lock(item.OwnerID)
	defer unlock()

	if _, err := s.watchlist.Add(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListWatchlist returns the owner's items in listName, or every list when empty
func (s *ProfileService) ListWatchlist(ctx context.Context, ownerID, listName string) ([]domain.WatchlistItem, error) {
	return s.watchlist.GetAll(ctx, ownerID, listName)
}

// RemoveFromWatchlist deletes a watchlist item
func (s *ProfileService) RemoveFromWatchlist(ctx context.Context, ownerID string, id int64) error {
	unlock := s.locks.Lock(ownerID)
	defer unlock()
	return s.watchlist.Remove(ctx, ownerID, id)
}
