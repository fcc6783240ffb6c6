package service

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// WatchlistService manages the domains a user is watching. The watchlist
// lives behind the WatchlistStore adapter.
type WatchlistService struct {
	watchlist domain.WatchlistStore
	domains   domain.DomainStore
}

// NewWatchlistService creates a WatchlistService.
func NewWatchlistService(watchlist domain.WatchlistStore, domains domain.DomainStore) *WatchlistService {
	return &WatchlistService{watchlist: watchlist, domains: domains}
}

// List returns the user's watched domains, most recent first.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	items, err := s.watchlist.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("watchlist_service: list %s: %w", userID, err)
	}
	if items == nil {
		items = []domain.WatchlistItem{}
	}
	return items, nil
}

// Add watches a domain. Watching twice is a no-op.
func (s *WatchlistService) Add(ctx context.Context, userID, domainID string) error {
	if _, err := s.domains.GetByID(ctx, domainID); err != nil {
		return fmt.Errorf("watchlist_service: get domain %s: %w", domainID, err)
	}
	if err := s.watchlist.Add(ctx, userID, domainID); err != nil {
		return fmt.Errorf("watchlist_service: add %s: %w", domainID, err)
	}
	return nil
}

// Remove stops watching a domain.
func (s *WatchlistService) Remove(ctx context.Context, userID, domainID string) error {
	if err := s.watchlist.Remove(ctx, userID, domainID); err != nil {
		return fmt.Errorf("watchlist_service: remove %s: %w", domainID, err)
	}
	return nil
}
