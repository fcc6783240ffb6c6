package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// StatsService builds the admin dashboard summary.
type StatsService struct {
	domains   domain.DomainStore
	orders    domain.OrderStore
	enquiries domain.EnquiryStore
	users     domain.UserStore
}

// NewStatsService creates a StatsService.
func NewStatsService(
	domains domain.DomainStore,
	orders domain.OrderStore,
	enquiries domain.EnquiryStore,
	users domain.UserStore,
) *StatsService {
	return &StatsService{domains: domains, orders: orders, enquiries: enquiries, users: users}
}

// Stats runs the dashboard counts concurrently.
func (s *StatsService) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.domains.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("domains by status: %w", err)
		}
		st.DomainsByStatus = m
		return nil
	})
	g.Go(func() error {
		m, err := s.orders.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("orders by status: %w", err)
		}
		st.OrdersByStatus = m
		return nil
	})
	g.Go(func() error {
		n, err := s.orders.Revenue(gctx)
		if err != nil {
			return fmt.Errorf("revenue: %w", err)
		}
		st.RevenueCents = n
		return nil
	})
	g.Go(func() error {
		n, err := s.enquiries.CountOpen(gctx)
		if err != nil {
			return fmt.Errorf("open enquiries: %w", err)
		}
		st.OpenEnquiries = n
		return nil
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		st.Users = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Stats{}, fmt.Errorf("stats_service: %w", err)
	}
	return st, nil
}
