package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/notify"
)

const defaultCheckoutLockTTL = 30 * time.Second

// ListingInvalidator drops the cached storefront snapshot.
type ListingInvalidator interface {
	Invalidate(ctx context.Context)
}

// OrderService handles buying domains and the order lifecycle.
type OrderService struct {
	orders   domain.OrderStore
	domains  domain.DomainStore
	users    domain.UserStore
	locks    domain.LockManager
	listings ListingInvalidator
	lockTTL  time.Duration
	fx       effects
	logger   *slog.Logger
}

// NewOrderService creates an OrderService. locks, bus, audit and notifier may
// be nil.
func NewOrderService(
	orders domain.OrderStore,
	domains domain.DomainStore,
	users domain.UserStore,
	locks domain.LockManager,
	listings ListingInvalidator,
	bus domain.EventBus,
	audit domain.AuditStore,
	notifier Notifier,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		domains:  domains,
		users:    users,
		locks:    locks,
		listings: listings,
		lockTTL:  defaultCheckoutLockTTL,
		fx:       newEffects(bus, audit, notifier, logger),
		logger:   logger,
	}
}

// WithLockTTL overrides how long a checkout may hold a domain's lock.
func (s *OrderService) WithLockTTL(ttl time.Duration) *OrderService {
	if ttl > 0 {
		s.lockTTL = ttl
	}
	return s
}

// Buy places a pending order for an available domain and reserves the
// domain. Concurrent checkouts of the same domain are serialised by a
// distributed lock; the loser gets domain.ErrLockHeld.
func (s *OrderService) Buy(ctx context.Context, userID, domainID string) (domain.Order, error) {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "checkout:"+domainID, s.lockTTL)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order_service: lock %s: %w", domainID, err)
		}
		defer unlock()
	}

	d, err := s.domains.GetByID(ctx, domainID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_service: get domain %s: %w", domainID, err)
	}
	if d.Status != domain.DomainStatusAvailable {
		return domain.Order{}, fmt.Errorf("order_service: %s is %s: %w", d.Name, d.Status, domain.ErrNotAvailable)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_service: get user %s: %w", userID, err)
	}

	now := time.Now().UTC()
	o := domain.Order{
		ID:          newID(),
		UserID:      u.ID,
		UserEmail:   u.Email,
		DomainID:    d.ID,
		DomainName:  d.Name,
		AmountCents: d.PriceCents,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("order_service: create order for %s: %w", d.Name, err)
	}

	s.fx.publish(ctx, domain.ChannelOrders, "order.created", o.ID, o)
	s.domainMoved(ctx, d, domain.DomainStatusReserved)
	s.fx.record(ctx, "order.create", u.ID, map[string]any{
		"order_id": o.ID,
		"domain":   d.Name,
		"amount":   o.AmountCents,
	})
	s.fx.alert(ctx, notify.EventOrderCreated, "New order",
		fmt.Sprintf("%s ordered %s for %s", u.Email, d.Name, catalog.FormatPrice(o.AmountCents/100)))

	s.logger.InfoContext(ctx, "order_service: order placed",
		slog.String("order_id", o.ID),
		slog.String("domain", d.Name),
		slog.String("user_id", u.ID),
	)
	return o, nil
}

// Cancel cancels one of the user's own pending orders and releases the
// domain. Other users' orders look like missing ones.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_service: get order %s: %w", orderID, err)
	}
	if o.UserID != userID {
		return domain.Order{}, fmt.Errorf("order_service: get order %s: %w", orderID, domain.ErrNotFound)
	}
	if o.Status != domain.OrderStatusPending {
		return domain.Order{}, fmt.Errorf("order_service: cancel %s order: %w", o.Status, domain.ErrInvalidState)
	}
	return s.move(ctx, userID, o, domain.OrderStatusCancelled)
}

// UpdateStatus moves any order to status on behalf of an admin.
func (s *OrderService) UpdateStatus(ctx context.Context, actor, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		v := &domain.ValidationError{}
		v.Add("status", "unknown status "+string(status))
		return domain.Order{}, v.Err()
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_service: get order %s: %w", orderID, err)
	}
	return s.move(ctx, actor, o, status)
}

func (s *OrderService) move(ctx context.Context, actor string, o domain.Order, status domain.OrderStatus) (domain.Order, error) {
	from := o.Status
	if err := s.orders.UpdateStatus(ctx, o.ID, status); err != nil {
		return domain.Order{}, fmt.Errorf("order_service: %s -> %s: %w", o.ID, status, err)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()

	s.fx.publish(ctx, domain.ChannelOrders, "order.updated", o.ID, o)
	s.domainMoved(ctx, domain.Domain{ID: o.DomainID, Name: o.DomainName}, status.DomainStatusAfter())
	s.fx.record(ctx, "order.status", actor, map[string]any{
		"order_id": o.ID,
		"from":     string(from),
		"to":       string(status),
	})
	s.fx.alert(ctx, notify.EventOrderStatus, "Order "+string(status),
		fmt.Sprintf("Order for %s moved from %s to %s", o.DomainName, from, status))
	return o, nil
}

func (s *OrderService) domainMoved(ctx context.Context, d domain.Domain, status domain.DomainStatus) {
	if s.listings != nil {
		s.listings.Invalidate(ctx)
	}
	s.fx.publish(ctx, domain.ChannelDomains, "domain.updated", d.ID, map[string]any{
		"name":   d.Name,
		"status": status,
	})
}

// ListMine returns the user's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Order, error) {
	out, err := s.orders.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("order_service: list for %s: %w", userID, err)
	}
	return out, nil
}

// List returns every order for the back office.
func (s *OrderService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Order, error) {
	out, err := s.orders.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("order_service: list: %w", err)
	}
	return out, nil
}
