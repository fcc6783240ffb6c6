package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/notify"
)

func TestEnquiryService_Submit(t *testing.T) {
	ctx := context.Background()
	doms := newMemDomains(nil)
	require.NoError(t, doms.Create(ctx, domain.Domain{ID: "d-1", Name: "shop.com"}))
	store := &memEnquiries{byID: map[string]domain.Enquiry{}}
	bus := newMemBus()
	notifier := &recordingNotifier{}
	svc := NewEnquiryService(store, doms, bus, &memAudit{}, notifier, testLogger())

	e, err := svc.Submit(ctx, EnquiryInput{
		DomainID:   "d-1",
		Name:       " Sam ",
		Email:      "Sam@Example.com",
		Message:    "Would you take less?",
		OfferCents: 500000,
	})
	require.NoError(t, err)
	assert.Equal(t, "shop.com", e.DomainName)
	assert.Equal(t, "sam@example.com", e.Email)
	assert.Equal(t, domain.EnquiryStatusNew, e.Status)
	assert.Equal(t, 1, bus.count(domain.ChannelEnquiries))
	assert.Equal(t, []string{notify.EventEnquiryCreated}, notifier.events)

	open, err := store.CountOpen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, open)

	_, err = svc.UpdateStatus(ctx, "admin-1", e.ID, domain.EnquiryStatusClosed)
	require.NoError(t, err)
	open, err = store.CountOpen(ctx)
	require.NoError(t, err)
	assert.Zero(t, open)
}

func TestEnquiryService_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewEnquiryService(&memEnquiries{byID: map[string]domain.Enquiry{}}, newMemDomains(nil), nil, nil, nil, testLogger())

	tests := []struct {
		name string
		in   EnquiryInput
	}{
		{"missing name", EnquiryInput{Email: "a@example.com", Message: "hi"}},
		{"bad email", EnquiryInput{Name: "A", Email: "not-an-email", Message: "hi"}},
		{"empty message", EnquiryInput{Name: "A", Email: "a@example.com", Message: "   "}},
		{"negative offer", EnquiryInput{Name: "A", Email: "a@example.com", Message: "hi", OfferCents: -5}},
		{"unknown domain", EnquiryInput{DomainID: "nope", Name: "A", Email: "a@example.com", Message: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestEnquirySummary(t *testing.T) {
	got := enquirySummary(domain.Enquiry{
		Name:       "Sam",
		Email:      "sam@example.com",
		DomainName: "shop.com",
		OfferCents: 1250000,
		Message:    "Interested",
	})
	assert.Equal(t, "Sam <sam@example.com> about shop.com, offering $12,500\nInterested", got)
}

func TestWatchlistService(t *testing.T) {
	ctx := context.Background()
	doms := newMemDomains(nil)
	require.NoError(t, doms.Create(ctx, domain.Domain{ID: "d-1", Name: "shop.com"}))
	svc := NewWatchlistService(&memWatchlist{items: map[string][]string{}}, doms)

	items, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	assert.ErrorIs(t, svc.Add(ctx, "u-1", "missing"), domain.ErrNotFound)
	require.NoError(t, svc.Add(ctx, "u-1", "d-1"))
	require.NoError(t, svc.Add(ctx, "u-1", "d-1"))

	items, err = svc.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "d-1", items[0].DomainID)

	require.NoError(t, svc.Remove(ctx, "u-1", "d-1"))
	assert.ErrorIs(t, svc.Remove(ctx, "u-1", "d-1"), domain.ErrNotFound)
}

func TestStatsService(t *testing.T) {
	ctx := context.Background()
	doms := newMemDomains(nil)
	require.NoError(t, doms.Create(ctx, domain.Domain{ID: "d-1", Name: "a.com", Status: domain.DomainStatusAvailable, PriceCents: 1000}))
	require.NoError(t, doms.Create(ctx, domain.Domain{ID: "d-2", Name: "b.com", Status: domain.DomainStatusAvailable, PriceCents: 3000}))
	orders := newMemOrders(doms)
	require.NoError(t, orders.Create(ctx, domain.Order{ID: "o-1", DomainID: "d-1", AmountCents: 1000, Status: domain.OrderStatusPending}))
	require.NoError(t, orders.Create(ctx, domain.Order{ID: "o-2", DomainID: "d-2", AmountCents: 3000, Status: domain.OrderStatusPending}))
	require.NoError(t, orders.UpdateStatus(ctx, "o-2", domain.OrderStatusPaid))
	users := newMemUsers()
	require.NoError(t, users.Create(ctx, domain.User{ID: "u-1", Email: "u@example.com"}))
	enquiries := &memEnquiries{byID: map[string]domain.Enquiry{
		"e-1": {ID: "e-1", Status: domain.EnquiryStatusNew},
		"e-2": {ID: "e-2", Status: domain.EnquiryStatusClosed},
	}}

	st, err := NewStatsService(doms, orders, enquiries, users).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.DomainStatus]int64{
		domain.DomainStatusReserved: 1,
		domain.DomainStatusSold:     1,
	}, st.DomainsByStatus)
	assert.Equal(t, map[domain.OrderStatus]int64{
		domain.OrderStatusPending: 1,
		domain.OrderStatusPaid:    1,
	}, st.OrdersByStatus)
	assert.EqualValues(t, 3000, st.RevenueCents)
	assert.EqualValues(t, 1, st.OpenEnquiries)
	assert.EqualValues(t, 1, st.Users)
}
