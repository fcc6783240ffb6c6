package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memDomains struct {
	mu      sync.Mutex
	byID    map[string]domain.Domain
	order   []string
	listPub int
	cats    *memCategories
}

func newMemDomains(cats *memCategories) *memDomains {
	return &memDomains{byID: map[string]domain.Domain{}, cats: cats}
}

func (m *memDomains) decorate(d domain.Domain) domain.Domain {
	if m.cats != nil && d.CategoryID != "" {
		if c, ok := m.cats.byID[d.CategoryID]; ok {
			d.Category = c.Name
		}
	}
	return d
}

func (m *memDomains) Create(_ context.Context, d domain.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Name == d.Name {
			return domain.ErrAlreadyExists
		}
	}
	m.byID[d.ID] = d
	m.order = append(m.order, d.ID)
	return nil
}

func (m *memDomains) Update(_ context.Context, d domain.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[d.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[d.ID] = d
	return nil
}

func (m *memDomains) UpsertByName(_ context.Context, d domain.Domain) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.byID {
		if e.Name == d.Name {
			e.CategoryID, e.PriceCents = d.CategoryID, d.PriceCents
			if e.Status != domain.DomainStatusReserved && e.Status != domain.DomainStatusSold {
				e.Status = d.Status
			}
			e.Popularity, e.Description = d.Popularity, d.Description
			m.byID[id] = e
			return false, nil
		}
	}
	m.byID[d.ID] = d
	m.order = append(m.order, d.ID)
	return true, nil
}

func (m *memDomains) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memDomains) GetByID(_ context.Context, id string) (domain.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return domain.Domain{}, domain.ErrNotFound
	}
	return m.decorate(d), nil
}

func (m *memDomains) GetBySlug(_ context.Context, slug string) (domain.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byID {
		if d.Slug == slug {
			return m.decorate(d), nil
		}
	}
	return domain.Domain{}, domain.ErrNotFound
}

func (m *memDomains) SetStatus(_ context.Context, id string, status domain.DomainStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Status = status
	m.byID[id] = d
	return nil
}

// all returns domains newest first, i.e. reverse insertion order.
func (m *memDomains) all(opts domain.ListOpts) []domain.Domain {
	var out []domain.Domain
	for i := len(m.order) - 1; i >= 0; i-- {
		d, ok := m.byID[m.order[i]]
		if !ok {
			continue
		}
		if opts.Status != "" && string(d.Status) != opts.Status {
			continue
		}
		if opts.Search != "" && !strings.Contains(d.Name, strings.ToLower(opts.Search)) {
			continue
		}
		out = append(out, m.decorate(d))
	}
	return out
}

func (m *memDomains) ListPublic(context.Context) ([]domain.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listPub++
	return m.all(domain.ListOpts{}), nil
}

func (m *memDomains) List(_ context.Context, opts domain.ListOpts) ([]domain.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.all(opts), opts.Limit, opts.Offset), nil
}

func (m *memDomains) Count(_ context.Context, opts domain.ListOpts) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.all(domain.ListOpts{Status: opts.Status, Search: opts.Search}))), nil
}

func (m *memDomains) CountByStatus(context.Context) (map[domain.DomainStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[domain.DomainStatus]int64{}
	for _, d := range m.byID {
		out[d.Status]++
	}
	return out, nil
}

func (m *memDomains) SetTags(_ context.Context, domainID string, tagIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[domainID]
	if !ok {
		return domain.ErrNotFound
	}
	d.Tags = append([]string{}, tagIDs...)
	m.byID[domainID] = d
	return nil
}

type memCategories struct {
	byID map[string]domain.Category
}

func newMemCategories() *memCategories {
	return &memCategories{byID: map[string]domain.Category{}}
}

func (m *memCategories) Create(_ context.Context, c domain.Category) error {
	for _, e := range m.byID {
		if strings.EqualFold(e.Name, c.Name) {
			return domain.ErrAlreadyExists
		}
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) Update(_ context.Context, c domain.Category) error {
	if _, ok := m.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id string) (domain.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *memCategories) GetByName(_ context.Context, name string) (domain.Category, error) {
	for _, c := range m.byID {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}

func (m *memCategories) List(context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range m.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memTags struct {
	byID map[string]domain.Tag
}

func (m *memTags) Create(_ context.Context, t domain.Tag) error { m.byID[t.ID] = t; return nil }
func (m *memTags) Update(_ context.Context, t domain.Tag) error { m.byID[t.ID] = t; return nil }
func (m *memTags) Delete(_ context.Context, id string) error   { delete(m.byID, id); return nil }
func (m *memTags) GetByID(_ context.Context, id string) (domain.Tag, error) {
	t, ok := m.byID[id]
	if !ok {
		return domain.Tag{}, domain.ErrNotFound
	}
	return t, nil
}
func (m *memTags) List(context.Context) ([]domain.Tag, error) {
	var out []domain.Tag
	for _, t := range m.byID {
		out = append(out, t)
	}
	return out, nil
}

// memUsers refuses to delete users that orders still reference, like the
// RESTRICT foreign key.
type memUsers struct {
	mu     sync.Mutex
	byID   map[string]domain.User
	orders *memOrders
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]domain.User{}} }

func (m *memUsers) Create(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Email == u.Email {
			return domain.ErrAlreadyExists
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) Update(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	if m.orders != nil {
		if placed, _ := m.orders.ListByUser(ctx, id, domain.ListOpts{}); len(placed) > 0 {
			return domain.ErrInvalidState
		}
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memUsers) List(context.Context, domain.ListOpts) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

// memOrders mirrors the transactional domain status moves of the SQL store.
type memOrders struct {
	mu      sync.Mutex
	byID    map[string]domain.Order
	domains *memDomains
}

func newMemOrders(domains *memDomains) *memOrders {
	return &memOrders{byID: map[string]domain.Order{}, domains: domains}
}

func (m *memOrders) Create(ctx context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domains.GetByID(ctx, o.DomainID)
	if err != nil {
		return err
	}
	if d.Status != domain.DomainStatusAvailable {
		return domain.ErrNotAvailable
	}
	m.byID[o.ID] = o
	return m.domains.SetStatus(ctx, o.DomainID, domain.DomainStatusReserved)
}

func (m *memOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !o.Status.CanMoveTo(status) {
		return domain.ErrInvalidState
	}
	o.Status = status
	m.byID[id] = o
	return m.domains.SetStatus(ctx, o.DomainID, status.DomainStatusAfter())
}

func (m *memOrders) GetByID(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string, _ domain.ListOpts) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) List(context.Context, domain.ListOpts) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrders) CountByStatus(context.Context) (map[domain.OrderStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[domain.OrderStatus]int64{}
	for _, o := range m.byID {
		out[o.Status]++
	}
	return out, nil
}

func (m *memOrders) Revenue(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, o := range m.byID {
		if o.Status == domain.OrderStatusPaid || o.Status == domain.OrderStatusCompleted {
			total += o.AmountCents
		}
	}
	return total, nil
}

type memEnquiries struct {
	byID map[string]domain.Enquiry
}

func (m *memEnquiries) Create(_ context.Context, e domain.Enquiry) error { m.byID[e.ID] = e; return nil }
func (m *memEnquiries) UpdateStatus(_ context.Context, id string, s domain.EnquiryStatus) error {
	e, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = s
	m.byID[id] = e
	return nil
}
func (m *memEnquiries) Delete(_ context.Context, id string) error { delete(m.byID, id); return nil }
func (m *memEnquiries) GetByID(_ context.Context, id string) (domain.Enquiry, error) {
	e, ok := m.byID[id]
	if !ok {
		return domain.Enquiry{}, domain.ErrNotFound
	}
	return e, nil
}
func (m *memEnquiries) List(context.Context, domain.ListOpts) ([]domain.Enquiry, error) {
	var out []domain.Enquiry
	for _, e := range m.byID {
		out = append(out, e)
	}
	return out, nil
}
func (m *memEnquiries) CountOpen(context.Context) (int64, error) {
	var n int64
	for _, e := range m.byID {
		if e.Status != domain.EnquiryStatusClosed {
			n++
		}
	}
	return n, nil
}

type memWatchlist struct {
	items map[string][]string
}

func (m *memWatchlist) List(_ context.Context, userID string) ([]domain.WatchlistItem, error) {
	var out []domain.WatchlistItem
	for _, id := range m.items[userID] {
		out = append(out, domain.WatchlistItem{UserID: userID, DomainID: id})
	}
	return out, nil
}

func (m *memWatchlist) Add(_ context.Context, userID, domainID string) error {
	for _, id := range m.items[userID] {
		if id == domainID {
			return nil
		}
	}
	m.items[userID] = append(m.items[userID], domainID)
	return nil
}

func (m *memWatchlist) Remove(_ context.Context, userID, domainID string) error {
	ids := m.items[userID]
	for i, id := range ids {
		if id == domainID {
			m.items[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memSEO struct {
	pages map[string]domain.SEOMeta
}

func (m *memSEO) Get(_ context.Context, page string) (domain.SEOMeta, error) {
	p, ok := m.pages[page]
	if !ok {
		return domain.SEOMeta{}, domain.ErrNotFound
	}
	return p, nil
}
func (m *memSEO) Upsert(_ context.Context, p domain.SEOMeta) error { m.pages[p.Page] = p; return nil }
func (m *memSEO) Delete(_ context.Context, page string) error   { delete(m.pages, page); return nil }
func (m *memSEO) List(context.Context) ([]domain.SEOMeta, error) {
	var out []domain.SEOMeta
	for _, p := range m.pages {
		out = append(out, p)
	}
	return out, nil
}

type memSettings struct {
	byKey map[string]domain.Setting
}

func (m *memSettings) Get(_ context.Context, key string) (domain.Setting, error) {
	s, ok := m.byKey[key]
	if !ok {
		return domain.Setting{}, domain.ErrNotFound
	}
	return s, nil
}
func (m *memSettings) Upsert(_ context.Context, s domain.Setting) error { m.byKey[s.Key] = s; return nil }
func (m *memSettings) Delete(_ context.Context, key string) error     { delete(m.byKey, key); return nil }
func (m *memSettings) List(context.Context) ([]domain.Setting, error) {
	var out []domain.Setting
	for _, s := range m.byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type memAudit struct {
	mu     sync.Mutex
	events []string
}

func (m *memAudit) Log(_ context.Context, event, _ string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type memCache struct {
	domains     []domain.Domain
	set         bool
	invalidated int
}

func (m *memCache) GetAll(context.Context) ([]domain.Domain, error) {
	if !m.set {
		return nil, domain.ErrNotFound
	}
	return m.domains, nil
}

func (m *memCache) SetAll(_ context.Context, ds []domain.Domain) error {
	m.domains, m.set = ds, true
	return nil
}

func (m *memCache) Invalidate(context.Context) error {
	m.domains, m.set = nil, false
	m.invalidated++
	return nil
}

type memLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (m *memLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, domain.ErrLockHeld
	}
	m.held[key] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
	}, nil
}

type memBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newMemBus() *memBus { return &memBus{published: map[string][][]byte{}} }

func (m *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[channel] = append(m.published[channel], payload)
	return nil
}

func (m *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func (m *memBus) count(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published[channel])
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) Notify(_ context.Context, event, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}
