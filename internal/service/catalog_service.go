package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
)

// CatalogService serves the storefront catalog and the back-office domain,
// category and tag management.
type CatalogService struct {
	domains    domain.DomainStore
	categories domain.CategoryStore
	tags       domain.TagStore
	cache      domain.ListingCache
	fx         effects
	logger     *slog.Logger
}

// NewCatalogService creates a CatalogService. cache, bus and audit may be nil.
func NewCatalogService(
	domains domain.DomainStore,
	categories domain.CategoryStore,
	tags domain.TagStore,
	cache domain.ListingCache,
	bus domain.EventBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		domains:    domains,
		categories: categories,
		tags:       tags,
		cache:      cache,
		fx:         newEffects(bus, audit, nil, logger),
		logger:     logger,
	}
}

// BrowseResult is a filtered storefront listing.
type BrowseResult struct {
	Domains []domain.Domain `json:"domains"`
	Total   int             `json:"total"`
}

// Listings returns the full storefront catalog, newest first. It reads the
// cached snapshot and rebuilds it from the store on a miss.
func (s *CatalogService) Listings(ctx context.Context) ([]domain.Domain, error) {
	if s.cache != nil {
		ds, err := s.cache.GetAll(ctx)
		if err == nil {
			return ds, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "catalog_service: cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	ds, err := s.domains.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: list public: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetAll(ctx, ds); err != nil {
			s.logger.WarnContext(ctx, "catalog_service: cache fill failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return ds, nil
}

// Browse filters and sorts the storefront catalog.
func (s *CatalogService) Browse(ctx context.Context, f catalog.Filter) (BrowseResult, error) {
	ds, err := s.Listings(ctx)
	if err != nil {
		return BrowseResult{}, err
	}
	out := catalog.ApplyBy(ds, domain.Domain.Listing, f)
	return BrowseResult{Domains: out, Total: len(out)}, nil
}

// Facets summarises the values the storefront filter panel can offer.
func (s *CatalogService) Facets(ctx context.Context) (catalog.Facets, error) {
	ds, err := s.Listings(ctx)
	if err != nil {
		return catalog.Facets{}, err
	}
	ls := make([]catalog.DomainListing, len(ds))
	for i, d := range ds {
		ls[i] = d.Listing()
	}
	return catalog.Summarize(ls), nil
}

// Domain returns one domain by slug.
func (s *CatalogService) Domain(ctx context.Context, slug string) (domain.Domain, error) {
	d, err := s.domains.GetBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: get %q: %w", slug, err)
	}
	return d, nil
}

// Categories lists storefront categories with their domain counts.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	cs, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: list categories: %w", err)
	}
	return cs, nil
}

// Tags lists every tag.
func (s *CatalogService) Tags(ctx context.Context) ([]domain.Tag, error) {
	ts, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: list tags: %w", err)
	}
	return ts, nil
}

// DomainInput is the admin-editable part of a domain.
type DomainInput struct {
	Name        string              `json:"name"`
	CategoryID  string              `json:"category_id"`
	TagIDs      []string            `json:"tag_ids"`
	Status      domain.DomainStatus `json:"status"`
	PriceCents  int64               `json:"price_cents"`
	Popularity  int                 `json:"popularity"`
	Description string              `json:"description"`
	Featured    bool                `json:"featured"`
}

func (in DomainInput) apply(d *domain.Domain) {
	if !strings.EqualFold(strings.TrimSpace(in.Name), d.Name) {
		d.Slug = ""
	}
	d.Name = in.Name
	d.CategoryID = in.CategoryID
	d.Status = in.Status
	d.PriceCents = in.PriceCents
	d.Popularity = in.Popularity
	d.Description = strings.TrimSpace(in.Description)
	d.Featured = in.Featured
	d.Normalize()
}

// AdminList pages through domains for the back office. A non-zero catalog
// filter is applied on top of the store's status and search filters.
func (s *CatalogService) AdminList(ctx context.Context, f catalog.Filter, opts domain.ListOpts) (Page[domain.Domain], error) {
	page := Page[domain.Domain]{Limit: opts.Limit, Offset: opts.Offset}

	if f.IsZero() {
		ds, err := s.domains.List(ctx, opts)
		if err != nil {
			return page, fmt.Errorf("catalog_service: admin list: %w", err)
		}
		total, err := s.domains.Count(ctx, opts)
		if err != nil {
			return page, fmt.Errorf("catalog_service: admin count: %w", err)
		}
		page.Items, page.Total = ds, total
		return page, nil
	}

	all, err := s.domains.List(ctx, domain.ListOpts{Status: opts.Status, Search: opts.Search})
	if err != nil {
		return page, fmt.Errorf("catalog_service: admin list: %w", err)
	}
	matched := catalog.ApplyBy(all, domain.Domain.Listing, f)
	page.Total = int64(len(matched))
	page.Items = paginate(matched, opts.Limit, opts.Offset)
	return page, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// CreateDomain lists a new domain.
func (s *CatalogService) CreateDomain(ctx context.Context, actor string, in DomainInput) (domain.Domain, error) {
	var d domain.Domain
	in.apply(&d)
	if err := s.validateDomain(ctx, d); err != nil {
		return domain.Domain{}, err
	}

	d.ID = newID()
	d.CreatedAt = time.Now().UTC()
	if err := s.domains.Create(ctx, d); err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: create %s: %w", d.Name, err)
	}
	if len(in.TagIDs) > 0 {
		if err := s.domains.SetTags(ctx, d.ID, in.TagIDs); err != nil {
			return domain.Domain{}, fmt.Errorf("catalog_service: tag %s: %w", d.Name, err)
		}
	}

	s.changed(ctx, actor, "domain.create", d)
	return s.reload(ctx, d)
}

// UpdateDomain replaces the editable fields of a domain. A nil TagIDs keeps
// the current tags.
func (s *CatalogService) UpdateDomain(ctx context.Context, actor, id string, in DomainInput) (domain.Domain, error) {
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: get %s: %w", id, err)
	}
	in.apply(&d)
	if err := s.validateDomain(ctx, d); err != nil {
		return domain.Domain{}, err
	}

	if err := s.domains.Update(ctx, d); err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: update %s: %w", id, err)
	}
	if in.TagIDs != nil {
		if err := s.domains.SetTags(ctx, d.ID, in.TagIDs); err != nil {
			return domain.Domain{}, fmt.Errorf("catalog_service: tag %s: %w", d.Name, err)
		}
	}

	s.changed(ctx, actor, "domain.update", d)
	return s.reload(ctx, d)
}

// SetDomainStatus changes only a domain's sale status.
func (s *CatalogService) SetDomainStatus(ctx context.Context, actor, id string, status domain.DomainStatus) (domain.Domain, error) {
	if !status.Valid() {
		v := &domain.ValidationError{}
		v.Add("status", "unknown status "+string(status))
		return domain.Domain{}, v.Err()
	}
	if err := s.domains.SetStatus(ctx, id, status); err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: set status %s: %w", id, err)
	}
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: get %s: %w", id, err)
	}
	s.changed(ctx, actor, "domain.status", d)
	return d, nil
}

// DeleteDomain removes a domain from the catalog.
func (s *CatalogService) DeleteDomain(ctx context.Context, actor, id string) error {
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("catalog_service: get %s: %w", id, err)
	}
	if err := s.domains.Delete(ctx, id); err != nil {
		return fmt.Errorf("catalog_service: delete %s: %w", id, err)
	}
	s.changed(ctx, actor, "domain.delete", d)
	return nil
}

func (s *CatalogService) validateDomain(ctx context.Context, d domain.Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.CategoryID == "" {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, d.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v := &domain.ValidationError{}
			v.Add("category_id", "unknown category")
			return v.Err()
		}
		return fmt.Errorf("catalog_service: check category: %w", err)
	}
	return nil
}

func (s *CatalogService) reload(ctx context.Context, d domain.Domain) (domain.Domain, error) {
	fresh, err := s.domains.GetByID(ctx, d.ID)
	if err != nil {
		return domain.Domain{}, fmt.Errorf("catalog_service: reload %s: %w", d.ID, err)
	}
	return fresh, nil
}

// changed invalidates the storefront snapshot and announces a catalog write.
func (s *CatalogService) changed(ctx context.Context, actor, event string, d domain.Domain) {
	s.Invalidate(ctx)
	s.fx.publish(ctx, domain.ChannelDomains, "domain.updated", d.ID, map[string]any{
		"name":   d.Name,
		"status": d.Status,
		"action": event,
	})
	s.fx.record(ctx, event, actor, map[string]any{
		"domain_id": d.ID,
		"name":      d.Name,
		"status":    string(d.Status),
	})
}

// Invalidate drops the cached storefront snapshot.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "catalog_service: cache invalidate failed",
			slog.String("error", err.Error()),
		)
	}
}
