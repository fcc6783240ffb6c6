package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	s3blob "github.com/alanyoungcy/domainmart/internal/blob/s3"
	"github.com/alanyoungcy/domainmart/internal/domain"
)

// CatalogExporter writes the catalog to object storage.
type CatalogExporter interface {
	Export(ctx context.Context, actor string) (s3blob.ExportResult, error)
}

// TransferService bulk-imports domains from CSV and exports the catalog.
type TransferService struct {
	domains    domain.DomainStore
	categories domain.CategoryStore
	blobs      domain.BlobReader
	exporter   CatalogExporter
	listings   ListingInvalidator
	fx         effects
	logger     *slog.Logger
}

// NewTransferService creates a TransferService. blobs and exporter are nil
// when object storage is disabled; imports from a request body still work.
func NewTransferService(
	domains domain.DomainStore,
	categories domain.CategoryStore,
	blobs domain.BlobReader,
	exporter CatalogExporter,
	listings ListingInvalidator,
	bus domain.EventBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *TransferService {
	return &TransferService{
		domains:    domains,
		categories: categories,
		blobs:      blobs,
		exporter:   exporter,
		listings:   listings,
		fx:         newEffects(bus, audit, nil, logger),
		logger:     logger,
	}
}

func storageDisabled(field string) error {
	v := &domain.ValidationError{}
	v.Add(field, "object storage is not configured")
	return v.Err()
}

// ImportBlob imports the CSV stored at path.
func (s *TransferService) ImportBlob(ctx context.Context, actor, path string) (domain.ImportResult, error) {
	if s.blobs == nil {
		return domain.ImportResult{}, storageDisabled("blob_path")
	}
	rc, err := s.blobs.Get(ctx, path)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("transfer_service: open %s: %w", path, err)
	}
	defer rc.Close()
	return s.Import(ctx, actor, rc)
}

// Import upserts every valid row of a catalog CSV by domain name, creating
// missing categories on the way. Invalid rows are skipped and reported.
func (s *TransferService) Import(ctx context.Context, actor string, r io.Reader) (domain.ImportResult, error) {
	rows, problems, err := s3blob.DecodeCatalogCSV(r)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("transfer_service: %w: %w", domain.ErrInvalidInput, err)
	}

	res := domain.ImportResult{Errors: problems, Skipped: len(problems)}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	categoryIDs := make(map[string]string)
	created := 0

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		catID, err := s.categoryID(ctx, actor, row.Category, categoryIDs)
		if err != nil {
			return res, err
		}

		d := domain.Domain{
			ID:          newID(),
			Name:        row.Name,
			CategoryID:  catID,
			Status:      row.Status,
			PriceCents:  row.PriceCents,
			Popularity:  row.Popularity,
			Description: row.Description,
			CreatedAt:   time.Now().UTC(),
		}
		d.Normalize()
		if err := d.Validate(); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}

		isNew, err := s.domains.UpsertByName(ctx, d)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}
		res.Imported++
		if isNew {
			created++
		}
	}

	if res.Imported > 0 {
		if s.listings != nil {
			s.listings.Invalidate(ctx)
		}
		s.fx.publish(ctx, domain.ChannelDomains, "domain.updated", "", map[string]any{
			"action":   "catalog.import",
			"imported": res.Imported,
		})
	}
	s.fx.record(ctx, "catalog.import", actor, map[string]any{
		"imported": res.Imported,
		"created":  created,
		"skipped":  res.Skipped,
	})
	s.logger.InfoContext(ctx, "transfer_service: import finished",
		slog.Int("imported", res.Imported),
		slog.Int("created", created),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

// categoryID resolves a category name to its ID, creating the category when
// it does not exist yet. Results are memoised in seen.
func (s *TransferService) categoryID(ctx context.Context, actor, name string, seen map[string]string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || domain.Slugify(name) == "" {
		return "", nil
	}
	key := strings.ToLower(name)
	if id, ok := seen[key]; ok {
		return id, nil
	}

	c, err := s.categories.GetByName(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		c = domain.Category{ID: newID(), Name: name, Slug: domain.Slugify(name), CreatedAt: time.Now().UTC()}
		if err := s.categories.Create(ctx, c); err != nil {
			return "", fmt.Errorf("transfer_service: create category %q: %w", name, err)
		}
		s.fx.record(ctx, "category.create", actor, map[string]any{"category_id": c.ID, "name": c.Name})
	default:
		return "", fmt.Errorf("transfer_service: get category %q: %w", name, err)
	}

	seen[key] = c.ID
	return c.ID, nil
}

// Export writes the catalog to object storage as CSV.
func (s *TransferService) Export(ctx context.Context, actor string) (s3blob.ExportResult, error) {
	if s.exporter == nil {
		return s3blob.ExportResult{}, storageDisabled("storage")
	}
	res, err := s.exporter.Export(ctx, actor)
	if err != nil {
		return s3blob.ExportResult{}, fmt.Errorf("transfer_service: %w", err)
	}
	s.logger.InfoContext(ctx, "transfer_service: export finished",
		slog.String("path", res.Path),
		slog.Int("count", res.Count),
	)
	return res, nil
}
