package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// CatalogSource lists the domains to export.
type CatalogSource interface {
	ListPublic(ctx context.Context) ([]domain.Domain, error)
}

// ExportResult describes a finished catalog export.
type ExportResult struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Exporter writes the catalog to object storage as CSV and records the
// export in the audit log.
type Exporter struct {
	writer  domain.BlobWriter
	domains CatalogSource
	audit   domain.AuditStore
	now     func() time.Time
}

// NewExporter creates an Exporter.
func NewExporter(writer domain.BlobWriter, domains CatalogSource, audit domain.AuditStore) *Exporter {
	return &Exporter{writer: writer, domains: domains, audit: audit, now: time.Now}
}

// Export uploads the whole catalog to ExportPath(now). Files larger than one
// multipart part go through the multipart uploader.
func (e *Exporter) Export(ctx context.Context, actor string) (ExportResult, error) {
	domains, err := e.domains.ListPublic(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("s3blob: export query: %w", err)
	}

	var buf bytes.Buffer
	if err := EncodeCatalogCSV(&buf, domains); err != nil {
		return ExportResult{}, fmt.Errorf("s3blob: export encode: %w", err)
	}

	res := ExportResult{Path: ExportPath(e.now()), Count: len(domains)}
	if int64(buf.Len()) > minPartSize {
		err = e.writer.PutMultipart(ctx, res.Path, &buf, minPartSize)
	} else {
		err = e.writer.Put(ctx, res.Path, &buf, csvContentType)
	}
	if err != nil {
		return ExportResult{}, fmt.Errorf("s3blob: export upload: %w", err)
	}

	if err := e.audit.Log(ctx, "catalog.export", actor, map[string]any{
		"path":  res.Path,
		"count": res.Count,
	}); err != nil {
		return res, fmt.Errorf("s3blob: export audit log: %w", err)
	}
	return res, nil
}
