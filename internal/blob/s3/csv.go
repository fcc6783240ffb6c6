package s3blob

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
)

const csvContentType = "text/csv"

// CSVColumns is the header of catalog import and export files.
var CSVColumns = []string{"name", "category", "price", "status", "description", "popularity"}

// ImportRow is one parsed line of a catalog CSV file.
type ImportRow struct {
	Line        int
	Name        string
	Category    string
	PriceCents  int64
	Status      domain.DomainStatus
	Description string
	Popularity  int
}

// ExportPath builds the object key for a catalog export written at t.
//
//	exports/domains/2026/03/01/1772366400.csv
func ExportPath(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("exports/domains/%s/%d.csv", t.Format("2006/01/02"), t.Unix())
}

// EncodeCatalogCSV writes domains as CSV with a CSVColumns header. Prices
// are written in storefront format so the file can be imported again.
func EncodeCatalogCSV(w io.Writer, domains []domain.Domain) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for i, d := range domains {
		rec := []string{
			d.Name,
			d.Category,
			catalog.FormatPrice(d.PriceCents / 100),
			string(d.Status),
			d.Description,
			strconv.Itoa(d.Popularity),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv encode record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCatalogCSV parses a catalog CSV. The header is required, matched
// case-insensitively, and may order columns freely; only name and price are
// mandatory. Bad rows are reported as "line N: ..." problems and left out
// of the returned rows. A missing or unusable header is an error.
func DecodeCatalogCSV(r io.Reader) ([]ImportRow, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("csv: empty file")
		}
		return nil, nil, fmt.Errorf("csv: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"name", "price"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("csv: missing %q column", required)
		}
	}

	var rows []ImportRow
	var problems []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				problems = append(problems, fmt.Sprintf("line %d: %v", pe.Line, pe.Err))
				continue
			}
			return rows, problems, fmt.Errorf("csv: read: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blankRecord(rec) {
			continue
		}

		row, problem := parseRow(rec, col)
		if problem != "" {
			problems = append(problems, fmt.Sprintf("line %d: %s", line, problem))
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, problems, nil
}

func parseRow(rec []string, col map[string]int) (ImportRow, string) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	row := ImportRow{
		Name:        strings.ToLower(field("name")),
		Category:    field("category"),
		Description: field("description"),
		Status:      domain.DomainStatus(strings.ToLower(field("status"))),
	}
	if row.Name == "" {
		return row, "name is empty"
	}
	if label, ext := domain.SplitDomainName(row.Name); label == "" || ext == "" {
		return row, fmt.Sprintf("%q is not a domain name", row.Name)
	}

	price, ok := catalog.ParsePrice(field("price"))
	if !ok || price < 0 || price > math.MaxInt64/100 {
		return row, fmt.Sprintf("bad price %q", field("price"))
	}
	row.PriceCents = price * 100

	if row.Status == "" {
		row.Status = domain.DomainStatusAvailable
	}
	if !row.Status.Valid() {
		return row, fmt.Sprintf("unknown status %q", row.Status)
	}

	if p := field("popularity"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return row, fmt.Sprintf("bad popularity %q", p)
		}
		row.Popularity = n
	}
	return row, ""
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
