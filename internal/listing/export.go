package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/query"
)

const exportSheet = "Sheet1"

// Export builds an xlsx workbook of every document of resource matching raw.
// Documents are read in pages of the compiler's max limit starting at the
// query's skip, up to the configured row cap.
func (s *Service) Export(ctx context.Context, resource string, raw *query.Map) (*excelize.File, error) {
	if err := s.checkResource(resource); err != nil {
		return nil, err
	}

	q := s.compiler.Compile(raw)
	q.Options.Limit = s.compiler.MaxLimit()

	var docs []domain.Document
	for len(docs) < s.maxExportRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if remaining := s.maxExportRows - len(docs); remaining < q.Options.Limit {
			q.Options.Limit = remaining
		}
		page, err := s.repo.Find(ctx, resource, q)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", resource, err)
		}
		docs = append(docs, page...)
		if len(page) < q.Options.Limit {
			break
		}
		q.Options.Skip += len(page)
	}

	return buildWorkbook(docs, q.Projection)
}

// WriteExport streams the workbook produced by Export to w.
func (s *Service) WriteExport(ctx context.Context, resource string, raw *query.Map, w io.Writer) error {
	f, err := s.Export(ctx, resource, raw)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func buildWorkbook(docs []domain.Document, projection query.Projection) (*excelize.File, error) {
	f := excelize.NewFile()

	headers := exportHeaders(docs, projection)
	if err := setRow(f, 1, headers); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, doc := range docs {
		fields := doc.Fields()
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = formatValue(fields[h])
		}
		if err := setRow(f, i+2, row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

// exportHeaders lists the visible system columns followed by the sorted union
// of body keys.
func exportHeaders(docs []domain.Document, projection query.Projection) []string {
	hidden := make(map[string]struct{})
	for _, field := range projection.Excluded() {
		hidden[field] = struct{}{}
	}

	var headers []string
	for _, field := range []string{domain.FieldID, domain.FieldCreatedAt, domain.FieldUpdatedAt} {
		if _, ok := hidden[field]; !ok {
			headers = append(headers, field)
		}
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, doc := range docs {
		for key := range doc.Body {
			if _, ok := seen[key]; ok || domain.IsSystemField(key) {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return append(headers, keys...)
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
