package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"formgrid/internal/domain"
	"formgrid/internal/filter"
)

// exportPageSize bounds memory per export iteration.
const exportPageSize = 200

// ExportService streams access-scoped record sets to CSV by walking cursor
// pages through the query engine, so exports see exactly what a paginated
// query would.
type ExportService struct {
	records *RecordService
}

// NewExportService creates an ExportService.
func NewExportService(records *RecordService) *ExportService {
	return &ExportService{records: records}
}

// ExportCSV writes the filtered records of a resource as CSV. Columns are
// the built-in fields followed by the resource schema; redacted fields
// stay empty.
func (s *ExportService) ExportCSV(ctx context.Context, w io.Writer, resourceID string, filterNode filter.Node) error {
	res, err := s.records.resources.Get(ctx, resourceID)
	if err != nil {
		return err
	}

	header := []string{domain.BuiltinID, domain.BuiltinCreatedAt, domain.BuiltinModifiedAt}
	for _, f := range res.Fields {
		header = append(header, f.Name)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	cursor := ""
	for {
		page, err := s.records.Query(ctx, QueryRequest{
			ResourceID:  resourceID,
			Filter:      filterNode,
			PageSize:    exportPageSize,
			AfterCursor: cursor,
		})
		if err != nil {
			return err
		}
		for _, edge := range page.Edges {
			row := make([]string, 0, len(header))
			row = append(row,
				edge.Node.ID,
				domain.FormatTimestamp(edge.Node.CreatedAt),
				domain.FormatTimestamp(edge.Node.ModifiedAt))
			for _, f := range res.Fields {
				row = append(row, cellValue(edge.Node.Data[f.Name]))
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		if !page.PageInfo.HasNextPage {
			break
		}
		cursor = page.PageInfo.EndCursor
	}

	cw.Flush()
	return cw.Error()
}

func cellValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
