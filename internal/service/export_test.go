package service

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgrid/internal/filter"
)

func TestExportService_CSVRespectsScopeAndRedaction(t *testing.T) {
	f := newRecordFixture(t)
	f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}, "secret": "s1"})
	f.seed(t, "rec-02", map[string]any{"status": "open", "assignee": []any{"someone-else"}, "secret": "s2"})

	svc := NewExportService(f.svc)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(f.memberCtx, &buf, f.resource.ID, filter.Node{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one in-scope record")
	assert.Equal(t, []string{"id", "createdAt", "modifiedAt", "status", "assignee", "secret", "due"}, rows[0])
	assert.Equal(t, "rec-01", rows[1][0])
	assert.Equal(t, "open", rows[1][3])
	assert.Empty(t, rows[1][5], "redacted fields export as empty cells")

	buf.Reset()
	require.NoError(t, svc.ExportCSV(f.adminCtx, &buf, f.resource.ID, filter.Node{}))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "s1", rows[1][5])
}

func TestExportService_CSVAppliesClientFilter(t *testing.T) {
	f := newRecordFixture(t)
	f.seed(t, "rec-01", map[string]any{"status": "open"})
	f.seed(t, "rec-02", map[string]any{"status": "closed"})

	svc := NewExportService(f.svc)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(f.adminCtx, &buf, f.resource.ID,
		filter.Node{Field: "status", Operator: filter.OperatorEq, Value: "closed"}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "rec-02", rows[1][0])
}
