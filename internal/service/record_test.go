package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"formgrid/internal/db"
	"formgrid/internal/domain"
	"formgrid/internal/engine"
	"formgrid/internal/filter"
	"formgrid/internal/repository"
)

// recordFixture wires a RecordService onto a real SQLite database with one
// resource, an admin principal, and a member whose role scopes reads and
// updates to records assigned to them.
type recordFixture struct {
	svc       *RecordService
	records   *repository.RecordRepo
	resource  *domain.Resource
	adminCtx  context.Context
	memberCtx context.Context
	memberID  string
}

func newRecordFixture(t *testing.T) *recordFixture {
	t.Helper()

	writeDB, _ := db.OpenTest(t)
	ctx := context.Background()

	recordRepo := repository.NewRecordRepo(writeDB)
	resourceRepo := repository.NewResourceRepo(writeDB)
	formRepo := repository.NewFormRepo(writeDB)
	roleRepo := repository.NewRoleRepo(writeDB)
	userRepo := repository.NewUserRepo(writeDB)

	res := &domain.Resource{
		ID:   uuid.NewString(),
		Name: "tasks",
		Fields: []domain.FieldDescriptor{
			{Name: "status", Type: domain.FieldText},
			{Name: "assignee", Type: domain.FieldOwner},
			{Name: "secret", Type: domain.FieldText},
			{Name: "due", Type: domain.FieldDate},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, resourceRepo.Create(ctx, res))

	assignedToMe := json.RawMessage(`{"field":"assignee","operator":"contains","value":"$me"}`)
	role := &domain.Role{
		ID:   uuid.NewString(),
		Name: "member",
		Rules: []domain.RoleRule{
			{
				ID: uuid.NewString(), Action: domain.ActionRead, Subject: domain.SubjectRecord,
				Condition: assignedToMe, Fields: []string{"status", "assignee"},
			},
			{
				ID: uuid.NewString(), Action: domain.ActionUpdate, Subject: domain.SubjectRecord,
				Condition: assignedToMe, Fields: []string{"status"},
			},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, roleRepo.Create(ctx, role))

	member := &domain.User{
		ID:        uuid.NewString(),
		Name:      "Member",
		Email:     "member@example.com",
		RoleIDs:   []string{role.ID},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, userRepo.Create(ctx, member))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	abilities := NewAbilityService(roleRepo)
	svc := NewRecordService(recordRepo, resourceRepo, formRepo, abilities, engine.New(recordRepo), logger)

	return &recordFixture{
		svc:       svc,
		records:   recordRepo,
		resource:  res,
		adminCtx:  domain.WithPrincipal(ctx, domain.Principal{ID: "admin-1", Name: "Admin", IsAdmin: true}),
		memberCtx: domain.WithPrincipal(ctx, domain.Principal{ID: member.ID, Name: member.Name}),
		memberID:  member.ID,
	}
}

// seed inserts a record directly, bypassing the service's ability checks.
func (f *recordFixture) seed(t *testing.T, id string, data map[string]any) *domain.Record {
	t.Helper()
	now := time.Now().UTC()
	rec := &domain.Record{
		ID: id, ResourceID: f.resource.ID, Data: data,
		CreatedBy: "seed", CreatedAt: now, ModifiedAt: now,
	}
	require.NoError(t, f.records.Insert(context.Background(), rec))
	return rec
}

func TestRecordService_AddNormalizesData(t *testing.T) {
	f := newRecordFixture(t)

	rec, err := f.svc.Add(f.adminCtx, domain.AddRecordRequest{
		ResourceID: f.resource.ID,
		Data: map[string]any{
			"status":  "open",
			"due":     "2024-03-05",
			"unknown": "dropped",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "open", rec.Data["status"])
	assert.Equal(t, "2024-03-05T00:00:00.000Z", rec.Data["due"], "date values are stored in canonical form")
	assert.NotContains(t, rec.Data, "unknown", "non-schema keys are dropped")
	assert.Equal(t, "admin-1", rec.CreatedBy)

	stored, err := f.records.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Data, stored.Data)
}

func TestRecordService_AddRequiresPrincipal(t *testing.T) {
	f := newRecordFixture(t)

	_, err := f.svc.Add(context.Background(), domain.AddRecordRequest{
		ResourceID: f.resource.ID,
		Data:       map[string]any{"status": "open"},
	})
	var unauth *domain.UnauthenticatedError
	assert.ErrorAs(t, err, &unauth)
}

func TestRecordService_AddDeniedWithoutCreateGrant(t *testing.T) {
	f := newRecordFixture(t)

	_, err := f.svc.Add(f.memberCtx, domain.AddRecordRequest{
		ResourceID: f.resource.ID,
		Data:       map[string]any{"status": "open"},
	})
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestRecordService_QueryScopedByRole(t *testing.T) {
	f := newRecordFixture(t)
	f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}, "secret": "s1"})
	f.seed(t, "rec-02", map[string]any{"status": "open", "assignee": []any{"someone-else"}, "secret": "s2"})

	page, err := f.svc.Query(f.memberCtx, QueryRequest{ResourceID: f.resource.ID})
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "rec-01", page.Edges[0].Node.ID)
	assert.NotContains(t, page.Edges[0].Node.Data, "secret", "fields outside the grant are redacted")
	assert.Equal(t, "open", page.Edges[0].Node.Data["status"])

	page, err = f.svc.Query(f.adminCtx, QueryRequest{ResourceID: f.resource.ID})
	require.NoError(t, err)
	require.Len(t, page.Edges, 2)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, "s1", page.Edges[0].Node.Data["secret"], "admins see every field")
}

func TestRecordService_QueryIntersectsClientFilterWithScope(t *testing.T) {
	f := newRecordFixture(t)
	f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}})
	f.seed(t, "rec-02", map[string]any{"status": "closed", "assignee": []any{f.memberID}})
	f.seed(t, "rec-03", map[string]any{"status": "closed", "assignee": []any{"someone-else"}})

	page, err := f.svc.Query(f.memberCtx, QueryRequest{
		ResourceID: f.resource.ID,
		Filter:     filter.Node{Field: "status", Operator: filter.OperatorEq, Value: "closed"},
	})
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	assert.Equal(t, "rec-02", page.Edges[0].Node.ID)
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestRecordService_QueryRejectsForeignForm(t *testing.T) {
	f := newRecordFixture(t)

	_, err := f.svc.Query(f.adminCtx, QueryRequest{ResourceID: f.resource.ID, FormID: "nope"})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRecordService_GetEnforcesScopeAndRedacts(t *testing.T) {
	f := newRecordFixture(t)
	mine := f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}, "secret": "s1"})
	theirs := f.seed(t, "rec-02", map[string]any{"status": "open", "assignee": []any{"someone-else"}, "secret": "s2"})

	got, err := f.svc.Get(f.memberCtx, mine.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Data, "secret")
	assert.Equal(t, "open", got.Data["status"])

	_, err = f.svc.Get(f.memberCtx, theirs.ID)
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestRecordService_EditMergesWritableFieldsOnly(t *testing.T) {
	f := newRecordFixture(t)
	rec := f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}, "secret": "s1"})

	_, err := f.svc.Edit(f.memberCtx, domain.EditRecordRequest{
		RecordID: rec.ID,
		Data:     map[string]any{"status": "closed", "secret": "overwritten"},
	})
	require.NoError(t, err)

	stored, err := f.records.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", stored.Data["status"])
	assert.Equal(t, "s1", stored.Data["secret"], "fields outside the update grant stay untouched")
}

func TestRecordService_EditResponseFollowsReadVisibility(t *testing.T) {
	f := newRecordFixture(t)
	rec := f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}, "secret": "s1"})

	got, err := f.svc.Edit(f.memberCtx, domain.EditRecordRequest{
		RecordID: rec.ID,
		Data:     map[string]any{"status": "closed"},
	})
	require.NoError(t, err)

	assert.Equal(t, "closed", got.Data["status"])
	assert.NotContains(t, got.Data, "secret", "response hides fields outside the read grant")

	got, err = f.svc.Edit(f.adminCtx, domain.EditRecordRequest{
		RecordID: rec.ID,
		Data:     map[string]any{"status": "open"},
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.Data["secret"])
}

func TestRecordService_EditDeniedOutsideScope(t *testing.T) {
	f := newRecordFixture(t)
	rec := f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{"someone-else"}})

	_, err := f.svc.Edit(f.memberCtx, domain.EditRecordRequest{
		RecordID: rec.ID,
		Data:     map[string]any{"status": "closed"},
	})
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestRecordService_ArchiveCycle(t *testing.T) {
	f := newRecordFixture(t)
	rec := f.seed(t, "rec-01", map[string]any{"status": "open"})

	require.NoError(t, f.svc.Archive(f.adminCtx, rec.ID))

	page, err := f.svc.Query(f.adminCtx, QueryRequest{ResourceID: f.resource.ID})
	require.NoError(t, err)
	assert.Empty(t, page.Edges, "archived records are excluded by default")

	page, err = f.svc.Query(f.adminCtx, QueryRequest{ResourceID: f.resource.ID, ArchivedOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	assert.Equal(t, rec.ID, page.Edges[0].Node.ID)

	require.NoError(t, f.svc.Restore(f.adminCtx, rec.ID))
	page, err = f.svc.Query(f.adminCtx, QueryRequest{ResourceID: f.resource.ID})
	require.NoError(t, err)
	assert.Len(t, page.Edges, 1)
}

func TestRecordService_DeleteDeniedWithoutGrant(t *testing.T) {
	f := newRecordFixture(t)
	rec := f.seed(t, "rec-01", map[string]any{"status": "open", "assignee": []any{f.memberID}})

	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, f.svc.Delete(f.memberCtx, rec.ID), &denied)

	require.NoError(t, f.svc.Delete(f.adminCtx, rec.ID))
	_, err := f.records.Get(context.Background(), rec.ID)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
