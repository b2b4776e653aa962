package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"formgrid/internal/db"
	"formgrid/internal/repository"
)

const seedYAML = `
resources:
  - name: tasks
    fields:
      - name: status
        type: text
      - name: assignee
        type: owner
    forms:
      - name: Main
        core: true
      - name: Quick entry
        fields:
          - name: status
            type: text
roles:
  - name: member
    rules:
      - action: read
        subject: Record
        resource: tasks
        condition:
          field: assignee
          operator: contains
          value: $me
        fields: [status, assignee]
users:
  - name: Admin
    email: admin@example.com
    isAdmin: true
  - name: Member
    email: member@example.com
    roles: [member]
pullJobs:
  - name: nightly-import
    resource: tasks
    url: http://example.com/feed
    schedule: "0 2 * * *"
    path: items
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newSeedRepos(t *testing.T) SeedRepos {
	t.Helper()
	writeDB, _ := db.OpenTest(t)
	return SeedRepos{
		Resources: repository.NewResourceRepo(writeDB),
		Forms:     repository.NewFormRepo(writeDB),
		Roles:     repository.NewRoleRepo(writeDB),
		Users:     repository.NewUserRepo(writeDB),
		PullJobs:  repository.NewPullJobRepo(writeDB),
	}
}

func TestApplySeedFile(t *testing.T) {
	repos := newSeedRepos(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeSeedFile(t, seedYAML)

	require.NoError(t, ApplySeedFile(ctx, path, repos, logger))

	res, err := repos.Resources.GetByName(ctx, "tasks")
	require.NoError(t, err)
	require.Len(t, res.Fields, 2)

	forms, err := repos.Forms.ListForResource(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, forms, 2)
	byName := map[string]int{}
	for _, form := range forms {
		byName[form.Name] = len(form.Fields)
	}
	assert.Equal(t, 2, byName["Main"], "core forms inherit the full schema")
	assert.Equal(t, 1, byName["Quick entry"])

	roles, err := repos.Roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Len(t, roles[0].Rules, 1)
	assert.Equal(t, res.ID, roles[0].Rules[0].ResourceID, "rule resource names resolve to ids")
	assert.JSONEq(t,
		`{"field":"assignee","operator":"contains","value":"$me"}`,
		string(roles[0].Rules[0].Condition))

	admin, err := repos.Users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	member, err := repos.Users.GetByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	require.Len(t, member.RoleIDs, 1)
	assert.Equal(t, roles[0].ID, member.RoleIDs[0])

	jobs, err := repos.PullJobs.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, res.ID, jobs[0].ResourceID)
}

func TestApplySeedFile_Idempotent(t *testing.T) {
	repos := newSeedRepos(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeSeedFile(t, seedYAML)

	require.NoError(t, ApplySeedFile(ctx, path, repos, logger))
	require.NoError(t, ApplySeedFile(ctx, path, repos, logger), "second apply must not conflict")

	resources, err := repos.Resources.List(ctx)
	require.NoError(t, err)
	assert.Len(t, resources, 1)

	roles, err := repos.Roles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	jobs, err := repos.PullJobs.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestApplySeedFile_UnknownRole(t *testing.T) {
	repos := newSeedRepos(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeSeedFile(t, "users:\n  - name: X\n    email: x@example.com\n    roles: [ghost]\n")

	err := ApplySeedFile(context.Background(), path, repos, logger)
	assert.ErrorContains(t, err, "unknown role")
}

func TestApplySeedFile_MissingFile(t *testing.T) {
	repos := newSeedRepos(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := ApplySeedFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), repos, logger)
	assert.ErrorContains(t, err, "read seed file")
}
