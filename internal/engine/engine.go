// Package engine orchestrates access-scoped, filtered, cursor-paginated
// record queries: it compiles the client filter and the permission scope
// into one storage predicate, pages through the store in identifier order,
// and redacts fields the caller may not see.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"formgrid/internal/ability"
	"formgrid/internal/domain"
	"formgrid/internal/filter"
)

// Store is the storage collaborator. Find returns records matching the
// predicate in ascending identifier order, at most limit of them; Count
// returns the size of the whole matching set. The predicate is the opaque
// structure produced by the filter compiler and the ability adapter.
type Store interface {
	Find(ctx context.Context, resourceID string, p *filter.Predicate, limit int) ([]*domain.Record, error)
	Count(ctx context.Context, resourceID string, p *filter.Predicate) (int64, error)
}

// Request carries one query execution's inputs. Fields and Abilities are
// request-scoped, read-only snapshots.
type Request struct {
	ResourceID   string
	Fields       domain.Registry
	Filter       filter.Node
	Abilities    *ability.Set
	Action       string // defaults to "read"
	AfterCursor  string
	PageSize     int
	ArchivedOnly bool
}

// Engine executes record queries against a Store. Stateless; safe for
// concurrent use.
type Engine struct {
	store Store
}

// New creates an Engine backed by the given store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// Query runs one access-scoped, paginated record query and builds the page
// envelope. The permission model is resolved before any storage access: a
// nil ability set means the request carries no authenticated user.
func (e *Engine) Query(ctx context.Context, req Request) (*domain.Page, error) {
	if req.Abilities == nil {
		return nil, domain.ErrUnauthenticated("record query requires an authenticated user")
	}
	action := req.Action
	if action == "" {
		action = domain.ActionRead
	}

	clientPred := filter.Compile(req.Filter, req.Fields)
	accessPred := req.Abilities.ScopeFor(action, domain.SubjectRecord)

	// Archived records are excluded unless explicitly requested.
	archivedPred := filter.Atom("archived", filter.OpNe, true)
	if req.ArchivedOnly {
		archivedPred = filter.Atom("archived", filter.OpEq, true)
	}

	countPred := filter.And(clientPred, accessPred, archivedPred)

	// The cursor bound fixes a total order by identifier: records inserted
	// concurrently sort after the bound and are never duplicated into
	// already-fetched pages. The count deliberately omits it so totalCount
	// reflects the whole filtered set.
	pagePred := countPred
	if req.AfterCursor != "" {
		after, err := domain.DecodeCursor(req.AfterCursor)
		if err != nil {
			return nil, err
		}
		pagePred = filter.And(countPred, filter.Atom("id", filter.OpGt, after))
	}

	pageSize := domain.ClampPageSize(req.PageSize)

	var (
		records []*domain.Record
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = e.store.Find(gctx, req.ResourceID, pagePred, pageSize+1)
		if err != nil {
			return fmt.Errorf("fetch page: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = e.store.Count(gctx, req.ResourceID, countPred)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hasNext := len(records) > pageSize
	if hasNext {
		records = records[:pageSize]
	}

	visible := req.Abilities.VisibleFields(action, domain.SubjectRecord)
	edges := make([]domain.Edge, len(records))
	for i, rec := range records {
		edges[i] = domain.Edge{
			Cursor: domain.EncodeCursor(rec.ID),
			Node:   Redact(rec, visible),
		}
	}

	page := &domain.Page{
		Edges:      edges,
		PageInfo:   domain.PageInfo{HasNextPage: hasNext},
		TotalCount: total,
	}
	if len(edges) > 0 {
		page.PageInfo.StartCursor = edges[0].Cursor
		page.PageInfo.EndCursor = edges[len(edges)-1].Cursor
	}
	return page, nil
}

// Redact returns a copy of the record with every data field outside the
// visible set removed. Identity and timestamps are always kept.
func Redact(rec *domain.Record, visible ability.FieldSet) *domain.Record {
	if visible.All {
		return rec
	}
	out := rec.Clone()
	for name := range out.Data {
		if !visible.Visible(name) {
			delete(out.Data, name)
		}
	}
	return out
}
