package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"formgrid/internal/domain"
)

func testRecord(data map[string]any) *domain.Record {
	return &domain.Record{
		ID:         "rec-1",
		ResourceID: "res-1",
		Data:       data,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ModifiedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestMatches_NilPredicateMatches(t *testing.T) {
	assert.True(t, Matches(nil, testRecord(nil)))
}

func TestMatches_Equality(t *testing.T) {
	rec := testRecord(map[string]any{"status": "open", "score": float64(5)})

	assert.True(t, Matches(Atom("data.status", OpEq, "open"), rec))
	assert.False(t, Matches(Atom("data.status", OpEq, "closed"), rec))
	assert.True(t, Matches(Atom("data.score", OpEq, 5), rec), "numbers compare across concrete types")
	assert.False(t, Matches(Atom("data.missing", OpEq, "x"), rec), "absent field never equals")
}

func TestMatches_NotEqualMatchesAbsentField(t *testing.T) {
	rec := testRecord(map[string]any{"status": "open"})

	assert.True(t, Matches(Atom("data.status", OpNe, "closed"), rec))
	assert.False(t, Matches(Atom("data.status", OpNe, "open"), rec))
	assert.True(t, Matches(Atom("data.missing", OpNe, "x"), rec))
}

func TestMatches_Ordering(t *testing.T) {
	rec := testRecord(map[string]any{
		"score": float64(5),
		"due":   "2024-03-01T00:00:00.000Z",
	})

	assert.True(t, Matches(Atom("data.score", OpGt, 4), rec))
	assert.False(t, Matches(Atom("data.score", OpGt, 5), rec))
	assert.True(t, Matches(Atom("data.score", OpGte, 5), rec))
	assert.True(t, Matches(Atom("data.due", OpLt, "2024-04-01T00:00:00.000Z"), rec))
	assert.False(t, Matches(Atom("data.missing", OpLt, "z"), rec), "ordering on an absent field never matches")
}

func TestMatches_TextOperatorsFoldCase(t *testing.T) {
	rec := testRecord(map[string]any{"title": "Quarterly Report"})

	assert.True(t, Matches(Atom("data.title", OpContainsText, "quarterly"), rec))
	assert.True(t, Matches(Atom("data.title", OpStartsWith, "QUART"), rec))
	assert.True(t, Matches(Atom("data.title", OpEndsWith, "report"), rec))
	assert.False(t, Matches(Atom("data.title", OpContainsText, "annual"), rec))
}

func TestMatches_NullAndEmpty(t *testing.T) {
	rec := testRecord(map[string]any{"a": nil, "b": "", "c": "x"})

	assert.True(t, Matches(Atom("data.a", OpNull, nil), rec))
	assert.True(t, Matches(Atom("data.missing", OpNull, nil), rec))
	assert.False(t, Matches(Atom("data.c", OpNull, nil), rec))

	assert.True(t, Matches(Atom("data.c", OpNotNull, nil), rec))
	assert.False(t, Matches(Atom("data.a", OpNotNull, nil), rec))

	assert.True(t, Matches(Atom("data.b", OpEmptyText, nil), rec))
	assert.False(t, Matches(Atom("data.missing", OpEmptyText, nil), rec), "absent is not empty text")
	assert.True(t, Matches(Atom("data.c", OpNotEmptyText, nil), rec))
	assert.False(t, Matches(Atom("data.b", OpNotEmptyText, nil), rec))
}

func TestMatches_In(t *testing.T) {
	rec := testRecord(map[string]any{"status": "open"})

	assert.True(t, Matches(AtomValues("id", OpIn, []any{"rec-1", "rec-2"}), rec))
	assert.False(t, Matches(AtomValues("id", OpIn, []any{"rec-9"}), rec))
	assert.False(t, Matches(AtomValues("id", OpIn, nil), rec))
}

func TestMatches_SetEqualsIgnoresOrder(t *testing.T) {
	rec := testRecord(map[string]any{"tags": []any{"b", "a"}})

	assert.True(t, Matches(AtomValues("data.tags", OpSetEquals, []any{"a", "b"}), rec))
	assert.False(t, Matches(AtomValues("data.tags", OpSetEquals, []any{"a"}), rec))
	assert.False(t, Matches(AtomValues("data.tags", OpSetEquals, []any{"a", "b", "c"}), rec))
}

func TestMatches_SetEqualsRequiresArray(t *testing.T) {
	rec := testRecord(map[string]any{"tags": "a"})
	assert.False(t, Matches(AtomValues("data.tags", OpSetEquals, []any{"a"}), rec))
}

func TestMatches_SetSupersetTreatsScalarAsSingleton(t *testing.T) {
	arr := testRecord(map[string]any{"tags": []any{"a", "b", "c"}})
	scalar := testRecord(map[string]any{"tags": "a"})

	assert.True(t, Matches(AtomValues("data.tags", OpSetSuperset, []any{"a", "c"}), arr))
	assert.False(t, Matches(AtomValues("data.tags", OpSetSuperset, []any{"a", "z"}), arr))
	assert.True(t, Matches(AtomValues("data.tags", OpSetSuperset, []any{"a"}), scalar))
	assert.False(t, Matches(AtomValues("data.tags", OpSetSuperset, []any{"a", "b"}), scalar))
}

func TestMatches_SetDisjoint(t *testing.T) {
	rec := testRecord(map[string]any{"tags": []any{"a", "b"}})
	empty := testRecord(map[string]any{})

	assert.True(t, Matches(AtomValues("data.tags", OpSetDisjoint, []any{"x", "y"}), rec))
	assert.False(t, Matches(AtomValues("data.tags", OpSetDisjoint, []any{"y", "b"}), rec))
	assert.True(t, Matches(AtomValues("data.tags", OpSetDisjoint, []any{"a"}), empty), "absent field overlaps nothing")
}

func TestMatches_SetEmptiness(t *testing.T) {
	assert.True(t, Matches(Atom("data.tags", OpSetEmpty, nil), testRecord(map[string]any{"tags": []any{}})))
	assert.True(t, Matches(Atom("data.tags", OpSetEmpty, nil), testRecord(map[string]any{})))
	assert.True(t, Matches(Atom("data.tags", OpSetEmpty, nil), testRecord(map[string]any{"tags": nil})))
	assert.False(t, Matches(Atom("data.tags", OpSetEmpty, nil), testRecord(map[string]any{"tags": []any{"a"}})))

	assert.True(t, Matches(Atom("data.tags", OpSetNotEmpty, nil), testRecord(map[string]any{"tags": []any{"a"}})))
	assert.False(t, Matches(Atom("data.tags", OpSetNotEmpty, nil), testRecord(map[string]any{})))
}

func TestMatches_BuiltinFields(t *testing.T) {
	rec := testRecord(nil)

	assert.True(t, Matches(Atom("id", OpEq, "rec-1"), rec))
	assert.True(t, Matches(Atom("createdAt", OpEq, "2024-03-01T12:00:00.000Z"), rec))
	assert.True(t, Matches(Atom("createdAt", OpLt, "2024-03-02T00:00:00.000Z"), rec))
	assert.False(t, Matches(Atom("archived", OpEq, true), rec))
	assert.True(t, Matches(Atom("archived", OpNe, true), rec))
}

func TestMatches_Combinators(t *testing.T) {
	rec := testRecord(map[string]any{"status": "open", "score": float64(7)})

	open := Atom("data.status", OpEq, "open")
	high := Atom("data.score", OpGt, 5)
	closed := Atom("data.status", OpEq, "closed")

	assert.True(t, Matches(And(open, high), rec))
	assert.False(t, Matches(And(open, closed), rec))
	assert.True(t, Matches(Or(closed, high), rec))
	assert.False(t, Matches(Not(open), rec))
	assert.True(t, Matches(All(), rec))
	assert.False(t, Matches(None(), rec))
}

func TestCombinators_Simplify(t *testing.T) {
	atom := Atom("data.x", OpEq, 1)

	assert.Equal(t, KindAll, And().Kind)
	assert.Equal(t, KindNone, Or().Kind)
	assert.Same(t, atom, And(nil, All(), atom))
	assert.Same(t, atom, Or(nil, None(), atom))
	assert.Equal(t, KindNone, And(atom, None()).Kind)
	assert.Equal(t, KindAll, Or(atom, All()).Kind)
	assert.Equal(t, KindNone, Not(All()).Kind)
	assert.Equal(t, KindAll, Not(None()).Kind)
}

func TestCompileAndMatch_EndToEnd(t *testing.T) {
	reg := testRegistry()
	rec := testRecord(map[string]any{
		"status":    "open",
		"assignees": []any{"user-1", "user-2"},
	})

	n := mustParse(t, `{"logic":"and","filters":[
		{"field":"status","operator":"eq","value":"open"},
		{"field":"assignees","operator":"contains","value":["user-1"]}
	]}`)
	assert.True(t, Matches(Compile(n, reg), rec))

	n = mustParse(t, `{"logic":"and","filters":[
		{"field":"status","operator":"eq","value":"open"},
		{"field":"assignees","operator":"contains","value":["user-9"]}
	]}`)
	assert.False(t, Matches(Compile(n, reg), rec))
}
