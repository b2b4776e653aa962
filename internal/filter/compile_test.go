package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgrid/internal/domain"
)

func testRegistry() domain.Registry {
	return domain.NewRegistry([]domain.FieldDescriptor{
		{Name: "status", Type: domain.FieldText},
		{Name: "due", Type: domain.FieldDate},
		{Name: "assignees", Type: domain.FieldOwner},
		{Name: "tags", Type: domain.FieldTagbox},
		{Name: "score", Type: domain.FieldText},
	})
}

func mustParse(t *testing.T, raw string) Node {
	t.Helper()
	n, err := ParseNode([]byte(raw))
	require.NoError(t, err)
	return n
}

func TestCompile_AbsentFilterMatchesEverything(t *testing.T) {
	p := Compile(Node{}, testRegistry())
	assert.Equal(t, KindAll, p.Kind)
}

func TestCompile_EmptyAndGroupMatchesEverything(t *testing.T) {
	n := mustParse(t, `{"logic":"and","filters":[]}`)
	p := Compile(n, testRegistry())
	assert.Equal(t, KindAll, p.Kind)
}

func TestCompile_EmptyOrGroupMatchesNothing(t *testing.T) {
	n := mustParse(t, `{"logic":"or","filters":[]}`)
	p := Compile(n, testRegistry())
	assert.Equal(t, KindNone, p.Kind)
}

func TestCompile_NestedEmptyGroupIsOmitted(t *testing.T) {
	n := mustParse(t, `{"logic":"and","filters":[
		{"logic":"or","filters":[]},
		{"field":"status","operator":"eq","value":"open"}
	]}`)
	p := Compile(n, testRegistry())
	require.Equal(t, KindAtom, p.Kind)
	assert.Equal(t, "data.status", p.Field)
	assert.Equal(t, OpEq, p.Op)
	assert.Equal(t, "open", p.Value)
}

func TestCompile_UnknownFieldMatchesNothing(t *testing.T) {
	n := mustParse(t, `{"field":"nope","operator":"eq","value":"x"}`)
	p := Compile(n, testRegistry())
	assert.Equal(t, KindNone, p.Kind)
}

func TestCompile_UnknownOperatorDropsLeaf(t *testing.T) {
	// The leaf is omitted; inside an AND group the sibling survives alone.
	n := mustParse(t, `{"logic":"and","filters":[
		{"field":"status","operator":"between","value":"x"},
		{"field":"status","operator":"eq","value":"open"}
	]}`)
	p := Compile(n, testRegistry())
	require.Equal(t, KindAtom, p.Kind)
	assert.Equal(t, OpEq, p.Op)
}

func TestCompile_MissingOperatorDropsLeaf(t *testing.T) {
	n := mustParse(t, `{"logic":"and","filters":[{"field":"status","value":"open"}]}`)
	p := Compile(n, testRegistry())
	assert.Equal(t, KindAll, p.Kind)
}

func TestCompile_UnknownLogicDropsGroup(t *testing.T) {
	n := mustParse(t, `{"logic":"xor","filters":[{"field":"status","operator":"eq","value":"open"}]}`)
	p := Compile(n, testRegistry())
	assert.Equal(t, KindAll, p.Kind, "a dropped non-or group at the top level falls back to match everything")
}

func TestCompile_IdsLeafBypassesRegistry(t *testing.T) {
	n := mustParse(t, `{"field":"ids","value":["a","b"]}`)
	p := Compile(n, testRegistry())
	require.Equal(t, KindAtom, p.Kind)
	assert.Equal(t, "id", p.Field)
	assert.Equal(t, OpIn, p.Op)
	assert.Equal(t, []any{"a", "b"}, p.Values)
}

func TestCompile_TemporalValueCanonicalized(t *testing.T) {
	n := mustParse(t, `{"field":"due","operator":"lt","value":"2024-03-01"}`)
	p := Compile(n, testRegistry())
	require.Equal(t, KindAtom, p.Kind)
	assert.Equal(t, "data.due", p.Field)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", p.Value)
}

func TestCompile_TemporalRejectsTextOperators(t *testing.T) {
	for _, op := range []string{"contains", "startswith", "endswith", "isempty", "isnotempty"} {
		n := Node{Field: "due", Operator: op, Value: "2024"}
		p := Compile(n, testRegistry())
		assert.Equal(t, KindNone, p.Kind, "operator %s on a date field", op)
	}
}

func TestCompile_MultiselectStrategies(t *testing.T) {
	reg := testRegistry()

	eq := Compile(mustParse(t, `{"field":"tags","operator":"eq","value":["a","b"]}`), reg)
	require.Equal(t, KindAtom, eq.Kind)
	assert.Equal(t, OpSetEquals, eq.Op)

	neq := Compile(mustParse(t, `{"field":"tags","operator":"neq","value":["a"]}`), reg)
	require.Equal(t, KindNot, neq.Kind)
	assert.Equal(t, OpSetEquals, neq.Children[0].Op)

	contains := Compile(mustParse(t, `{"field":"tags","operator":"contains","value":["a"]}`), reg)
	assert.Equal(t, OpSetSuperset, contains.Op)

	without := Compile(mustParse(t, `{"field":"tags","operator":"doesnotcontain","value":["a"]}`), reg)
	assert.Equal(t, OpSetDisjoint, without.Op)

	lt := Compile(mustParse(t, `{"field":"tags","operator":"lt","value":"a"}`), reg)
	assert.Equal(t, KindNone, lt.Kind, "ordering is undefined on sets")
}

func TestCompile_ScalarDoesNotContainNegates(t *testing.T) {
	p := Compile(mustParse(t, `{"field":"status","operator":"doesnotcontain","value":"ope"}`), testRegistry())
	require.Equal(t, KindNot, p.Kind)
	assert.Equal(t, OpContainsText, p.Children[0].Op)
}

func TestCompile_BuiltinFieldStaysFlat(t *testing.T) {
	p := Compile(mustParse(t, `{"field":"createdAt","operator":"gte","value":"2024-01-01"}`), testRegistry())
	require.Equal(t, KindAtom, p.Kind)
	assert.Equal(t, "createdAt", p.Field)
}

func TestCompile_NestedGroups(t *testing.T) {
	n := mustParse(t, `{"logic":"and","filters":[
		{"field":"status","operator":"eq","value":"open"},
		{"logic":"or","filters":[
			{"field":"score","operator":"gt","value":5},
			{"field":"score","operator":"isnull"}
		]}
	]}`)
	p := Compile(n, testRegistry())
	require.Equal(t, KindAnd, p.Kind)
	require.Len(t, p.Children, 2)
	assert.Equal(t, KindAtom, p.Children[0].Kind)
	assert.Equal(t, KindOr, p.Children[1].Kind)
}

func TestParseNode_RoundTrip(t *testing.T) {
	raw := `{"logic":"or","filters":[{"field":"status","operator":"eq","value":"open"}]}`
	n := mustParse(t, raw)
	assert.True(t, n.IsGroup())

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
