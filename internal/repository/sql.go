// Package repository implements SQLite-backed storage for the platform:
// records with a JSON data column, resources, forms, users, roles, and
// pull jobs. It owns the translation of compiled predicates into SQL.
package repository

import (
	"fmt"
	"strings"

	"formgrid/internal/filter"
)

// predicateSQL renders a compiled predicate as a SQL condition over the
// records table. Built-in fields address their columns; user fields go
// through json_extract on the data column with the JSON path bound as a
// parameter, so field names never reach the SQL text.
func predicateSQL(p *filter.Predicate) (string, []any, error) {
	if p == nil {
		return "1=1", nil, nil
	}
	b := &sqlBuilder{}
	clause, err := b.render(p)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return "?"
}

func (b *sqlBuilder) render(p *filter.Predicate) (string, error) {
	switch p.Kind {
	case filter.KindAll:
		return "1=1", nil
	case filter.KindNone:
		return "1=0", nil
	case filter.KindNot:
		inner, err := b.render(p.Children[0])
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case filter.KindAnd, filter.KindOr:
		op := " AND "
		if p.Kind == filter.KindOr {
			op = " OR "
		}
		parts := make([]string, 0, len(p.Children))
		for _, c := range p.Children {
			clause, err := b.render(c)
			if err != nil {
				return "", err
			}
			parts = append(parts, clause)
		}
		return "(" + strings.Join(parts, op) + ")", nil
	case filter.KindAtom:
		return b.renderAtom(p)
	}
	return "", fmt.Errorf("unknown predicate kind %d", p.Kind)
}

// columnExpr maps a predicate field address to a SQL expression.
func (b *sqlBuilder) columnExpr(field string) (string, error) {
	switch field {
	case "id":
		return "id", nil
	case "createdAt":
		return "created_at", nil
	case "modifiedAt":
		return "modified_at", nil
	case "archived":
		return "archived", nil
	}
	name, ok := strings.CutPrefix(field, "data.")
	if !ok {
		return "", fmt.Errorf("unknown predicate field %q", field)
	}
	return "json_extract(records.data, " + b.bind("$."+name) + ")", nil
}

// jsonPath returns the JSON path for a data field; set comparisons only
// make sense there. The path is bound as a parameter at each use site.
func jsonPath(field string) (string, error) {
	name, ok := strings.CutPrefix(field, "data.")
	if !ok {
		return "", fmt.Errorf("set comparison on non-data field %q", field)
	}
	return "$." + name, nil
}

func (b *sqlBuilder) renderAtom(p *filter.Predicate) (string, error) {
	switch p.Op {
	case filter.OpSetEquals, filter.OpSetSuperset, filter.OpSetDisjoint,
		filter.OpSetEmpty, filter.OpSetNotEmpty:
		return b.renderSetAtom(p)
	}

	col, err := b.columnExpr(p.Field)
	if err != nil {
		return "", err
	}

	switch p.Op {
	case filter.OpEq:
		return col + " = " + b.bind(p.Value), nil
	case filter.OpNe:
		// IS NOT keeps absent fields (NULL) in the result, matching the
		// evaluator's negative-match semantics.
		return col + " IS NOT " + b.bind(p.Value), nil
	case filter.OpLt:
		return col + " < " + b.bind(p.Value), nil
	case filter.OpLte:
		return col + " <= " + b.bind(p.Value), nil
	case filter.OpGt:
		return col + " > " + b.bind(p.Value), nil
	case filter.OpGte:
		return col + " >= " + b.bind(p.Value), nil
	case filter.OpIn:
		if len(p.Values) == 0 {
			return "1=0", nil
		}
		return col + " IN (" + b.bindAll(p.Values) + ")", nil
	case filter.OpStartsWith:
		return col + " LIKE " + b.bind(escapeLike(p.Value)+"%") + " ESCAPE '\\'", nil
	case filter.OpEndsWith:
		return col + " LIKE " + b.bind("%"+escapeLike(p.Value)) + " ESCAPE '\\'", nil
	case filter.OpContainsText:
		return col + " LIKE " + b.bind("%"+escapeLike(p.Value)+"%") + " ESCAPE '\\'", nil
	case filter.OpNull:
		return col + " IS NULL", nil
	case filter.OpNotNull:
		return col + " IS NOT NULL", nil
	case filter.OpEmptyText:
		return col + " = ''", nil
	case filter.OpNotEmptyText:
		return "(" + col + " IS NOT NULL AND " + col + " <> '')", nil
	}
	return "", fmt.Errorf("unknown atom op %d", p.Op)
}

func (b *sqlBuilder) renderSetAtom(p *filter.Predicate) (string, error) {
	path, err := jsonPath(p.Field)
	if err != nil {
		return "", err
	}
	// json_type/json_array_length/json_each calls over the same bound path.
	typeOf := func() string { return "json_type(records.data, " + b.bind(path) + ")" }
	lengthOf := func() string { return "json_array_length(records.data, " + b.bind(path) + ")" }

	switch p.Op {
	case filter.OpSetEquals:
		// Exact set equality: stored value is an array of the same length
		// containing every wanted member (order-independent).
		clause := "(" + typeOf() + " = 'array' AND " + lengthOf() + " = " + b.bind(len(p.Values))
		if len(p.Values) > 0 {
			clause += " AND " + b.memberCount(path, p.Values) + " = " + b.bind(distinctCount(p.Values))
		}
		return clause + ")", nil

	case filter.OpSetSuperset:
		if len(p.Values) == 0 {
			return "1=1", nil
		}
		return b.memberCount(path, p.Values) + " = " + b.bind(distinctCount(p.Values)), nil

	case filter.OpSetDisjoint:
		if len(p.Values) == 0 {
			return "1=1", nil
		}
		return "NOT EXISTS (SELECT 1 FROM json_each(records.data, " + b.bind(path) + ")" +
			" WHERE value IN (" + b.bindAll(p.Values) + "))", nil

	case filter.OpSetEmpty:
		return "(" + typeOf() + " IS NULL OR " + typeOf() + " = 'null'" +
			" OR (" + typeOf() + " = 'array' AND " + lengthOf() + " = 0))", nil

	case filter.OpSetNotEmpty:
		return "(" + typeOf() + " = 'array' AND " + lengthOf() + " > 0)", nil
	}
	return "", fmt.Errorf("unknown set op %d", p.Op)
}

// memberCount renders the count of distinct stored members that appear in
// the wanted values.
func (b *sqlBuilder) memberCount(path string, values []any) string {
	return "(SELECT COUNT(DISTINCT value) FROM json_each(records.data, " + b.bind(path) + ")" +
		" WHERE value IN (" + b.bindAll(values) + "))"
}

func (b *sqlBuilder) bindAll(values []any) string {
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = b.bind(v)
	}
	return strings.Join(marks, ", ")
}

func distinctCount(values []any) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[fmt.Sprint(v)] = true
	}
	return len(seen)
}

// escapeLike escapes LIKE wildcards in a user-supplied match value.
func escapeLike(v any) string {
	s := fmt.Sprint(v)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
