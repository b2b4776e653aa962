package filter

import (
	"formgrid/internal/domain"
)

// Compile translates a client filter tree into a storage predicate against
// the given field registry. It is total: malformed input is normalized, not
// rejected.
//
// Normalization policy:
//   - a leaf naming an unknown field compiles to a match-nothing predicate;
//   - a leaf without an operator, or with an operator outside the closed
//     set, is omitted from its parent group;
//   - a group whose children all compile away is omitted from its parent;
//   - at the top level an omitted AND group (or absent filter) means match
//     everything, while an omitted OR group means match nothing — an empty
//     disjunction is never true and must not silently widen to all records.
func Compile(n Node, reg domain.Registry) *Predicate {
	if n.IsZero() {
		return All()
	}
	if p := compileNode(n, reg); p != nil {
		return p
	}
	if n.IsGroup() && n.logicOr() {
		return None()
	}
	return All()
}

// compileNode compiles one node. A nil result means the node is omitted
// from its enclosing group.
func compileNode(n Node, reg domain.Registry) *Predicate {
	if n.IsGroup() {
		return compileGroup(n, reg)
	}
	return compileLeaf(n, reg)
}

func compileGroup(n Node, reg domain.Registry) *Predicate {
	compiled := make([]*Predicate, 0, len(n.Filters))
	for _, child := range n.Filters {
		if p := compileNode(child, reg); p != nil {
			compiled = append(compiled, p)
		}
	}
	if len(compiled) == 0 {
		return nil
	}
	switch {
	case n.logicOr():
		return Or(compiled...)
	case n.logicAnd():
		return And(compiled...)
	default:
		// Unknown logic value: the group is dropped, same as the original
		// query layer.
		return nil
	}
}

func compileLeaf(n Node, reg domain.Registry) *Predicate {
	if n.Field == "" {
		return nil
	}
	// "ids" selects by identifier list and bypasses the registry.
	if n.Field == FieldIDs {
		return AtomValues("id", OpIn, toValueList(n.Value))
	}
	if n.Operator == "" {
		return nil
	}
	desc, ok := reg.Lookup(n.Field)
	if !ok {
		return None()
	}
	if !knownOperators[n.Operator] {
		return nil
	}
	strat, ok := strategiesFor(desc.Type)[n.Operator]
	if !ok {
		// Operator is known but not defined for this field type.
		return None()
	}
	return strat(storageField(n.Field), canonicalizeFilterValue(desc.Type, n.Value))
}

// storageField maps a registry field name to its predicate address:
// built-ins stay flat, user fields live under the data namespace.
func storageField(name string) string {
	if domain.IsBuiltin(name) {
		return name
	}
	return "data." + name
}

func canonicalizeFilterValue(t domain.FieldType, v any) any {
	if t.IsMultiselect() {
		return v
	}
	return domain.CanonicalizeValue(t, v)
}

// toValueList normalizes a filter value to a member list.
func toValueList(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

var knownOperators = map[string]bool{
	OperatorEq: true, OperatorNeq: true,
	OperatorIsNull: true, OperatorIsNotNull: true,
	OperatorLt: true, OperatorLte: true, OperatorGt: true, OperatorGte: true,
	OperatorStartsWith: true, OperatorEndsWith: true,
	OperatorContains: true, OperatorDoesNotContain: true,
	OperatorIsEmpty: true, OperatorIsNotEmpty: true,
}

// strategy builds the predicate for one (field type class, operator) cell.
type strategy func(field string, value any) *Predicate

// strategiesFor selects the comparison table for a field type. Combinations
// absent from the table are rejected at compile time (match nothing) rather
// than falling through to some default comparison.
func strategiesFor(t domain.FieldType) map[string]strategy {
	switch {
	case t.IsMultiselect():
		return multiselectStrategies
	case t.IsTemporal():
		return temporalStrategies
	default:
		return scalarStrategies
	}
}

var scalarStrategies = map[string]strategy{
	OperatorEq:        func(f string, v any) *Predicate { return Atom(f, OpEq, v) },
	OperatorNeq:       func(f string, v any) *Predicate { return Atom(f, OpNe, v) },
	OperatorIsNull:    func(f string, _ any) *Predicate { return Atom(f, OpNull, nil) },
	OperatorIsNotNull: func(f string, _ any) *Predicate { return Atom(f, OpNotNull, nil) },
	OperatorLt:        func(f string, v any) *Predicate { return Atom(f, OpLt, v) },
	OperatorLte:       func(f string, v any) *Predicate { return Atom(f, OpLte, v) },
	OperatorGt:        func(f string, v any) *Predicate { return Atom(f, OpGt, v) },
	OperatorGte:       func(f string, v any) *Predicate { return Atom(f, OpGte, v) },
	OperatorStartsWith: func(f string, v any) *Predicate {
		return Atom(f, OpStartsWith, v)
	},
	OperatorEndsWith: func(f string, v any) *Predicate {
		return Atom(f, OpEndsWith, v)
	},
	OperatorContains: func(f string, v any) *Predicate {
		return Atom(f, OpContainsText, v)
	},
	OperatorDoesNotContain: func(f string, v any) *Predicate {
		return Not(Atom(f, OpContainsText, v))
	},
	OperatorIsEmpty:    func(f string, _ any) *Predicate { return Atom(f, OpEmptyText, nil) },
	OperatorIsNotEmpty: func(f string, _ any) *Predicate { return Atom(f, OpNotEmptyText, nil) },
}

// Temporal fields order and test for presence; substring and emptiness
// operators have no meaning on timestamps.
var temporalStrategies = map[string]strategy{
	OperatorEq:        scalarStrategies[OperatorEq],
	OperatorNeq:       scalarStrategies[OperatorNeq],
	OperatorIsNull:    scalarStrategies[OperatorIsNull],
	OperatorIsNotNull: scalarStrategies[OperatorIsNotNull],
	OperatorLt:        scalarStrategies[OperatorLt],
	OperatorLte:       scalarStrategies[OperatorLte],
	OperatorGt:        scalarStrategies[OperatorGt],
	OperatorGte:       scalarStrategies[OperatorGte],
}

// Multiselect fields compare as sets: eq is exact set equality, contains is
// superset, doesnotcontain is disjointness. Ordering and substring
// operators have no meaning on sets.
var multiselectStrategies = map[string]strategy{
	OperatorEq: func(f string, v any) *Predicate {
		return AtomValues(f, OpSetEquals, toValueList(v))
	},
	OperatorNeq: func(f string, v any) *Predicate {
		return Not(AtomValues(f, OpSetEquals, toValueList(v)))
	},
	OperatorContains: func(f string, v any) *Predicate {
		return AtomValues(f, OpSetSuperset, toValueList(v))
	},
	OperatorDoesNotContain: func(f string, v any) *Predicate {
		return AtomValues(f, OpSetDisjoint, toValueList(v))
	},
	OperatorIsEmpty:    func(f string, _ any) *Predicate { return Atom(f, OpSetEmpty, nil) },
	OperatorIsNotEmpty: func(f string, _ any) *Predicate { return Atom(f, OpSetNotEmpty, nil) },
	OperatorIsNull:     scalarStrategies[OperatorIsNull],
	OperatorIsNotNull:  scalarStrategies[OperatorIsNotNull],
}
