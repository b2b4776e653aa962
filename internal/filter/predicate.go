// Package filter implements the record filter language: the client-facing
// filter tree, its compilation against a field registry, and the resulting
// storage-agnostic predicate.
package filter

// Kind discriminates predicate tree nodes.
type Kind int

const (
	// KindAtom is a single field comparison.
	KindAtom Kind = iota
	// KindAnd matches when every child matches.
	KindAnd
	// KindOr matches when at least one child matches.
	KindOr
	// KindNot inverts its single child.
	KindNot
	// KindAll matches every record (identity).
	KindAll
	// KindNone matches no record (contradiction).
	KindNone
)

// Op is the comparison performed by an atom.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpStartsWith
	OpEndsWith
	OpContainsText
	OpNull
	OpNotNull
	OpEmptyText
	OpNotEmptyText
	OpSetEquals
	OpSetSuperset
	OpSetDisjoint
	OpSetEmpty
	OpSetNotEmpty
)

// Predicate is a compiled, storage-agnostic condition over record fields.
// Callers treat it as opaque apart from combination via And/Or/Not; storage
// adapters translate it into their native query representation.
//
// Atom Field addressing: built-in fields use their flat storage names
// ("id", "createdAt", "modifiedAt", "archived"); user-defined fields are
// namespaced as "data.<name>".
type Predicate struct {
	Kind     Kind
	Children []*Predicate // KindAnd, KindOr; Children[0] for KindNot
	Field    string       // KindAtom
	Op       Op           // KindAtom
	Value    any          // scalar comparisons
	Values   []any        // OpIn and set comparisons
}

// All returns the identity predicate.
func All() *Predicate { return &Predicate{Kind: KindAll} }

// None returns the contradiction predicate.
func None() *Predicate { return &Predicate{Kind: KindNone} }

// Atom builds a scalar comparison atom.
func Atom(field string, op Op, value any) *Predicate {
	return &Predicate{Kind: KindAtom, Field: field, Op: op, Value: value}
}

// AtomValues builds a membership or set comparison atom.
func AtomValues(field string, op Op, values []any) *Predicate {
	return &Predicate{Kind: KindAtom, Field: field, Op: op, Values: values}
}

// Not inverts a predicate.
func Not(p *Predicate) *Predicate {
	switch p.Kind {
	case KindAll:
		return None()
	case KindNone:
		return All()
	}
	return &Predicate{Kind: KindNot, Children: []*Predicate{p}}
}

// And combines predicates conjunctively. Nil and identity operands are
// dropped; a contradiction operand collapses the whole conjunction.
func And(ps ...*Predicate) *Predicate {
	kept := make([]*Predicate, 0, len(ps))
	for _, p := range ps {
		if p == nil || p.Kind == KindAll {
			continue
		}
		if p.Kind == KindNone {
			return None()
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return All()
	case 1:
		return kept[0]
	}
	return &Predicate{Kind: KindAnd, Children: kept}
}

// Or combines predicates disjunctively. Nil and contradiction operands are
// dropped; an identity operand collapses the whole disjunction. An empty
// disjunction is a contradiction, never silently widened.
func Or(ps ...*Predicate) *Predicate {
	kept := make([]*Predicate, 0, len(ps))
	for _, p := range ps {
		if p == nil || p.Kind == KindNone {
			continue
		}
		if p.Kind == KindAll {
			return All()
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return None()
	case 1:
		return kept[0]
	}
	return &Predicate{Kind: KindOr, Children: kept}
}
