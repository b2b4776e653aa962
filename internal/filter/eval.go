package filter

import (
	"fmt"
	"strings"

	"formgrid/internal/domain"
)

// Matches evaluates a predicate against a record in memory. It mirrors the
// SQL translation in the storage adapter; the engine's tests and the
// in-process access checks on single-record operations rely on the two
// agreeing.
func Matches(p *Predicate, rec *domain.Record) bool {
	if p == nil {
		return true
	}
	switch p.Kind {
	case KindAll:
		return true
	case KindNone:
		return false
	case KindNot:
		return !Matches(p.Children[0], rec)
	case KindAnd:
		for _, c := range p.Children {
			if !Matches(c, rec) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range p.Children {
			if Matches(c, rec) {
				return true
			}
		}
		return false
	case KindAtom:
		return matchAtom(p, rec)
	}
	return false
}

// resolveField reads the addressed value off a record. The second return
// is false when the field is absent entirely.
func resolveField(field string, rec *domain.Record) (any, bool) {
	switch field {
	case "id":
		return rec.ID, true
	case "createdAt":
		return domain.FormatTimestamp(rec.CreatedAt), true
	case "modifiedAt":
		return domain.FormatTimestamp(rec.ModifiedAt), true
	case "archived":
		return rec.Archived, true
	}
	name := strings.TrimPrefix(field, "data.")
	v, ok := rec.Data[name]
	return v, ok
}

func matchAtom(p *Predicate, rec *domain.Record) bool {
	v, present := resolveField(p.Field, rec)

	switch p.Op {
	case OpEq:
		return present && v != nil && equalValues(v, p.Value)
	case OpNe:
		return !(present && v != nil && equalValues(v, p.Value))
	case OpLt:
		c, ok := compareValues(v, p.Value)
		return present && ok && c < 0
	case OpLte:
		c, ok := compareValues(v, p.Value)
		return present && ok && c <= 0
	case OpGt:
		c, ok := compareValues(v, p.Value)
		return present && ok && c > 0
	case OpGte:
		c, ok := compareValues(v, p.Value)
		return present && ok && c >= 0
	case OpIn:
		if !present || v == nil {
			return false
		}
		for _, want := range p.Values {
			if equalValues(v, want) {
				return true
			}
		}
		return false
	case OpStartsWith:
		return present && v != nil && strings.HasPrefix(foldText(v), foldText(p.Value))
	case OpEndsWith:
		return present && v != nil && strings.HasSuffix(foldText(v), foldText(p.Value))
	case OpContainsText:
		return present && v != nil && strings.Contains(foldText(v), foldText(p.Value))
	case OpNull:
		return !present || v == nil
	case OpNotNull:
		return present && v != nil
	case OpEmptyText:
		return present && v == ""
	case OpNotEmptyText:
		return present && v != nil && v != ""
	case OpSetEquals:
		set, ok := asSet(v)
		return present && ok && setEquals(set, p.Values)
	case OpSetSuperset:
		return containsAll(memberRows(v, present), p.Values)
	case OpSetDisjoint:
		return disjoint(memberRows(v, present), p.Values)
	case OpSetEmpty:
		if !present || v == nil {
			return true
		}
		set, ok := asSet(v)
		return ok && len(set) == 0
	case OpSetNotEmpty:
		set, ok := asSet(v)
		return present && ok && len(set) > 0
	}
	return false
}

// equalValues compares loosely across JSON scalar representations: numbers
// compare numerically regardless of concrete type, everything else by
// canonical text.
func equalValues(a, b any) bool {
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			return af == bf
		}
		return false
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ab == bb
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValues orders two scalars: numerically when both are numbers,
// textually otherwise. Returns ok=false when either side is nil.
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func foldText(v any) string {
	return strings.ToLower(fmt.Sprint(v))
}

// memberRows expands a stored value into the rows containment operators
// iterate: an array yields its elements, an absent or null field yields
// nothing, and a scalar yields itself as a one-element set.
func memberRows(v any, present bool) []any {
	if !present || v == nil {
		return nil
	}
	if set, ok := asSet(v); ok {
		return set
	}
	return []any{v}
}

func asSet(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// setEquals checks length plus membership, not multiset equality, so a
// wanted list with duplicates can match a stored array of the same length
// whose members cover the distinct values. Duplicate wanted values are a
// caller error; the SQL translation resolves them the same way.
func setEquals(stored, want []any) bool {
	return len(stored) == len(want) && containsAll(stored, want)
}

func containsAll(stored, want []any) bool {
	for _, w := range want {
		found := false
		for _, s := range stored {
			if equalValues(s, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func disjoint(stored, want []any) bool {
	for _, s := range stored {
		for _, w := range want {
			if equalValues(s, w) {
				return false
			}
		}
	}
	return true
}
