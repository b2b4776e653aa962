package filter

import (
	"encoding/json"
	"strings"
)

// Filter operators, as they appear on the wire.
const (
	OperatorEq             = "eq"
	OperatorNeq            = "neq"
	OperatorIsNull         = "isnull"
	OperatorIsNotNull      = "isnotnull"
	OperatorLt             = "lt"
	OperatorLte            = "lte"
	OperatorGt             = "gt"
	OperatorGte            = "gte"
	OperatorStartsWith     = "startswith"
	OperatorEndsWith       = "endswith"
	OperatorContains       = "contains"
	OperatorDoesNotContain = "doesnotcontain"
	OperatorIsEmpty        = "isempty"
	OperatorIsNotEmpty     = "isnotempty"
)

// FieldIDs is the reserved leaf field selecting records by identifier list,
// bypassing the registry.
const FieldIDs = "ids"

// Node is one node of a client-supplied filter tree: either a group
// ({logic, filters}) or a leaf ({field, operator, value}). A node carrying
// filters or a logic value is treated as a group; everything else is a leaf.
type Node struct {
	Logic   string `json:"logic,omitempty"`
	Filters []Node `json:"filters,omitempty"`

	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// IsGroup reports whether the node is a group node.
func (n Node) IsGroup() bool {
	return n.Filters != nil || n.Logic != ""
}

// IsZero reports whether the node carries nothing at all (e.g. an absent
// filter in a request body).
func (n Node) IsZero() bool {
	return !n.IsGroup() && n.Field == "" && n.Operator == "" && n.Value == nil
}

// ParseNode decodes a filter tree from its JSON wire form.
func ParseNode(raw []byte) (Node, error) {
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return Node{}, err
	}
	return n, nil
}

func (n Node) logicOr() bool {
	return strings.EqualFold(n.Logic, "or")
}

func (n Node) logicAnd() bool {
	return strings.EqualFold(n.Logic, "and")
}
