package condition

import (
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// Matches evaluates the predicate against doc. Missing fields only satisfy
// $ne, $notin and {"$exists": false}.
func (n *FieldNode) Matches(doc []byte) bool {
	actual := gjson.GetBytes(doc, escapePath(n.Field))

	switch n.Operator {
	case OpExists:
		return actual.Exists() == n.Value.Bool()
	case OpNe:
		return !actual.Exists() || !equal(actual, n.Value)
	case OpNotIn:
		return !actual.Exists() || !in(actual, n.Value)
	}

	if !actual.Exists() {
		return false
	}

	switch n.Operator {
	case OpEq:
		return equal(actual, n.Value)
	case OpIn:
		return in(actual, n.Value)
	case OpGt:
		c, ok := compare(actual, n.Value)
		return ok && c > 0
	case OpGe:
		c, ok := compare(actual, n.Value)
		return ok && c >= 0
	case OpLt:
		c, ok := compare(actual, n.Value)
		return ok && c < 0
	case OpLe:
		c, ok := compare(actual, n.Value)
		return ok && c <= 0
	case OpLike, OpMatches:
		return actual.Type == gjson.String && n.re.MatchString(actual.String())
	}
	return false
}

// Matches evaluates the children with short-circuiting.
func (n *LogicalNode) Matches(doc []byte) bool {
	if n.Operator == "$or" {
		for _, child := range n.Children {
			if child.Matches(doc) {
				return true
			}
		}
		return false
	}
	for _, child := range n.Children {
		if !child.Matches(doc) {
			return false
		}
	}
	return true
}

// Matches negates the child result.
func (n *NotNode) Matches(doc []byte) bool {
	return !n.Child.Matches(doc)
}

func in(actual, list gjson.Result) bool {
	for _, candidate := range list.Array() {
		if equal(actual, candidate) {
			return true
		}
	}
	return false
}

func equal(a, b gjson.Result) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case gjson.Number:
		return a.Float() == b.Float()
	case gjson.String:
		return a.Str == b.Str
	case gjson.True, gjson.False, gjson.Null:
		return true
	default:
		return reflect.DeepEqual(a.Value(), b.Value())
	}
}

// compare orders two values of the same scalar type. ok is false for
// mismatched or unordered types.
func compare(a, b gjson.Result) (c int, ok bool) {
	if a.Type != b.Type {
		return 0, false
	}
	switch a.Type {
	case gjson.Number:
		af, bf := a.Float(), b.Float()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	case gjson.String:
		return strings.Compare(a.Str, b.Str), true
	}
	return 0, false
}

// escapePath turns a dotted field path into a gjson path, escaping the
// characters gjson treats as wildcards or modifiers.
func escapePath(field string) string {
	var b strings.Builder
	for _, r := range field {
		switch r {
		case '*', '?', '#', '@', '|', '!', '=', '<', '>', '%', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Path converts a dotted field path to the gjson path that reads it.
func Path(field string) string {
	return escapePath(field)
}
