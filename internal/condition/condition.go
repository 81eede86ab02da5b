// Package condition parses and evaluates JSON document conditions.
//
// A condition is a JSON object in the document store dialect, optionally
// wrapped in "$condition" or "$where":
//
//	{"$condition": {"$gt": {"rating": 3.7}}}
//	{"$where": {"$and": [{"$eq": {"status": "Promotion"}}, {"rating": {"$lt": 5}}]}}
//	{"author": "ann"}
//
// Predicates may be written operator-first ({"$op": {"field": value}}) or
// field-first ({"field": {"$op": value}}); a bare value means equality.
// Sibling keys are combined with AND. Field paths are dotted.
package condition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Operator is a comparison operator.
type Operator string

// Supported comparison operators.
const (
	OpEq      Operator = "$eq"
	OpNe      Operator = "$ne"
	OpGt      Operator = "$gt"
	OpGe      Operator = "$ge"
	OpLt      Operator = "$lt"
	OpLe      Operator = "$le"
	OpIn      Operator = "$in"
	OpNotIn   Operator = "$notin"
	OpExists  Operator = "$exists"
	OpLike    Operator = "$like"
	OpMatches Operator = "$matches"
)

// aliases maps accepted spellings to canonical operators.
var aliases = map[string]Operator{
	"$eq":      OpEq,
	"$ne":      OpNe,
	"$gt":      OpGt,
	"$ge":      OpGe,
	"$gte":     OpGe,
	"$lt":      OpLt,
	"$le":      OpLe,
	"$lte":     OpLe,
	"$in":      OpIn,
	"$notin":   OpNotIn,
	"$nin":     OpNotIn,
	"$exists":  OpExists,
	"$like":    OpLike,
	"$matches": OpMatches,
}

// Matcher reports whether a JSON document satisfies a condition.
type Matcher interface {
	Matches(doc []byte) bool
}

// All matches every document.
var All Matcher = &LogicalNode{Operator: "$and"}

// FieldNode is a single predicate on a field.
type FieldNode struct {
	Field    string
	Operator Operator
	Value    gjson.Result

	re *regexp.Regexp
}

// LogicalNode combines children with $and or $or.
type LogicalNode struct {
	Operator string
	Children []Matcher
}

// NotNode negates its child.
type NotNode struct {
	Child Matcher
}

// SyntaxError describes a condition that could not be parsed.
type SyntaxError struct {
	Condition string
	Reason    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid condition %q: %s", e.Condition, e.Reason)
}

// Parse compiles a condition. An empty or blank condition matches everything.
func Parse(src string) (Matcher, error) {
	if strings.TrimSpace(src) == "" {
		return All, nil
	}
	if !gjson.Valid(src) {
		return nil, &SyntaxError{Condition: src, Reason: "not valid JSON"}
	}

	root := gjson.Parse(src)
	if !root.IsObject() {
		return nil, &SyntaxError{Condition: src, Reason: "condition must be a JSON object"}
	}
	for _, wrapper := range []string{"$condition", "$where"} {
		if inner := root.Get(escapePath(wrapper)); inner.Exists() && len(root.Map()) == 1 {
			root = inner
			break
		}
	}

	m, err := parseObject(root)
	if err != nil {
		return nil, &SyntaxError{Condition: src, Reason: err.Error()}
	}
	return m, nil
}

func parseObject(obj gjson.Result) (Matcher, error) {
	if !obj.IsObject() {
		return nil, fmt.Errorf("expected object, got %s", obj.Type)
	}

	var nodes []Matcher
	var perr error
	obj.ForEach(func(key, val gjson.Result) bool {
		var parsed []Matcher
		parsed, perr = parseEntry(key.String(), val)
		nodes = append(nodes, parsed...)
		return perr == nil
	})
	if perr != nil {
		return nil, perr
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return &LogicalNode{Operator: "$and", Children: nodes}, nil
}

func parseEntry(key string, val gjson.Result) ([]Matcher, error) {
	switch key {
	case "$and", "$or":
		if !val.IsArray() {
			return nil, fmt.Errorf("value for %s must be a list", key)
		}
		var children []Matcher
		for _, item := range val.Array() {
			child, err := parseObject(item)
			if err != nil {
				return nil, fmt.Errorf("element of %s: %w", key, err)
			}
			children = append(children, child)
		}
		return []Matcher{&LogicalNode{Operator: key, Children: children}}, nil
	case "$not":
		child, err := parseObject(val)
		if err != nil {
			return nil, fmt.Errorf("$not: %w", err)
		}
		return []Matcher{&NotNode{Child: child}}, nil
	}

	if strings.HasPrefix(key, "$") {
		op, ok := aliases[key]
		if !ok {
			return nil, fmt.Errorf("unknown operator: %s", key)
		}
		if !val.IsObject() {
			return nil, fmt.Errorf("value for %s must be an object of field values", key)
		}
		var nodes []Matcher
		var ferr error
		val.ForEach(func(field, v gjson.Result) bool {
			var n *FieldNode
			n, ferr = newFieldNode(field.String(), op, v)
			if ferr == nil {
				nodes = append(nodes, n)
			}
			return ferr == nil
		})
		return nodes, ferr
	}

	if isOperatorObject(val) {
		var nodes []Matcher
		var ferr error
		val.ForEach(func(opKey, v gjson.Result) bool {
			op, ok := aliases[opKey.String()]
			if !ok {
				ferr = fmt.Errorf("unknown operator: %s", opKey.String())
				return false
			}
			var n *FieldNode
			n, ferr = newFieldNode(key, op, v)
			if ferr == nil {
				nodes = append(nodes, n)
			}
			return ferr == nil
		})
		return nodes, ferr
	}

	n, err := newFieldNode(key, OpEq, val)
	if err != nil {
		return nil, err
	}
	return []Matcher{n}, nil
}

// isOperatorObject reports whether every key of an object value is an operator.
func isOperatorObject(val gjson.Result) bool {
	if !val.IsObject() {
		return false
	}
	seen := false
	all := true
	val.ForEach(func(k, _ gjson.Result) bool {
		seen = true
		if !strings.HasPrefix(k.String(), "$") {
			all = false
			return false
		}
		return true
	})
	return seen && all
}

func newFieldNode(field string, op Operator, val gjson.Result) (*FieldNode, error) {
	if field == "" {
		return nil, fmt.Errorf("empty field path")
	}
	n := &FieldNode{Field: field, Operator: op, Value: val}

	switch op {
	case OpIn, OpNotIn:
		if !val.IsArray() {
			return nil, fmt.Errorf("%s on %s needs a list", op, field)
		}
	case OpExists:
		if val.Type != gjson.True && val.Type != gjson.False {
			return nil, fmt.Errorf("%s on %s needs a boolean", op, field)
		}
	case OpLike:
		if val.Type != gjson.String {
			return nil, fmt.Errorf("%s on %s needs a string pattern", op, field)
		}
		n.re = regexp.MustCompile(likeToRegexp(val.String()))
	case OpMatches:
		if val.Type != gjson.String {
			return nil, fmt.Errorf("%s on %s needs a string pattern", op, field)
		}
		re, err := regexp.Compile("^(?:" + val.String() + ")$")
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", op, field, err)
		}
		n.re = re
	}
	return n, nil
}

// likeToRegexp translates a LIKE pattern (% and _ wildcards, \ escapes) to an anchored regexp.
func likeToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^(?s:")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(regexp.QuoteMeta(`\`))
	}
	b.WriteString(")$")
	return b.String()
}
