// Package condition evaluates the small boolean expressions used to make
// field requirements depend on other form values or the host context.
//
// Supported forms:
//   - truthiness: `editMode`, `!notes`
//   - comparisons: `ownershipType == "MOE"`, `seatingCapacity != 0`
//   - composition: `a == "x" && (b || !c)`
//
// Identifiers resolve against Context.Values (with dot-path traversal) and,
// through the `host.` prefix, against Context.Host. Selected option lists
// compare on the key of their first option.
package condition

import (
	"errors"
	"strings"
)

// ErrEmptyExpression is returned when Compile is given a blank expression.
var ErrEmptyExpression = errors.New("condition: empty expression")

// Context provides the inputs an expression is evaluated against.
type Context struct {
	Values map[string]any
	Host   map[string]any
}

// Expr is a compiled expression.
type Expr struct {
	source string
	root   exprNode
}

// Compile parses source into an Expr.
func Compile(source string) (*Expr, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, ErrEmptyExpression
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	return &Expr{source: trimmed, root: root}, nil
}

// MustCompile is like Compile but panics on error. Intended for static form
// definitions.
func MustCompile(source string) *Expr {
	expr, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return expr
}

// String returns the source expression.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// Eval evaluates the expression. A nil Expr is always true.
func (e *Expr) Eval(ctx Context) (bool, error) {
	if e == nil || e.root == nil {
		return true, nil
	}
	return e.root.eval(ctx)
}

// Eval compiles and evaluates source. Blank expressions evaluate to true.
func Eval(source string, ctx Context) (bool, error) {
	if strings.TrimSpace(source) == "" {
		return true, nil
	}
	expr, err := Compile(source)
	if err != nil {
		return false, err
	}
	return expr.Eval(ctx)
}
