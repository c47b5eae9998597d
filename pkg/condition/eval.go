package condition

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

const hostPrefix = "host."

type exprNode interface {
	eval(ctx Context) (bool, error)
}

type exprOr struct {
	left  exprNode
	right exprNode
}

func (n exprOr) eval(ctx Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type exprAnd struct {
	left  exprNode
	right exprNode
}

func (n exprAnd) eval(ctx Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(ctx)
}

type exprNot struct {
	inner exprNode
}

func (n exprNot) eval(ctx Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind literalKind
	raw  string
}

type exprCompare struct {
	identifier string
	op         tokenKind
	literal    literal
}

func (n exprCompare) eval(ctx Context) (bool, error) {
	value, _ := lookup(ctx, n.identifier)

	var equal bool
	switch n.literal.kind {
	case litNull:
		equal = model.IsEmpty(value)
	case litBool:
		equal = coerceBool(value) == (n.literal.raw == "true")
	case litNumber:
		want, _ := strconv.ParseFloat(n.literal.raw, 64)
		got, ok := model.AsNumber(value)
		equal = ok && got == want
	default:
		equal = model.AsString(value) == n.literal.raw
	}

	if n.op == tokenNeq {
		return !equal, nil
	}
	return equal, nil
}

type exprTruthy struct {
	identifier string
}

func (n exprTruthy) eval(ctx Context) (bool, error) {
	value, ok := lookup(ctx, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

func lookup(ctx Context, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	if strings.HasPrefix(strings.ToLower(key), hostPrefix) {
		return lookupMap(ctx.Host, key[len(hostPrefix):])
	}
	return lookupMap(ctx.Values, key)
}

func lookupMap(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case model.Values:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case model.LocalizedText:
			next, ok := typed[model.NormalizeLocale(part)]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return !model.IsEmpty(value)
	}
}

func coerceBool(value any) bool {
	if s, ok := value.(string); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed
		}
	}
	return truthy(value)
}
