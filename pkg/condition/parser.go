package condition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	return isSpace(ch) || ch == '(' || ch == ')' || ch == '!' || ch == '=' || ch == '&' || ch == '|'
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}

	for i < len(input) {
		ch := input[i]
		if isSpace(ch) {
			i++
			continue
		}

		switch ch {
		case '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
		case ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
		case '!':
			if peek(1) == '=' {
				i += 2
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			i++
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
		case '=':
			if peek(1) != '=' {
				return nil, fmt.Errorf("condition: unexpected '=' at %d; use '=='", i)
			}
			i += 2
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
		case '&':
			if peek(1) != '&' {
				return nil, fmt.Errorf("condition: unexpected '&' at %d; use '&&'", i)
			}
			i += 2
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
		case '|':
			if peek(1) != '|' {
				return nil, fmt.Errorf("condition: unexpected '|' at %d; use '||'", i)
			}
			i += 2
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
		case '"', '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			i = next
			tokens = append(tokens, token{kind: tokenString, raw: value})
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}
	return tokens, nil
}

// readString reads a quoted literal starting at input[start] and returns the
// unquoted value plus the index after the closing quote.
func readString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("condition: invalid string literal: %w", err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("condition: unterminated string literal")
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	if ch == '-' || ch == '+' {
		if len(raw) == 1 {
			return false
		}
		ch = raw[1]
	}
	return ch >= '0' && ch <= '9'
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyExpression
	}
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("condition: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("condition: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("condition: unexpected end of expression")
		}
		return nil, fmt.Errorf("condition: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for _, op := range []tokenKind{tokenEq, tokenNeq} {
		if stream.match(op) {
			lit, err := stream.consumeLiteral()
			if err != nil {
				return nil, err
			}
			return exprCompare{identifier: ident.raw, op: op, literal: lit}, nil
		}
	}
	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	_, ok := s.consume(kind)
	return ok
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("condition: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString, tokenIdentifier:
		// bare words on the right-hand side are option keys
		return literal{kind: litString, raw: tok.raw}, nil
	case tokenNumber:
		if _, err := strconv.ParseFloat(tok.raw, 64); err != nil {
			return literal{}, fmt.Errorf("condition: invalid number literal %q", tok.raw)
		}
		return literal{kind: litNumber, raw: tok.raw}, nil
	case tokenBool:
		return literal{kind: litBool, raw: tok.raw}, nil
	case tokenNull:
		return literal{kind: litNull, raw: "null"}, nil
	default:
		return literal{}, fmt.Errorf("condition: expected literal, got %q", tok.raw)
	}
}
