package compare

import (
	"strconv"
	"strings"

	"github.com/hlop3z/schemaver/internal/schema"
)

// exprAliases maps normalized spellings that databases use interchangeably.
var exprAliases = map[string]string{
	"now()":               "current_timestamp",
	"current_timestamp()": "current_timestamp",
	"localtimestamp":      "current_timestamp",
	"true":                "1",
	"false":               "0",
}

// ExprEqual reports whether two server-side expressions are equivalent.
// Both absent is equal; exactly one absent is not.
func ExprEqual(a, b *schema.Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return NormalizeExpr(a.SQL) == NormalizeExpr(b.SQL)
}

// NormalizeExpr canonicalizes a default expression as reported by different
// catalogs: surrounding whitespace and wrapping parentheses are removed,
// "::type" casts are dropped, text outside string literals is lower-cased
// and its whitespace collapsed. Quoted numeric literals are unquoted.
func NormalizeExpr(expr string) string {
	s := stripParens(strings.TrimSpace(expr))

	var b strings.Builder
	inLiteral := false
	pendingSpace := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inLiteral {
			b.WriteByte(c)
			if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i++
				} else {
					inLiteral = false
				}
			}
			continue
		}

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pendingSpace = b.Len() > 0
			continue
		case c == ':' && i+1 < len(s) && s[i+1] == ':':
			i = skipCast(s, i+2) - 1
			continue
		}

		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		if c == '\'' {
			inLiteral = true
			b.WriteByte(c)
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}

	out := stripParens(b.String())
	if unq, ok := unquoteNumber(out); ok {
		out = unq
	}
	if alias, ok := exprAliases[out]; ok {
		out = alias
	}
	return out
}

// skipCast returns the index just past a type name starting at i,
// including multi-word names and a parenthesized modifier.
func skipCast(s string, i int) int {
	for i < len(s) {
		c := s[i]
		switch {
		case c == '(':
			depth := 0
			for i < len(s) {
				if s[i] == '(' {
					depth++
				} else if s[i] == ')' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
		case isTypeChar(c):
			i++
		case c == ' ' && i+1 < len(s) && isTypeChar(s[i+1]):
			i++
		default:
			return i
		}
	}
	return i
}

func isTypeChar(c byte) bool {
	return c == '_' || c == '.' || c == '"' || c == '[' || c == ']' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// stripParens removes parentheses that wrap the entire expression.
func stripParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && wrapsWhole(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// wrapsWhole reports whether the opening parenthesis at s[0] closes at the last byte.
func wrapsWhole(s string) bool {
	depth := 0
	inLiteral := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inLiteral = !inLiteral
		case inLiteral:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func unquoteNumber(s string) (string, bool) {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	inner := s[1 : len(s)-1]
	if _, err := strconv.ParseFloat(inner, 64); err != nil {
		return "", false
	}
	return inner, true
}
