// Package lambda turns channel lambdas such as "d => d * 2" into callable
// functions.
//
// A lambda string is split on its first "=>" into a parameter and a body.
// A body that is neither a block nor a return statement is wrapped as
// "return <body>". The result is parsed with tree-sitter's JavaScript
// grammar and compiled into Go closures.
//
// Compiled functions run in a sandbox. They can read their parameter,
// their own const/let bindings, and a fixed set of ambient globals (Math,
// Number, String, Boolean, isNaN, isFinite, parseFloat, parseInt, NaN,
// Infinity). There are no loops, no object construction and no way to
// reach the host process, so every call completes in time bounded by the
// size of the source.
//
// Values follow JavaScript's primitive model: float64 numbers, strings,
// bools, Null and undefined (nil).
package lambda

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gogpu/scatter/internal/cache"
)

// Errors returned by the package.
var (
	// ErrMalformed is returned when a lambda cannot be split into a
	// parameter and a body, or the body does not compile.
	ErrMalformed = errors.New("lambda: malformed lambda")

	// ErrEval is returned when a compiled lambda fails at run time, for
	// example by calling a string method on a number.
	ErrEval = errors.New("lambda: evaluation failed")

	// ErrNotCallable is returned by Materialize for values that are
	// neither strings nor supported function types.
	ErrNotCallable = errors.New("lambda: value is not callable")
)

// MalformedError describes a lambda that failed to compile.
type MalformedError struct {
	Source string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("lambda: malformed lambda %q: %s", e.Source, e.Reason)
}

// Is makes errors.Is(err, ErrMalformed) hold for every MalformedError.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(src, format string, args ...any) error {
	return &MalformedError{Source: src, Reason: fmt.Sprintf(format, args...)}
}

// Func is a materialized channel function. d is a float64 for numeric
// fields and a string label for dictionary fields.
type Func func(d any) (any, error)

// compiled memoizes compiled lambdas by source text.
var compiled = cache.New[string, Func](256)

// Materialize returns a callable for raw. A Func is returned unchanged;
// plain Go functions of the common shapes are adapted; strings are
// compiled.
func Materialize(raw any) (Func, error) {
	switch f := raw.(type) {
	case Func:
		return f, nil
	case func(any) (any, error):
		return f, nil
	case func(any) any:
		return func(d any) (any, error) { return f(d), nil }, nil
	case func(float64) float64:
		return func(d any) (any, error) { return f(ToNumber(d)), nil }, nil
	case func(string) float64:
		return func(d any) (any, error) { return f(ToString(d)), nil }, nil
	case string:
		return Compile(f)
	}
	return nil, fmt.Errorf("%w: %T", ErrNotCallable, raw)
}

// Compile compiles a lambda string. Results are memoized by source.
func Compile(src string) (Func, error) {
	return compiled.GetOrCreate(src, func() (Func, error) {
		return compile(src)
	})
}

// CacheStats reports hit and miss counts of the compiled-lambda memo.
func CacheStats() cache.Stats {
	return compiled.Stats()
}

// Split separates a lambda into its parameter name and body. The body is
// returned with an implicit "return " prepended when it is neither a
// block nor already a return statement.
func Split(src string) (param, body string, err error) {
	i := strings.Index(src, "=>")
	if i < 0 {
		return "", "", malformed(src, "missing =>")
	}

	param = strings.TrimSpace(src[:i])
	if strings.HasPrefix(param, "(") && strings.HasSuffix(param, ")") {
		param = strings.TrimSpace(param[1 : len(param)-1])
	}
	if !isIdentifier(param) {
		return "", "", malformed(src, "parameter %q is not an identifier", param)
	}

	body = strings.TrimSpace(src[i+len("=>"):])
	if body == "" {
		return "", "", malformed(src, "empty body")
	}
	if !strings.HasPrefix(body, "{") && !hasReturn(body) {
		body = "return " + body
	}
	return param, body, nil
}

func hasReturn(body string) bool {
	rest, ok := strings.CutPrefix(body, "return")
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	r := rune(rest[0])
	return !(r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isIdentifier(s string) bool {
	if s == "" || reserved[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "let": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
}
