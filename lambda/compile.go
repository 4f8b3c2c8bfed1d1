package lambda

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// wrapperName names the function declaration the body is compiled inside.
const wrapperName = "__lambda"

// env holds the variable slots of one call. Slot 0 is the parameter.
type env struct {
	slots []any
}

type (
	exprFn func(*env) (any, error)
	stmtFn func(*env) (done bool, ret any, err error)
)

// binding is a compile-time variable.
type binding struct {
	slot     int
	constant bool
}

type scope struct {
	names  map[string]binding
	parent *scope
}

func (s *scope) lookup(name string) (binding, bool) {
	for ; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// compiler walks a tree-sitter tree and emits closures. The closures
// capture only plain Go values, never tree nodes, so the tree can be
// released once compilation finishes.
type compiler struct {
	src    string // lambda as written, for error messages
	code   []byte // wrapped program handed to the parser
	scope  *scope
	nslots int
}

func compile(src string) (Func, error) {
	param, body, err := Split(src)
	if err != nil {
		return nil, err
	}

	var prog string
	if strings.HasPrefix(body, "{") {
		prog = "function " + wrapperName + "(" + param + ") " + body
	} else {
		prog = "function " + wrapperName + "(" + param + ") {\n" + body + "\n}"
	}
	code := []byte(prog)

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return nil, malformed(src, "parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, malformed(src, "syntax error")
	}
	decl := onlyStatement(root)
	if decl == nil || decl.Type() != "function_declaration" {
		return nil, malformed(src, "unexpected input after body")
	}

	c := &compiler{
		src:    src,
		code:   code,
		scope:  &scope{names: map[string]binding{param: {slot: 0}}},
		nslots: 1,
	}
	block, err := c.block(decl.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}

	nslots := c.nslots
	return func(d any) (any, error) {
		e := &env{slots: make([]any, nslots)}
		e.slots[0] = normalize(d)
		_, ret, err := block(e)
		return ret, err
	}, nil
}

// onlyStatement returns the single non-comment child of the program.
func onlyStatement(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	for _, n := range namedChildren(root) {
		if found != nil {
			return nil
		}
		found = n
	}
	return found
}

// namedChildren lists n's named children, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *compiler) text(n *sitter.Node) string {
	return n.Content(c.code)
}

func (c *compiler) unsupported(n *sitter.Node) error {
	return malformed(c.src, "unsupported syntax %s %q", n.Type(), c.text(n))
}

func (c *compiler) declare(name string, constant bool) (int, error) {
	if _, ok := c.scope.names[name]; ok {
		return 0, malformed(c.src, "%q is already declared", name)
	}
	slot := c.nslots
	c.nslots++
	c.scope.names[name] = binding{slot: slot, constant: constant}
	return slot, nil
}

// Statements.

func (c *compiler) block(n *sitter.Node) (stmtFn, error) {
	if n == nil || n.Type() != "statement_block" {
		return nil, malformed(c.src, "missing body")
	}
	c.scope = &scope{names: map[string]binding{}, parent: c.scope}
	defer func() { c.scope = c.scope.parent }()

	var stmts []stmtFn
	for _, child := range namedChildren(n) {
		s, err := c.stmt(child)
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return func(e *env) (bool, any, error) {
		for _, s := range stmts {
			if done, ret, err := s(e); done || err != nil {
				return done, ret, err
			}
		}
		return false, nil, nil
	}, nil
}

func (c *compiler) stmt(n *sitter.Node) (stmtFn, error) {
	switch n.Type() {
	case "statement_block":
		return c.block(n)

	case "empty_statement":
		return nil, nil

	case "return_statement":
		args := namedChildren(n)
		if len(args) == 0 {
			return func(*env) (bool, any, error) { return true, nil, nil }, nil
		}
		x, err := c.expr(args[0])
		if err != nil {
			return nil, err
		}
		return func(e *env) (bool, any, error) {
			v, err := x(e)
			return true, v, err
		}, nil

	case "expression_statement":
		args := namedChildren(n)
		if len(args) != 1 {
			return nil, c.unsupported(n)
		}
		x, err := c.expr(args[0])
		if err != nil {
			return nil, err
		}
		return func(e *env) (bool, any, error) {
			_, err := x(e)
			return false, nil, err
		}, nil

	case "if_statement":
		return c.ifStmt(n)

	case "lexical_declaration", "variable_declaration":
		return c.declaration(n)
	}
	return nil, c.unsupported(n)
}

func (c *compiler) ifStmt(n *sitter.Node) (stmtFn, error) {
	cond, err := c.expr(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	then, err := c.stmt(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	var alt stmtFn
	if clause := n.ChildByFieldName("alternative"); clause != nil {
		body := namedChildren(clause)
		if len(body) != 1 {
			return nil, c.unsupported(clause)
		}
		if alt, err = c.stmt(body[0]); err != nil {
			return nil, err
		}
	}
	return func(e *env) (bool, any, error) {
		v, err := cond(e)
		if err != nil {
			return false, nil, err
		}
		switch {
		case Truthy(v) && then != nil:
			return then(e)
		case !Truthy(v) && alt != nil:
			return alt(e)
		}
		return false, nil, nil
	}, nil
}

func (c *compiler) declaration(n *sitter.Node) (stmtFn, error) {
	constant := n.Child(0) != nil && n.Child(0).Type() == "const"

	type init struct {
		slot int
		x    exprFn
	}
	var inits []init
	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			return nil, c.unsupported(d)
		}
		name := d.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			return nil, c.unsupported(d)
		}
		var x exprFn
		if value := d.ChildByFieldName("value"); value != nil {
			var err error
			if x, err = c.expr(value); err != nil {
				return nil, err
			}
		} else if constant {
			return nil, malformed(c.src, "const %q has no initializer", c.text(name))
		}
		// Declare after compiling the initializer so "const x = x" fails.
		slot, err := c.declare(c.text(name), constant)
		if err != nil {
			return nil, err
		}
		inits = append(inits, init{slot: slot, x: x})
	}
	return func(e *env) (bool, any, error) {
		for _, in := range inits {
			var v any
			if in.x != nil {
				var err error
				if v, err = in.x(e); err != nil {
					return false, nil, err
				}
			}
			e.slots[in.slot] = v
		}
		return false, nil, nil
	}, nil
}

// Expressions.

func (c *compiler) expr(n *sitter.Node) (exprFn, error) {
	if n == nil {
		return nil, malformed(c.src, "missing expression")
	}
	switch n.Type() {
	case "number":
		v, err := parseNumberLiteral(c.text(n))
		if err != nil {
			return nil, malformed(c.src, "bad number %q", c.text(n))
		}
		return constExpr(v), nil

	case "string":
		return constExpr(c.stringLiteral(n)), nil

	case "true":
		return constExpr(true), nil
	case "false":
		return constExpr(false), nil
	case "null":
		return constExpr(Null), nil
	case "undefined":
		return constExpr(nil), nil

	case "identifier":
		return c.identifier(n)

	case "parenthesized_expression":
		inner := namedChildren(n)
		if len(inner) != 1 {
			return nil, c.unsupported(n)
		}
		return c.expr(inner[0])

	case "unary_expression":
		return c.unary(n)

	case "binary_expression":
		return c.binary(n)

	case "ternary_expression":
		return c.ternary(n)

	case "member_expression":
		return c.member(n)

	case "subscript_expression":
		return c.subscript(n)

	case "call_expression":
		return c.call(n)

	case "assignment_expression", "augmented_assignment_expression":
		return c.assignment(n)
	}
	return nil, c.unsupported(n)
}

func constExpr(v any) exprFn {
	return func(*env) (any, error) { return v, nil }
}

func parseNumberLiteral(s string) (float64, error) {
	s = strings.ReplaceAll(s, "_", "")
	if len(s) > 1 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		n, err := strconv.ParseUint(s, 0, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(strings.TrimSuffix(s, "n"), 64)
}

func (c *compiler) stringLiteral(n *sitter.Node) string {
	var sb strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		part := n.NamedChild(i)
		switch part.Type() {
		case "string_fragment":
			sb.WriteString(c.text(part))
		case "escape_sequence":
			sb.WriteString(decodeEscape(c.text(part)))
		}
	}
	return sb.String()
}

func (c *compiler) identifier(n *sitter.Node) (exprFn, error) {
	name := c.text(n)
	if b, ok := c.scope.lookup(name); ok {
		slot := b.slot
		return func(e *env) (any, error) { return e.slots[slot], nil }, nil
	}
	switch name {
	case "NaN":
		return constExpr(math.NaN()), nil
	case "Infinity":
		return constExpr(math.Inf(1)), nil
	case "undefined":
		return constExpr(nil), nil
	}
	return nil, malformed(c.src, "unknown identifier %q", name)
}

func (c *compiler) unary(n *sitter.Node) (exprFn, error) {
	op := n.ChildByFieldName("operator")
	arg, err := c.expr(n.ChildByFieldName("argument"))
	if err != nil || op == nil {
		return nil, firstErr(err, c.unsupported(n))
	}
	var f func(any) any
	switch op.Type() {
	case "!":
		f = func(v any) any { return !Truthy(v) }
	case "-":
		f = func(v any) any { return -ToNumber(v) }
	case "+":
		f = func(v any) any { return ToNumber(v) }
	case "typeof":
		f = func(v any) any { return typeOf(v) }
	case "void":
		f = func(any) any { return nil }
	default:
		return nil, c.unsupported(n)
	}
	return func(e *env) (any, error) {
		v, err := arg(e)
		if err != nil {
			return nil, err
		}
		return f(v), nil
	}, nil
}

func (c *compiler) binary(n *sitter.Node) (exprFn, error) {
	opNode := n.ChildByFieldName("operator")
	if opNode == nil {
		return nil, c.unsupported(n)
	}
	left, err := c.expr(n.ChildByFieldName("left"))
	if err != nil {
		return nil, err
	}
	right, err := c.expr(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}

	op := opNode.Type()
	switch op {
	case "&&", "||", "??":
		return logical(op, left, right), nil
	}
	f, ok := binaryOps[op]
	if !ok {
		return nil, c.unsupported(n)
	}
	return func(e *env) (any, error) {
		a, err := left(e)
		if err != nil {
			return nil, err
		}
		b, err := right(e)
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}, nil
}

func logical(op string, left, right exprFn) exprFn {
	return func(e *env) (any, error) {
		a, err := left(e)
		if err != nil {
			return nil, err
		}
		switch op {
		case "&&":
			if !Truthy(a) {
				return a, nil
			}
		case "||":
			if Truthy(a) {
				return a, nil
			}
		case "??":
			if !isNullish(a) {
				return a, nil
			}
		}
		return right(e)
	}
}

var binaryOps = map[string]func(a, b any) any{
	"+": add,
	"-": func(a, b any) any { return ToNumber(a) - ToNumber(b) },
	"*": func(a, b any) any { return ToNumber(a) * ToNumber(b) },
	"/": func(a, b any) any { return ToNumber(a) / ToNumber(b) },
	"%": func(a, b any) any { return math.Mod(ToNumber(a), ToNumber(b)) },
	"**": func(a, b any) any {
		return math.Pow(ToNumber(a), ToNumber(b))
	},
	"==":  func(a, b any) any { return looseEqual(a, b) },
	"!=":  func(a, b any) any { return !looseEqual(a, b) },
	"===": func(a, b any) any { return strictEqual(a, b) },
	"!==": func(a, b any) any { return !strictEqual(a, b) },
	"<": func(a, b any) any {
		lt, _ := less(a, b)
		return lt
	},
	">": func(a, b any) any {
		gt, _ := less(b, a)
		return gt
	},
	"<=": func(a, b any) any {
		gt, ok := less(b, a)
		return ok && !gt
	},
	">=": func(a, b any) any {
		lt, ok := less(a, b)
		return ok && !lt
	},
}

func add(a, b any) any {
	_, as := a.(string)
	_, bs := b.(string)
	if as || bs {
		return ToString(a) + ToString(b)
	}
	return ToNumber(a) + ToNumber(b)
}

func (c *compiler) ternary(n *sitter.Node) (exprFn, error) {
	cond, err := c.expr(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	then, err := c.expr(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	alt, err := c.expr(n.ChildByFieldName("alternative"))
	if err != nil {
		return nil, err
	}
	return func(e *env) (any, error) {
		v, err := cond(e)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			return then(e)
		}
		return alt(e)
	}, nil
}

func (c *compiler) member(n *sitter.Node) (exprFn, error) {
	obj := n.ChildByFieldName("object")
	prop := n.ChildByFieldName("property")
	if obj == nil || prop == nil || prop.Type() != "property_identifier" {
		return nil, c.unsupported(n)
	}
	name := c.text(prop)

	if ns, ok := c.namespace(obj); ok {
		v, ok := namespaceConstants[ns][name]
		if !ok {
			return nil, malformed(c.src, "unknown constant %s.%s", ns, name)
		}
		return constExpr(v), nil
	}

	x, err := c.expr(obj)
	if err != nil {
		return nil, err
	}
	return func(e *env) (any, error) {
		v, err := x(e)
		if err != nil {
			return nil, err
		}
		return property(v, name)
	}, nil
}

func (c *compiler) subscript(n *sitter.Node) (exprFn, error) {
	obj, err := c.expr(n.ChildByFieldName("object"))
	if err != nil {
		return nil, err
	}
	index, err := c.expr(n.ChildByFieldName("index"))
	if err != nil {
		return nil, err
	}
	return func(e *env) (any, error) {
		v, err := obj(e)
		if err != nil {
			return nil, err
		}
		i, err := index(e)
		if err != nil {
			return nil, err
		}
		if _, ok := i.(float64); ok {
			if s, ok := v.(string); ok {
				return charAt(s, ToNumber(i)), nil
			}
		}
		return property(v, ToString(i))
	}, nil
}

// namespace reports whether n names one of the ambient namespaces and is
// not shadowed by a local binding.
func (c *compiler) namespace(n *sitter.Node) (string, bool) {
	if n.Type() != "identifier" {
		return "", false
	}
	name := c.text(n)
	if _, local := c.scope.lookup(name); local {
		return "", false
	}
	_, ok := namespaceConstants[name]
	return name, ok
}

func (c *compiler) call(n *sitter.Node) (exprFn, error) {
	fn := n.ChildByFieldName("function")
	argList := n.ChildByFieldName("arguments")
	if fn == nil || argList == nil || argList.Type() != "arguments" {
		return nil, c.unsupported(n)
	}
	var args []exprFn
	for _, a := range namedChildren(argList) {
		x, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, x)
	}
	evalArgs := func(e *env) ([]any, error) {
		vals := make([]any, len(args))
		for i, a := range args {
			v, err := a(e)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil
	}

	switch fn.Type() {
	case "identifier":
		name := c.text(fn)
		if _, local := c.scope.lookup(name); local {
			return nil, malformed(c.src, "%q is not a function", name)
		}
		g, ok := globalFuncs[name]
		if !ok {
			return nil, malformed(c.src, "unknown function %q", name)
		}
		return func(e *env) (any, error) {
			vals, err := evalArgs(e)
			if err != nil {
				return nil, err
			}
			return g(vals), nil
		}, nil

	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || prop.Type() != "property_identifier" {
			return nil, c.unsupported(n)
		}
		name := c.text(prop)

		if ns, ok := c.namespace(obj); ok {
			g, ok := namespaceFuncs[ns][name]
			if !ok {
				return nil, malformed(c.src, "unknown function %s.%s", ns, name)
			}
			return func(e *env) (any, error) {
				vals, err := evalArgs(e)
				if err != nil {
					return nil, err
				}
				return g(vals), nil
			}, nil
		}

		m, ok := stringMethods[name]
		if !ok {
			return nil, malformed(c.src, "unknown method %q", name)
		}
		recv, err := c.expr(obj)
		if err != nil {
			return nil, err
		}
		return func(e *env) (any, error) {
			r, err := recv(e)
			if err != nil {
				return nil, err
			}
			s, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s is not a function", ErrEval, typeOf(r), name)
			}
			vals, err := evalArgs(e)
			if err != nil {
				return nil, err
			}
			return m(s, vals), nil
		}, nil
	}
	return nil, c.unsupported(n)
}

func (c *compiler) assignment(n *sitter.Node) (exprFn, error) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil, c.unsupported(n)
	}
	name := c.text(left)
	b, ok := c.scope.lookup(name)
	if !ok {
		return nil, malformed(c.src, "assignment to undeclared %q", name)
	}
	if b.constant {
		return nil, malformed(c.src, "assignment to constant %q", name)
	}
	right, err := c.expr(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}

	var combine func(a, b any) any
	if n.Type() == "augmented_assignment_expression" {
		op := n.ChildByFieldName("operator")
		if op == nil {
			return nil, c.unsupported(n)
		}
		f, ok := binaryOps[strings.TrimSuffix(op.Type(), "=")]
		if !ok {
			return nil, c.unsupported(n)
		}
		combine = f
	}

	slot := b.slot
	return func(e *env) (any, error) {
		v, err := right(e)
		if err != nil {
			return nil, err
		}
		if combine != nil {
			v = combine(e.slots[slot], v)
		}
		e.slots[slot] = v
		return v, nil
	}, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeEscape(s string) string {
	if len(s) < 2 || s[0] != '\\' {
		return s
	}
	switch s[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case '\n', '\r':
		return ""
	case 'x', 'u':
		hex := strings.Trim(s[2:], "{}")
		if r, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(r))
		}
	}
	return s[1:]
}
