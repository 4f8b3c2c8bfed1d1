package scatter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/scatter/lambda"
	"github.com/gogpu/scatter/scale"
)

// Extent is a [min, max] pair used for domains and ranges.
type Extent [2]float64

// Channel describes how one visual property is derived. It is one of
// ConstantChannel, BasicChannel, OpChannel, LambdaChannel or
// JitterChannel. Channels are values: assigning a new channel replaces
// the old one.
type Channel interface {
	isChannel()
}

// ConstantChannel sets the property to a literal value.
type ConstantChannel struct {
	Constant float64
}

// BasicChannel maps a field through a continuous scale. Nil Domain is
// inferred from the data; nil Range and empty Transform use the
// aesthetic's defaults.
type BasicChannel struct {
	Field     string
	Domain    *Extent
	Range     *Extent
	Transform scale.Transform
}

// OpChannel is a predicate on a field. B is required for OpWithin.
type OpChannel struct {
	Field string
	Op    Op
	A     float64
	B     *float64
}

// LambdaChannel maps a field through a function. Func takes precedence
// over the Lambda source when both are set.
type LambdaChannel struct {
	Field  string
	Lambda string
	Func   lambda.Func
}

// JitterChannel selects a jitter method.
type JitterChannel struct {
	Method JitterMethod
}

func (ConstantChannel) isChannel() {}
func (BasicChannel) isChannel()    {}
func (OpChannel) isChannel()       {}
func (LambdaChannel) isChannel()   {}
func (JitterChannel) isChannel()   {}

// Op is a predicate operator.
type Op string

// Predicate operators.
const (
	OpEq     Op = "eq"
	OpGt     Op = "gt"
	OpLt     Op = "lt"
	OpWithin Op = "within"
)

// Code returns the operator code used by the shader's filter descriptor.
func (o Op) Code() int {
	switch o {
	case OpLt:
		return 1
	case OpGt:
		return 2
	case OpEq:
		return 3
	case OpWithin:
		return 4
	}
	return 0
}

// JitterMethod selects how points move when jitter is on.
type JitterMethod string

// Jitter methods.
const (
	JitterNone    JitterMethod = "None"
	JitterSpiral  JitterMethod = "spiral"
	JitterUniform JitterMethod = "uniform"
	JitterNormal  JitterMethod = "normal"
	JitterCircle  JitterMethod = "circle"
	JitterTime    JitterMethod = "time"
)

var jitterMethods = []JitterMethod{JitterNone, JitterSpiral, JitterUniform, JitterNormal, JitterCircle, JitterTime}

// Code returns the method's index in the shader's jitter switch.
func (m JitterMethod) Code() int {
	for i, jm := range jitterMethods {
		if jm == m {
			return i
		}
	}
	return 0
}

// ParseJitterMethod validates a jitter method name. The empty string is
// JitterNone.
func ParseJitterMethod(s string) (JitterMethod, error) {
	if s == "" {
		return JitterNone, nil
	}
	for _, m := range jitterMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &ChannelError{Key: "method", Reason: fmt.Sprintf("unknown jitter method %q", s)}
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is an encoding value meaning "not provided". Updating an
// aesthetic with it is a logged no-op.
var Undefined any = undefined{}

// ParseChannel converts a decoded description into a Channel.
//
// Accepted inputs are Channel values, numbers (constant channels), strings
// (field shorthand) and maps shaped like one of the channels:
//
//	{constant: 3}
//	{field: "mass", domain: [0, 10], range: [0, 1], transform: "sqrt"}
//	{field: "mass", op: "within", a: 5, b: 2}
//	{field: "name", lambda: "d => d.length"}
//	{method: "spiral"}
//
// A nil input yields a nil Channel, which resets an aesthetic.
func ParseChannel(v any) (Channel, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Channel:
		return x, nil
	case string:
		if x == "" {
			return nil, &ChannelError{Key: "field", Reason: "empty field name"}
		}
		return BasicChannel{Field: x}, nil
	case map[string]any:
		return parseMap(x)
	}
	if f, ok := toFloat(v); ok {
		return ConstantChannel{Constant: f}, nil
	}
	return nil, &ChannelError{Reason: fmt.Sprintf("unsupported value of type %T", v)}
}

// ParseChannelYAML decodes a YAML (or JSON) channel description.
func ParseChannelYAML(data []byte) (Channel, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("scatter: decode channel: %w", err)
	}
	return ParseChannel(v)
}

var channelKeys = map[string]bool{
	"constant": true, "field": true, "domain": true, "range": true,
	"transform": true, "op": true, "a": true, "b": true, "lambda": true,
	"method": true,
}

func parseMap(m map[string]any) (Channel, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !channelKeys[k] {
			return nil, &ChannelError{Key: k, Reason: "unknown key"}
		}
	}

	field, err := stringKey(m, "field")
	if err != nil {
		return nil, err
	}

	switch {
	case has(m, "op"):
		return parseOp(m, field)
	case has(m, "lambda"):
		return parseLambda(m, field)
	case has(m, "method"):
		name, err := stringKey(m, "method")
		if err != nil {
			return nil, err
		}
		method, err := ParseJitterMethod(name)
		if err != nil {
			return nil, err
		}
		return JitterChannel{Method: method}, nil
	case has(m, "constant") && field == "":
		c, ok := toFloat(m["constant"])
		if !ok {
			return nil, &ChannelError{Key: "constant", Reason: "must be a number"}
		}
		return ConstantChannel{Constant: c}, nil
	case field != "":
		return parseBasic(m, field)
	}
	return nil, &ChannelError{Reason: "map matches no channel shape (keys " + strings.Join(keys, ", ") + ")"}
}

func parseOp(m map[string]any, field string) (Channel, error) {
	if field == "" {
		return nil, &ChannelError{Key: "field", Reason: "required for op channels"}
	}
	name, err := stringKey(m, "op")
	if err != nil {
		return nil, err
	}
	op := Op(name)
	if op.Code() == 0 {
		return nil, &ChannelError{Key: "op", Reason: fmt.Sprintf("unknown operator %q", name)}
	}
	a, ok := toFloat(m["a"])
	if !ok {
		return nil, &ChannelError{Key: "a", Reason: "must be a number"}
	}
	ch := OpChannel{Field: field, Op: op, A: a}
	if raw, present := m["b"]; present && raw != nil {
		b, ok := toFloat(raw)
		if !ok {
			return nil, &ChannelError{Key: "b", Reason: "must be a number"}
		}
		ch.B = &b
	}
	if op == OpWithin && ch.B == nil {
		return nil, &ChannelError{Key: "b", Reason: "required for within"}
	}
	return ch, nil
}

func parseLambda(m map[string]any, field string) (Channel, error) {
	ch := LambdaChannel{Field: field}
	switch f := m["lambda"].(type) {
	case string:
		ch.Lambda = f
	case nil:
	default:
		fn, err := lambda.Materialize(f)
		if err != nil {
			return nil, &ChannelError{Key: "lambda", Reason: err.Error()}
		}
		ch.Func = fn
	}
	return ch, nil
}

func parseBasic(m map[string]any, field string) (Channel, error) {
	ch := BasicChannel{Field: field}
	var err error
	if ch.Domain, err = extentKey(m, "domain"); err != nil {
		return nil, err
	}
	if ch.Range, err = extentKey(m, "range"); err != nil {
		return nil, err
	}
	name, err := stringKey(m, "transform")
	if err != nil {
		return nil, err
	}
	if name != "" {
		if ch.Transform, err = scale.ParseTransform(name); err != nil {
			return nil, &ChannelError{Key: "transform", Reason: err.Error()}
		}
	}
	return ch, nil
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func stringKey(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", &ChannelError{Key: key, Reason: "must be a string"}
}

func extentKey(m map[string]any, key string) (*Extent, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var ext Extent
	switch v := raw.(type) {
	case Extent:
		ext = v
	case [2]float64:
		ext = v
	case []float64:
		if len(v) != 2 {
			return nil, &ChannelError{Key: key, Reason: "must have two elements"}
		}
		ext = Extent{v[0], v[1]}
	case []any:
		if len(v) != 2 {
			return nil, &ChannelError{Key: key, Reason: "must have two elements"}
		}
		for i, e := range v {
			f, ok := toFloat(e)
			if !ok {
				return nil, &ChannelError{Key: key, Reason: "elements must be numbers"}
			}
			ext[i] = f
		}
	default:
		return nil, &ChannelError{Key: key, Reason: "must be a [min, max] pair"}
	}
	return &ext, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return math.NaN(), false
}
