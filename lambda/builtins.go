package lambda

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// property reads name from a primitive value.
func property(v any, name string) (any, error) {
	switch x := v.(type) {
	case string:
		if name == "length" {
			return float64(utf16Len(x)), nil
		}
		if i, err := strconv.Atoi(name); err == nil {
			return charAt(x, float64(i)), nil
		}
		return nil, nil
	case nullType, nil:
		return nil, fmt.Errorf("%w: cannot read property %q of %s", ErrEval, name, ToString(v))
	}
	return nil, nil
}

// charAt returns the UTF-16 code unit at i as a string, or undefined.
func charAt(s string, i float64) any {
	units := utf16.Encode([]rune(s))
	if i < 0 || i != math.Trunc(i) || int(i) >= len(units) {
		return nil
	}
	return string(utf16.Decode(units[int(i) : int(i)+1]))
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func num(args []any, i int) float64 {
	return ToNumber(arg(args, i))
}

func math1(f func(float64) float64) func([]any) any {
	return func(args []any) any { return f(num(args, 0)) }
}

func math2(f func(float64, float64) float64) func([]any) any {
	return func(args []any) any { return f(num(args, 0), num(args, 1)) }
}

var namespaceConstants = map[string]map[string]any{
	"Math": {
		"PI":      math.Pi,
		"E":       math.E,
		"LN2":     math.Ln2,
		"LN10":    math.Ln10,
		"LOG2E":   math.Log2E,
		"LOG10E":  math.Log10E,
		"SQRT2":   math.Sqrt2,
		"SQRT1_2": 1 / math.Sqrt2,
	},
	"Number": {
		"MAX_VALUE":         math.MaxFloat64,
		"MIN_VALUE":         math.SmallestNonzeroFloat64,
		"EPSILON":           math.Nextafter(1, 2) - 1,
		"MAX_SAFE_INTEGER":  float64(1<<53 - 1),
		"MIN_SAFE_INTEGER":  -float64(1<<53 - 1),
		"POSITIVE_INFINITY": math.Inf(1),
		"NEGATIVE_INFINITY": math.Inf(-1),
		"NaN":               math.NaN(),
	},
	"String":  {},
	"Boolean": {},
}

var namespaceFuncs = map[string]map[string]func([]any) any{
	"Math": {
		"abs":   math1(math.Abs),
		"sqrt":  math1(math.Sqrt),
		"cbrt":  math1(math.Cbrt),
		"floor": math1(math.Floor),
		"ceil":  math1(math.Ceil),
		"round": math1(jsRound),
		"trunc": math1(math.Trunc),
		"sign":  math1(jsSign),
		"exp":   math1(math.Exp),
		"expm1": math1(math.Expm1),
		"log":   math1(math.Log),
		"log2":  math1(math.Log2),
		"log10": math1(math.Log10),
		"log1p": math1(math.Log1p),
		"sin":   math1(math.Sin),
		"cos":   math1(math.Cos),
		"tan":   math1(math.Tan),
		"asin":  math1(math.Asin),
		"acos":  math1(math.Acos),
		"atan":  math1(math.Atan),
		"sinh":  math1(math.Sinh),
		"cosh":  math1(math.Cosh),
		"tanh":  math1(math.Tanh),
		"atan2": math2(math.Atan2),
		"pow":   math2(math.Pow),
		"hypot": func(args []any) any {
			h := 0.0
			for i := range args {
				h = math.Hypot(h, num(args, i))
			}
			return h
		},
		"min": func(args []any) any { return fold(args, math.Inf(1), math.Min) },
		"max": func(args []any) any { return fold(args, math.Inf(-1), math.Max) },
	},
	"Number": {
		"isNaN": func(args []any) any {
			f, ok := arg(args, 0).(float64)
			return ok && math.IsNaN(f)
		},
		"isFinite": func(args []any) any {
			f, ok := arg(args, 0).(float64)
			return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
		},
		"isInteger": func(args []any) any {
			f, ok := arg(args, 0).(float64)
			return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
		},
		"parseFloat": func(args []any) any { return parseFloat(ToString(arg(args, 0))) },
		"parseInt":   func(args []any) any { return parseInt(ToString(arg(args, 0)), arg(args, 1)) },
	},
	"String": {
		"fromCharCode": func(args []any) any {
			units := make([]uint16, len(args))
			for i := range args {
				units[i] = uint16(int64(num(args, i)))
			}
			return string(utf16.Decode(units))
		},
	},
	"Boolean": {},
}

var globalFuncs = map[string]func([]any) any{
	"Number":  func(args []any) any { return num(args, 0) },
	"String":  func(args []any) any { return ToString(arg(args, 0)) },
	"Boolean": func(args []any) any { return Truthy(arg(args, 0)) },
	"isNaN":   func(args []any) any { return math.IsNaN(num(args, 0)) },
	"isFinite": func(args []any) any {
		f := num(args, 0)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	},
	"parseFloat": namespaceFuncs["Number"]["parseFloat"],
	"parseInt":   namespaceFuncs["Number"]["parseInt"],
}

var stringMethods = map[string]func(s string, args []any) any{
	"toUpperCase": func(s string, _ []any) any {
		return cases.Upper(language.Und).String(s)
	},
	"toLowerCase": func(s string, _ []any) any {
		return cases.Lower(language.Und).String(s)
	},
	"trim":      func(s string, _ []any) any { return strings.TrimSpace(s) },
	"trimStart": func(s string, _ []any) any { return strings.TrimLeft(s, " \t\n\r\v\f") },
	"trimEnd":   func(s string, _ []any) any { return strings.TrimRight(s, " \t\n\r\v\f") },
	"charAt": func(s string, args []any) any {
		if v := charAt(s, math.Trunc(num(args, 0))); v != nil {
			return v
		}
		return ""
	},
	"charCodeAt": func(s string, args []any) any {
		units := utf16.Encode([]rune(s))
		i := num(args, 0)
		if math.IsNaN(i) {
			i = 0
		}
		i = math.Trunc(i)
		if i < 0 || int(i) >= len(units) {
			return math.NaN()
		}
		return float64(units[int(i)])
	},
	"startsWith": func(s string, args []any) any { return strings.HasPrefix(s, ToString(arg(args, 0))) },
	"endsWith":   func(s string, args []any) any { return strings.HasSuffix(s, ToString(arg(args, 0))) },
	"includes":   func(s string, args []any) any { return strings.Contains(s, ToString(arg(args, 0))) },
	"indexOf": func(s string, args []any) any {
		i := strings.Index(s, ToString(arg(args, 0)))
		if i < 0 {
			return -1.0
		}
		return float64(utf16Len(s[:i]))
	},
	"toString": func(s string, _ []any) any { return s },
}

func fold(args []any, init float64, f func(a, b float64) float64) float64 {
	acc := init
	for i := range args {
		v := num(args, i)
		if math.IsNaN(v) {
			return math.NaN()
		}
		acc = f(acc, v)
	}
	return acc
}

// jsRound rounds half toward positive infinity.
func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Floor(x + 0.5)
}

func jsSign(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return x
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x
}

// parseFloat reads the longest numeric prefix of s.
func parseFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	for _, inf := range []string{"Infinity", "+Infinity"} {
		if strings.HasPrefix(s, inf) {
			return math.Inf(1)
		}
	}
	if strings.HasPrefix(s, "-Infinity") {
		return math.Inf(-1)
	}
	end := 0
	seenDot, seenExp, seenDigit := false, false, false
scan:
	for end < len(s) {
		ch := s[end]
		switch {
		case ch >= '0' && ch <= '9':
			seenDigit = true
		case (ch == '+' || ch == '-') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E'):
		case ch == '.' && !seenDot && !seenExp:
			seenDot = true
		case (ch == 'e' || ch == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			break scan
		}
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
		end--
	}
	return math.NaN()
}

// parseInt reads an integer prefix of s in the given radix.
func parseInt(s string, radix any) float64 {
	s = strings.TrimSpace(s)
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	base := int(ToNumber(radix))
	if isNullish(radix) || base == 0 {
		base = 10
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			base, s = 16, s[2:]
		}
	}
	if base < 2 || base > 36 {
		return math.NaN()
	}
	var n float64
	digits := 0
	for _, ch := range strings.ToLower(s) {
		d := strings.IndexRune("0123456789abcdefghijklmnopqrstuvwxyz", ch)
		if d < 0 || d >= base {
			break
		}
		n = n*float64(base) + float64(d)
		digits++
	}
	if digits == 0 {
		return math.NaN()
	}
	return sign * n
}
