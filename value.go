package clams

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func convert(kind Kind, token string) (any, error) {
	var (
		v   any
		err error
	)
	switch kind {
	case String:
		return token, nil
	case Int:
		v, err = strconv.Atoi(token)
	case Float:
		v, err = strconv.ParseFloat(token, 64)
	case Bool:
		v, err = strconv.ParseBool(token)
	case Duration:
		v, err = time.ParseDuration(token)
	default:
		return nil, fmt.Errorf("unsupported type %d", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", kind, token)
	}
	return v, nil
}

// coerce converts a single non-token value, such as a declared default or a value decoded from a
// defaults file, to kind.
func coerce(kind Kind, v any) (any, error) {
	if s, ok := v.(string); ok {
		return convert(kind, s)
	}
	switch kind {
	case Int:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		}
	case Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Duration:
		if d, ok := v.(time.Duration); ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, kind)
}

func coerceSlice(kind Kind, v any) (any, error) {
	var items []any
	switch vs := v.(type) {
	case []any:
		items = vs
	case []string:
		for _, s := range vs {
			items = append(items, s)
		}
	case []int:
		for _, n := range vs {
			items = append(items, n)
		}
	case []float64:
		for _, f := range vs {
			items = append(items, f)
		}
	case []bool:
		for _, b := range vs {
			items = append(items, b)
		}
	case []time.Duration:
		for _, d := range vs {
			items = append(items, d)
		}
	default:
		return nil, fmt.Errorf("cannot use %v (%T) as a list of %s", v, v, kind)
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		c, err := coerce(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return makeSlice(kind, out), nil
}

// makeSlice turns converted values into a typed slice so handlers can ask for []string, []int and
// so on.
func makeSlice(kind Kind, vals []any) any {
	switch kind {
	case Int:
		return typedSlice[int](vals)
	case Float:
		return typedSlice[float64](vals)
	case Bool:
		return typedSlice[bool](vals)
	case Duration:
		return typedSlice[time.Duration](vals)
	default:
		return typedSlice[string](vals)
	}
}

func typedSlice[T any](vals []any) []T {
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.(T))
	}
	return out
}

// effectiveKind is the kind of the stored value, which for the boolean and counting actions is
// fixed regardless of the declared type.
func (s *ArgSpec) effectiveKind() Kind {
	switch s.Action {
	case StoreTrue, StoreFalse:
		return Bool
	case Count:
		return Int
	}
	return s.Kind
}

// list reports whether the parsed value is a slice.
func (s *ArgSpec) list() bool {
	if s.Positional() {
		return !s.Arity.scalar()
	}
	return s.Action == Append
}

func (s *ArgSpec) convertDefault() (any, error) {
	if s.list() {
		return coerceSlice(s.effectiveKind(), s.Default)
	}
	return coerce(s.effectiveKind(), s.Default)
}

// absent returns the value bound when the argument does not appear on the command line.
func (s *ArgSpec) absent() any {
	if s.Default != nil {
		v, err := s.convertDefault()
		if err != nil {
			return nil
		}
		return v
	}
	switch {
	case s.Action == StoreTrue:
		return false
	case s.Action == StoreFalse:
		return true
	case s.Action == Count:
		return 0
	case s.Positional() && s.Arity == ZeroOrMore:
		return makeSlice(s.Kind, nil)
	}
	return nil
}

// Value receives the tokens of one optional argument while a flag library parses the command line.
// It implements flag.Value, flag.Getter and pflag.Value, so either [FlagParser] can drive it.
type Value struct {
	Spec *ArgSpec

	set   bool
	val   any
	items []any
	count int
}

// NewValue returns an empty value for spec.
func NewValue(spec *ArgSpec) *Value {
	return &Value{Spec: spec}
}

func (v *Value) String() string {
	if v == nil || v.Spec == nil {
		return ""
	}
	if !v.set {
		if v.Spec.Default == nil {
			return ""
		}
		return formatValue(v.Spec.absent())
	}
	return formatValue(v.Get())
}

func (v *Value) Set(token string) error {
	spec := v.Spec
	switch spec.Action {
	case StoreTrue, StoreFalse:
		b, err := strconv.ParseBool(token)
		if err != nil {
			return fmt.Errorf("invalid bool value %q", token)
		}
		v.val = b == (spec.Action == StoreTrue)
	case Count:
		if token == "true" || token == "+1" {
			v.count++
			break
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			return fmt.Errorf("invalid count %q", token)
		}
		v.count = n
	default:
		if err := spec.checkChoice(token); err != nil {
			return err
		}
		c, err := convert(spec.Kind, token)
		if err != nil {
			return err
		}
		if spec.Action == Append {
			v.items = append(v.items, c)
		} else {
			v.val = c
		}
	}
	v.set = true
	return nil
}

// Type names the value's type for pflag's help output.
func (v *Value) Type() string {
	if v == nil || v.Spec == nil {
		return "string"
	}
	if v.IsBoolFlag() {
		return "bool"
	}
	if v.Spec.Action == Append {
		return v.Spec.Kind.String() + "Slice"
	}
	return v.Spec.Kind.String()
}

// IsBoolFlag reports whether the flag is complete without a value, e.g. --all rather than
// --all=true.
func (v *Value) IsBoolFlag() bool {
	if v == nil || v.Spec == nil {
		return false
	}
	return !v.Spec.Action.takesValue()
}

// Get returns the parsed value, or the argument's absent value when the flag was not given.
func (v *Value) Get() any {
	if !v.set {
		return v.Spec.absent()
	}
	switch v.Spec.Action {
	case Count:
		return v.count
	case Append:
		return makeSlice(v.Spec.Kind, v.items)
	}
	return v.val
}

// Changed reports whether the flag appeared on the command line.
func (v *Value) Changed() bool {
	return v.set
}

func formatValue(v any) string {
	switch vs := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(vs, ",")
	case []int, []float64, []bool, []time.Duration:
		s := fmt.Sprint(vs)
		return strings.ReplaceAll(strings.Trim(s, "[]"), " ", ",")
	}
	return fmt.Sprint(v)
}
