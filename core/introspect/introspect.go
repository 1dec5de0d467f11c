package introspect

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"reattach/core/orm"
)

var enhancedType = reflect.TypeOf((*orm.Enhanced)(nil)).Elem()

// Introspector is the reflective toolbox of the engine: unenhancement, type name
// resolution, enum lookup and property access. It is safe for concurrent use.
type Introspector struct {
	unenhanced sync.Map // map[reflect.Type]reflect.Type

	mu    sync.RWMutex
	types map[string]reflect.Type
	enums map[reflect.Type][]any
}

// New creates an introspector with the scalar kinds pre-registered.
func New() *Introspector {
	i := &Introspector{
		types: make(map[string]reflect.Type),
		enums: make(map[reflect.Type][]any),
	}
	for _, v := range []any{
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0), false, "",
	} {
		i.RegisterType(reflect.TypeOf(v))
	}
	return i
}

// Unenhance reduces t to its business type: pointers are dereferenced and
// generated proxy types are mapped back to the type they stand in for.
func (i *Introspector) Unenhance(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if cached, ok := i.unenhanced.Load(t); ok {
		return cached.(reflect.Type)
	}

	result := t
	if t.Implements(enhancedType) {
		result = reflect.Zero(t).Interface().(orm.Enhanced).UnenhancedType()
	} else if t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(enhancedType) {
		result = reflect.Zero(reflect.PointerTo(t)).Interface().(orm.Enhanced).UnenhancedType()
	}
	for result.Kind() == reflect.Ptr {
		result = result.Elem()
	}

	actual, _ := i.unenhanced.LoadOrStore(t, result)
	return actual.(reflect.Type)
}

// IsEnhanced reports whether t is a generated stand-in for another type.
func (i *Introspector) IsEnhanced(t reflect.Type) bool {
	base := t
	for base != nil && base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	return i.Unenhance(t) != base
}

// TypeOf returns the unenhanced type of a value.
func (i *Introspector) TypeOf(v any) reflect.Type {
	return i.Unenhance(reflect.TypeOf(v))
}

// TypeName returns the class name of t.
func (i *Introspector) TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// RegisterType makes t resolvable through TypeByName.
func (i *Introspector) RegisterType(t reflect.Type) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	i.mu.Lock()
	i.types[t.String()] = t
	i.mu.Unlock()
}

// TypeByName resolves a class name registered earlier.
func (i *Introspector) TypeByName(name string) (reflect.Type, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.types[name]
	return t, ok
}

// RegisterEnum declares the complete value set of an enum type. Every value must
// share the same type and implement fmt.Stringer; String() is the enum name.
func (i *Introspector) RegisterEnum(values ...fmt.Stringer) error {
	if len(values) == 0 {
		return fmt.Errorf("enum registration needs at least one value")
	}
	t := reflect.TypeOf(values[0])
	list := make([]any, 0, len(values))
	for _, v := range values {
		if reflect.TypeOf(v) != t {
			return fmt.Errorf("enum values mix %s and %s", t, reflect.TypeOf(v))
		}
		list = append(list, v)
	}

	i.RegisterType(t)
	i.mu.Lock()
	i.enums[t] = list
	i.mu.Unlock()
	return nil
}

// IsEnum reports whether t was registered as an enum.
func (i *Introspector) IsEnum(t reflect.Type) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.enums[t]
	return ok
}

// EnumName returns the name of an enum value.
func (i *Introspector) EnumName(v any) (string, bool) {
	if v == nil || !i.IsEnum(reflect.TypeOf(v)) {
		return "", false
	}
	return v.(fmt.Stringer).String(), true
}

// EnumValue finds the value of enum type t whose name is name.
func (i *Introspector) EnumValue(t reflect.Type, name string) (any, bool) {
	i.mu.RLock()
	values := i.enums[t]
	i.mu.RUnlock()
	for _, v := range values {
		if v.(fmt.Stringer).String() == name {
			return v, true
		}
	}
	return nil, false
}

// IsNumber reports whether t has a numeric kind.
func IsNumber(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// FormatScalar renders a number or string value as a literal understood by ParseScalar.
func FormatScalar(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), true
	case reflect.String:
		return rv.String(), true
	}
	return "", false
}

// ParseScalar builds a value of numeric or string type t from its literal.
func (i *Introspector) ParseScalar(t reflect.Type, literal string) (any, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(literal, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s literal %q: %w", t, literal, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(literal, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s literal %q: %w", t, literal, err)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(literal, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s literal %q: %w", t, literal, err)
		}
		v.SetFloat(f)
	case reflect.String:
		v.SetString(literal)
	default:
		return nil, fmt.Errorf("type %s has no literal form", t)
	}
	return v.Interface(), nil
}

// New returns a pointer to a new zero value of t.
func (i *Introspector) New(t reflect.Type) any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}
