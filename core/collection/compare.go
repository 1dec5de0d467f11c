package collection

import (
	"fmt"
	"reflect"
)

// Equaler lets domain types define their own equality.
type Equaler interface {
	Equal(other any) bool
}

// Comparable lets domain types define their natural ordering.
// Compare returns a negative number, zero or a positive number.
type Comparable interface {
	Compare(other any) int
}

// Less orders two items.
type Less func(a, b any) bool

// Equal reports whether a and b are equal items.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Same reports whether a and b are the very same item: identical references for
// pointers, maps, slices and channels, plain equality for scalar values.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Type().Comparable() {
		return a == b
	}
	return false
}

// Natural orders numbers numerically, strings lexically and Comparable values
// through Compare. Anything else falls back to the formatted representation.
func Natural(a, b any) bool {
	if c, ok := a.(Comparable); ok {
		return c.Compare(b) < 0
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsValid() && vb.IsValid() {
		switch {
		case isInt(va) && isInt(vb):
			return va.Int() < vb.Int()
		case isUint(va) && isUint(vb):
			return va.Uint() < vb.Uint()
		case isNumber(va) && isNumber(vb):
			return toFloat(va) < toFloat(vb)
		case va.Kind() == reflect.String && vb.Kind() == reflect.String:
			return va.String() < vb.String()
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
