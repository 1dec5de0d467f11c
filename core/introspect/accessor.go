package introspect

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// GetterName returns the conventional getter of a property: "id" becomes "GetId".
func GetterName(property string) string {
	if property == "" {
		return ""
	}
	r := []rune(property)
	r[0] = unicode.ToUpper(r[0])
	return "Get" + string(r)
}

// Invoke calls the zero-argument method named method on target and returns its first result.
// A trailing error result is returned as the error.
func (i *Introspector) Invoke(target any, method string) (any, error) {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot invoke %s on nil", method)
	}
	m := rv.MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("cannot find method %s for type %s", method, rv.Type())
	}
	if m.Type().NumIn() != 0 || m.Type().NumOut() == 0 {
		return nil, fmt.Errorf("method %s of type %s is not a getter", method, rv.Type())
	}

	out := m.Call(nil)
	if len(out) > 1 {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

// Read returns a property of target: the getter when one exists, the exported field otherwise.
func (i *Introspector) Read(target any, property string) (any, error) {
	if v, err := i.Invoke(target, GetterName(property)); err == nil {
		return v, nil
	}

	field, err := i.field(target, property)
	if err != nil {
		return nil, err
	}
	if field.Kind() == reflect.Slice || field.Kind() == reflect.Array || field.Kind() == reflect.Struct {
		if field.CanAddr() {
			return field.Addr().Interface(), nil
		}
	}
	return field.Interface(), nil
}

// Write sets a property of target. Slices accept any value whose items can be
// converted to the slice element type.
func (i *Introspector) Write(target any, property string, value any) error {
	field, err := i.field(target, property)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("property %s of %T is not settable", property, target)
	}
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}
	if field.Kind() == reflect.Slice {
		return i.writeSlice(field, value)
	}
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to property %s (%s)", value, property, field.Type())
}

func (i *Introspector) writeSlice(field reflect.Value, value any) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("cannot assign %T to %s", value, field.Type())
	}
	elemType := field.Type().Elem()
	out := reflect.MakeSlice(field.Type(), 0, len(items))
	for _, item := range items {
		iv := reflect.ValueOf(item)
		switch {
		case !iv.IsValid():
			out = reflect.Append(out, reflect.Zero(elemType))
		case iv.Type().AssignableTo(elemType):
			out = reflect.Append(out, iv)
		case iv.Kind() == reflect.Ptr && iv.Type().Elem().AssignableTo(elemType):
			out = reflect.Append(out, iv.Elem())
		default:
			return fmt.Errorf("cannot store %T in %s", item, field.Type())
		}
	}
	field.Set(out)
	return nil
}

func (i *Introspector) field(target any, property string) (reflect.Value, error) {
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("cannot access %s on nil", property)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("cannot access %s on %s", property, rv.Type())
	}
	f := rv.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, property) })
	if !f.IsValid() {
		return reflect.Value{}, fmt.Errorf("type %s has no property %s", rv.Type(), property)
	}
	return f, nil
}
