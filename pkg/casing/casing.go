// Package casing converts JSON-style payload keys between the snake_case
// names used by callers and the lowerCamelCase names expected by the API.
package casing

import (
	"reflect"

	"github.com/iancoleman/strcase"
)

// CamelKeys returns a copy of m with every map key, at any depth, converted to
// lowerCamelCase. Entries whose value is nil (including typed nil pointers,
// maps and slices) are dropped so server-side defaults stay untouched.
func CamelKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return convertMap(reflect.ValueOf(m), strcase.ToLowerCamel)
}

// SnakeKeys returns a copy of m with every map key, at any depth, converted to
// snake_case. Nil entries are dropped.
func SnakeKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return convertMap(reflect.ValueOf(m), strcase.ToSnake)
}

func convertMap(v reflect.Value, keyFn func(string) string) map[string]any {
	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		val := iter.Value()
		if isNil(val) {
			continue
		}
		out[keyFn(iter.Key().String())] = convertValue(val, keyFn)
	}
	return out
}

func convertValue(v reflect.Value, keyFn func(string) string) any {
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return v.Interface()
		}
		return convertMap(v, keyFn)
	case reflect.Slice, reflect.Array:
		// Byte slices marshal as base64 strings, leave them alone.
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface()
		}
		items := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if isNil(elem) {
				items = append(items, nil)
				continue
			}
			items = append(items, convertValue(elem, keyFn))
		}
		return items
	default:
		// Structs and pointers carry their own JSON tags.
		return v.Interface()
	}
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return true
		}
		return isNil(v.Elem())
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
