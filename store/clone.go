package store

import "reflect"

// CloneState copies a state map. Nested maps, slices, arrays and pointers
// are copied too, so the copy can be stored while the original keeps being
// mutated by nodes. A nil map clones to an empty map.
func CloneState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneLog copies a step log.
func CloneLog(log []LogEntry) []LogEntry {
	out := make([]LogEntry, len(log))
	copy(out, log)
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case nil, bool, string, int, int64, float64:
		return v
	case map[string]any:
		return CloneState(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return deepCopy(reflect.ValueOf(v), map[uintptr]reflect.Value{}).Interface()
	}
}

// deepCopy copies maps, slices, arrays, pointers, interfaces and the exported
// fields of structs. seen maps pointer addresses to their copies so cycles
// are preserved instead of followed forever. Unexported struct fields and
// channels or funcs are kept as they are.
func deepCopy(v reflect.Value, seen map[uintptr]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value(), seen))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		if cp, ok := seen[v.Pointer()]; ok {
			return cp
		}
		out := reflect.New(v.Type().Elem())
		seen[v.Pointer()] = out
		out.Elem().Set(deepCopy(v.Elem(), seen))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem(), seen))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i), seen))
			}
		}
		return out
	default:
		return v
	}
}
