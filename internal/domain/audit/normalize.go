package audit

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NormalizeValue converts an arbitrary attribute value into a transport-safe
// representation: decimals become floats, timestamps ISO-8601 strings, ids
// strings, nested auditable entities their own snapshot, collections lists of
// normalized items. Unrecognized types fall back to their string form so a
// diff can always be serialized.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return val.InexactFloat64()
	case *decimal.Decimal:
		if val == nil {
			return nil
		}
		return val.InexactFloat64()
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(time.RFC3339)
	case uuid.UUID:
		return val.String()
	case *uuid.UUID:
		if val == nil {
			return nil
		}
		return val.String()
	case Auditable:
		return val.AuditSnapshot()
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return NormalizeValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		items := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, NormalizeValue(rv.Index(i).Interface()))
		}
		return items
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			m[fmt.Sprintf("%v", key.Interface())] = NormalizeValue(rv.MapIndex(key).Interface())
		}
		return m
	}

	return fmt.Sprintf("%v", v)
}

// NormalizeMap normalizes every value of a field map in place-safe fashion
func NormalizeMap(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		out[name] = NormalizeValue(value)
	}
	return out
}
