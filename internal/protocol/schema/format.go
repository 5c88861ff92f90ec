package schema

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
)

// Format renders v for debugging:
//
//	ApplicationStruct {
//		catalogVendorID : 123
//		applicationID : abc
//	}
//
// Absent optional members are omitted. Nested values that implement
// fmt.Stringer are indented one level.
func (s *Struct[T]) Format(v T) string {
	var b strings.Builder
	b.WriteString(s.name)
	b.WriteString(" {\n")
	for i := range s.fields {
		f := &s.fields[i]
		x, ok := f.value(&v)
		if !ok {
			continue
		}
		b.WriteString("\t")
		b.WriteString(f.Name)
		b.WriteString(" : ")
		b.WriteString(indent(formatValue(x)))
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func formatValue(x any) string {
	rv := reflect.ValueOf(x)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "null"
	}
	switch v := rv.Interface().(type) {
	case []byte:
		return hex.EncodeToString(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n\t")
}
