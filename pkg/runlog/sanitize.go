package runlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxDepth bounds recursion so self-referencing values still encode.
const maxDepth = 64

// Loggable is implemented by types that export themselves as a JSON object for logging.
// A returned error makes MakeJSONSafe fall back to the next conversion rule.
type Loggable interface {
	ToLoggable() (map[string]interface{}, error)
}

// MakeJSONSafe converts v into a value json.Marshal always accepts.
//
// Rules are tried in a fixed order: primitives, plain sequences, maps, structured
// export (Loggable, then json.Marshaler), exported struct fields, and finally the
// string representation. Sequences and maps that implement a structured export are
// not plain and take the export path.
func MakeJSONSafe(v interface{}) interface{} {
	return makeSafe(v, 0)
}

func makeSafe(v interface{}, depth int) interface{} {
	if v == nil {
		return nil
	}
	if depth > maxDepth {
		return fmt.Sprintf("<max depth %T>", v)
	}

	switch t := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t
	case float32:
		if isFinite(float64(t)) {
			return t
		}
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return safeFloat(t)
	case json.Number:
		if _, err := strconv.ParseFloat(string(t), 64); err == nil {
			return t
		}
		return string(t)
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return safeFloat(rv.Float())
	}

	exporters := exportersOf(v, rv)

	if len(exporters) == 0 {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			out := make([]interface{}, rv.Len())
			for i := range out {
				out[i] = makeSafe(rv.Index(i).Interface(), depth+1)
			}
			return out
		case reflect.Map:
			out := make(map[string]interface{}, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[fmt.Sprint(iter.Key().Interface())] = makeSafe(iter.Value().Interface(), depth+1)
			}
			return out
		}
	}

	for _, exporter := range exporters {
		if exported, ok := export(exporter); ok {
			return makeSafe(exported, depth+1)
		}
	}

	if rv.Kind() == reflect.Struct {
		if fields, ok := attributes(rv); ok {
			return makeSafe(fields, depth+1)
		}
	}

	return repr(v)
}

// exportersOf returns the structured exports available for v in the order they are
// tried: Loggable, then json.Marshaler. The pointer method set is checked when the
// value is addressable.
func exportersOf(v interface{}, rv reflect.Value) []interface{} {
	candidates := []interface{}{v}
	if rv.CanAddr() {
		candidates = append(candidates, rv.Addr().Interface())
	}

	var exporters []interface{}
	for _, c := range candidates {
		if l, ok := c.(Loggable); ok {
			exporters = append(exporters, l)
			break
		}
	}
	for _, c := range candidates {
		if m, ok := c.(json.Marshaler); ok {
			exporters = append(exporters, m)
			break
		}
	}
	return exporters
}

// export runs a structured export; errors and panics report ok=false.
func export(exporter interface{}) (out interface{}, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()

	switch e := exporter.(type) {
	case Loggable:
		fields, err := e.ToLoggable()
		if err != nil {
			return nil, false
		}
		return fields, true
	case json.Marshaler:
		raw, err := e.MarshalJSON()
		if err != nil {
			return nil, false
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var decoded interface{}
		if err := dec.Decode(&decoded); err != nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}

// attributes maps exported struct fields by their json name. Structs without
// exported fields have no attribute mapping.
func attributes(rv reflect.Value) (out map[string]interface{}, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()

	rt := rv.Type()
	fields := make(map[string]interface{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, found := field.Tag.Lookup("json"); found {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields[name] = rv.Field(i).Interface()
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

func repr(v interface{}) string {
	switch v.(type) {
	case fmt.Stringer, error:
		return fmt.Sprint(v)
	}
	if printsForever(reflect.ValueOf(v), make(map[uintptr]bool), 0) {
		return fmt.Sprintf("<cyclic %T>", v)
	}
	return fmt.Sprintf("%#v", v)
}

// printsForever reports whether fmt would recurse without end on rv. fmt follows
// maps, slices and interfaces but prints nested pointers as addresses.
func printsForever(rv reflect.Value, path map[uintptr]bool, depth int) bool {
	if depth > maxDepth {
		return true
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if depth > 0 || rv.IsNil() {
			return false
		}
		return printsForever(rv.Elem(), path, depth+1)
	case reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return printsForever(rv.Elem(), path, depth+1)
	case reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return false
		}
		ptr := rv.Pointer()
		if path[ptr] {
			return true
		}
		path[ptr] = true
		defer delete(path, ptr)

		iter := rv.MapRange()
		for iter.Next() {
			if printsForever(iter.Key(), path, depth+1) || printsForever(iter.Value(), path, depth+1) {
				return true
			}
		}
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return false
		}
		ptr := rv.Pointer()
		if path[ptr] {
			return true
		}
		path[ptr] = true
		defer delete(path, ptr)

		for i := 0; i < rv.Len(); i++ {
			if printsForever(rv.Index(i), path, depth+1) {
				return true
			}
		}
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if printsForever(rv.Index(i), path, depth+1) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if printsForever(rv.Field(i), path, depth+1) {
				return true
			}
		}
	}
	return false
}

func safeFloat(f float64) interface{} {
	if isFinite(f) {
		return f
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
