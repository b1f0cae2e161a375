// Package serialize converts resource structs into CloudFormation property
// maps and converts logical names between the casing conventions used by
// artifacts, placeholders and logical IDs.
package serialize

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"
)

// Resource serializes a resource struct to CloudFormation properties.
// Field names come from json tags, zero values are omitted, and values that
// implement json.Marshaler (intrinsic functions) are rendered through it.
func Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, err
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

// Value renders a single value the way Resource renders a field, so it
// can be emitted as YAML as well as JSON.
func Value(v any) (any, error) {
	return serializeValue(reflect.ValueOf(v))
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// isZeroValue reports whether a field is omitted. Empty slices and maps
// count as zero, and types with an IsZero method decide for themselves.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		if z, ok := v.Interface().(interface{ IsZero() bool }); ok {
			return z.IsZero()
		}
	}
	return v.IsZero()
}

func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		// Pointer receivers of json.Marshaler are checked before unwrapping.
		if v.Kind() == reflect.Ptr && v.CanInterface() {
			if m, ok := v.Interface().(json.Marshaler); ok {
				return marshalVia(m)
			}
		}
		return serializeValue(v.Elem())
	}

	if v.CanInterface() {
		if m, ok := v.Interface().(json.Marshaler); ok {
			return marshalVia(m)
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return Resource(v.Interface())

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[iter.Key().String()] = val
		}
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil
	}

	data, err := json.Marshal(v.Interface())
	return decode(data, err)
}

// marshalVia renders an intrinsic through its own marshaler, so the
// property map holds {"Ref": ...} rather than the Go struct.
func marshalVia(m json.Marshaler) (any, error) {
	return decode(m.MarshalJSON())
}

func decode(data []byte, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// words splits a camelCase or PascalCase identifier into lower-case words.
// Digits stay attached to the preceding word ("icav2Tools" -> icav2, tools).
func words(s string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		case unicode.IsUpper(r):
			// Start a new word unless inside an acronym run ("SRMEvent").
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if cur.Len() > 0 && (!prevUpper || nextLower) {
				out = append(out, cur.String())
				cur.Reset()
			}
		}
		cur.WriteRune(unicode.ToLower(r))
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// ToSnakeCase converts a camelCase name to snake_case.
// e.g., "findWorkflow" -> "find_workflow"
func ToSnakeCase(s string) string {
	return strings.Join(words(s), "_")
}

// ToKebabCase converts a camelCase name to kebab-case.
// e.g., "completeDataDraft" -> "complete-data-draft"
func ToKebabCase(s string) string {
	return strings.Join(words(s), "-")
}

// ToPascalCase converts camelCase or snake_case to PascalCase.
// e.g., "handleIcaEvent" -> "HandleIcaEvent", "bucket_name" -> "BucketName"
func ToPascalCase(s string) string {
	var result strings.Builder
	for _, w := range words(s) {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		result.WriteString(string(r))
	}
	return result.String()
}
