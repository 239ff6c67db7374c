package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/hamba/avro/v2"
)

// conform converts a value decoded from JSON (numbers as json.Number) into
// the Go representation the Avro encoder expects for schema, or reports why
// the value does not fit.
//
// Representation produced:
//
//	null     -> nil
//	boolean  -> bool
//	int      -> int32
//	long     -> int64
//	float    -> float32
//	double   -> float64
//	string   -> string
//	bytes    -> []byte (from a JSON string)
//	fixed    -> [size]byte (from a JSON string of exactly size bytes)
//	enum     -> string (must be a symbol)
//	array    -> []any
//	map      -> map[string]any
//	record   -> map[string]any (every field present, defaults filled in)
//	union    -> map[string]any{branch name: value}
//
// Logical types are carried by their underlying primitive.
func conform(schema avro.Schema, v any, path string) (any, error) {
	if ref, ok := schema.(*avro.RefSchema); ok {
		var target avro.Schema = ref.Schema()
		schema = target
	}

	switch schema.Type() {
	case avro.Null:
		if v != nil {
			return nil, mismatch(path, "null", v)
		}
		return nil, nil

	case avro.Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(path, "boolean", v)
		}
		return b, nil

	case avro.Int:
		n, err := toInt64(v, path, "int")
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %s: %d overflows int", ErrSchemaValidation, path, n)
		}
		return int32(n), nil

	case avro.Long:
		return toInt64(v, path, "long")

	case avro.Float:
		f, err := toFloat64(v, path, "float")
		if err != nil {
			return nil, err
		}
		return float32(f), nil

	case avro.Double:
		return toFloat64(v, path, "double")

	case avro.String:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(path, "string", v)
		}
		return s, nil

	case avro.Bytes:
		switch b := v.(type) {
		case string:
			return []byte(b), nil
		case []byte:
			return b, nil
		}
		return nil, mismatch(path, "bytes", v)

	case avro.Fixed:
		return conformFixed(schema.(*avro.FixedSchema), v, path)

	case avro.Enum:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(path, "enum", v)
		}
		for _, symbol := range schema.(*avro.EnumSchema).Symbols() {
			if symbol == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %s: %q is not a symbol of enum %s",
			ErrSchemaValidation, path, s, schema.(*avro.EnumSchema).FullName())

	case avro.Array:
		items, ok := v.([]any)
		if !ok {
			return nil, mismatch(path, "array", v)
		}
		itemSchema := schema.(*avro.ArraySchema).Items()
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := conform(itemSchema, item, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil

	case avro.Map:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, mismatch(path, "map", v)
		}
		valueSchema := schema.(*avro.MapSchema).Values()
		out := make(map[string]any, len(m))
		for key, val := range m {
			cv, err := conform(valueSchema, val, path+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = cv
		}
		return out, nil

	case avro.Record, avro.Error:
		return conformRecord(schema.(*avro.RecordSchema), v, path)

	case avro.Union:
		return conformUnion(schema.(*avro.UnionSchema), v, path)
	}

	return nil, fmt.Errorf("%w: %s: unsupported schema type %s", ErrSchemaValidation, path, schema.Type())
}

func conformRecord(schema *avro.RecordSchema, v any, path string) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, mismatch(path, "record "+schema.FullName(), v)
	}

	out := make(map[string]any, len(schema.Fields()))
	for _, field := range schema.Fields() {
		fieldPath := joinPath(path, field.Name())

		val, present := m[field.Name()]
		if !present {
			if !field.HasDefault() {
				return nil, fmt.Errorf("%w: %s: missing required field", ErrSchemaValidation, fieldPath)
			}
			val = field.Default()
		}

		cv, err := conform(field.Type(), val, fieldPath)
		if err != nil {
			return nil, err
		}
		out[field.Name()] = cv
	}

	return out, nil
}

// conformUnion picks the first branch, in declaration order, that accepts v.
func conformUnion(schema *avro.UnionSchema, v any, path string) (any, error) {
	for _, branch := range schema.Types() {
		cv, err := conform(branch, v, path)
		if err != nil {
			continue
		}
		return map[string]any{unionBranchName(branch): cv}, nil
	}

	return nil, fmt.Errorf("%w: %s: %s matches no branch of union %s",
		ErrSchemaValidation, path, describe(v), schema.String())
}

func conformFixed(schema *avro.FixedSchema, v any, path string) (any, error) {
	var raw []byte
	switch b := v.(type) {
	case string:
		raw = []byte(b)
	case []byte:
		raw = b
	default:
		return nil, mismatch(path, "fixed", v)
	}

	if len(raw) != schema.Size() {
		return nil, fmt.Errorf("%w: %s: fixed %s needs %d bytes, got %d",
			ErrSchemaValidation, path, schema.FullName(), schema.Size(), len(raw))
	}

	arr := reflect.New(reflect.ArrayOf(schema.Size(), reflect.TypeOf(byte(0)))).Elem()
	reflect.Copy(arr, reflect.ValueOf(raw))
	return arr.Interface(), nil
}

// unionBranchName returns the name the encoder uses to look up a union branch.
func unionBranchName(schema avro.Schema) string {
	if ref, ok := schema.(*avro.RefSchema); ok {
		var target avro.Schema = ref.Schema()
		schema = target
	}

	if named, ok := schema.(avro.NamedSchema); ok {
		return named.FullName()
	}

	name := string(schema.Type())
	if lts, ok := schema.(avro.LogicalTypeSchema); ok {
		if logical := lts.Logical(); logical != nil {
			name += "." + string(logical.Type())
		}
	}
	return name
}

func toInt64(v any, path, want string) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %s is not a valid %s", ErrSchemaValidation, path, n.String(), want)
		}
		return i, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s: %v is not a valid %s", ErrSchemaValidation, path, n, want)
		}
		return int64(n), nil
	}
	return 0, mismatch(path, want, v)
}

func toFloat64(v any, path, want string) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %s is not a valid %s", ErrSchemaValidation, path, n.String(), want)
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, mismatch(path, want, v)
}

func mismatch(path, want string, v any) error {
	return fmt.Errorf("%w: %s: expected %s, got %s", ErrSchemaValidation, path, want, describe(v))
}

// describe names a decoded JSON value by its JSON type.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, int, int32, int64, float32, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
