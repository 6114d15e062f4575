package schema

import (
	"fmt"
	"sort"

	"github.com/iancoleman/strcase"
)

// Schema maps field names to field definitions.
// Definitions are arbitrary JSON-compatible values.
type Schema map[string]any

// Normalizer rewrites a schema into a canonical naming convention.
// Implementations must not modify their input.
type Normalizer func(Schema) (Schema, error)

// CamelCase rewrites every key, at every nesting level, to lowerCamelCase.
var CamelCase = ByKeys(strcase.ToLowerCamel)

// SnakeCase rewrites every key, at every nesting level, to snake_case.
var SnakeCase = ByKeys(strcase.ToSnake)

// ByKeys builds a Normalizer that applies convert to every map key,
// recursing into nested maps and into maps held in slices.
// Values other than maps and slices are carried over unchanged.
func ByKeys(convert func(string) string) Normalizer {
	return func(s Schema) (Schema, error) {
		if s == nil {
			return nil, fmt.Errorf("%w: schema is nil", ErrNormalization)
		}
		out, err := normalizeMap(s, convert, "")
		if err != nil {
			return nil, err
		}
		return Schema(out), nil
	}
}

func normalizeMap(in map[string]any, convert func(string) string, path string) (map[string]any, error) {
	// Walk keys in order so collision errors are deterministic.
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(in))
	source := make(map[string]string, len(in))
	for _, k := range keys {
		nk := convert(k)
		if nk == "" {
			return nil, fmt.Errorf("%w: key %q at %s has no canonical form", ErrNormalization, k, pathOrRoot(path))
		}
		if prev, dup := source[nk]; dup {
			return nil, fmt.Errorf("%w: keys %q and %q both map to %q at %s",
				ErrNormalization, prev, k, nk, pathOrRoot(path))
		}
		source[nk] = k

		v, err := normalizeValue(in[k], convert, joinPath(path, nk))
		if err != nil {
			return nil, err
		}
		out[nk] = v
	}
	return out, nil
}

func normalizeValue(v any, convert func(string) string, path string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val, convert, path)
	case Schema:
		return normalizeMap(val, convert, path)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeValue(elem, convert, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func pathOrRoot(path string) string {
	if path == "" {
		return "root"
	}
	return path
}
