package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrUnsupportedPayload reports a payload the codecs cannot decode back to
// the same Go value. Structs, channels, typed slices other than []byte and
// maps other than map[string]any are rejected.
var ErrUnsupportedPayload = errors.New("unsupported payload type")

// Values JSON and YAML cannot carry natively are written as a one-key
// mapping {"$tag": value}. A payload map whose only key starts with "$" is
// wrapped in tagMap so it is never read back as a tag.
const (
	tagPrefix  = "$"
	tagBytes   = "$bytes"
	tagMap     = "$map"
	tagFloat32 = "$float32"
)

// intTypes maps integer tags to their Go types. Values travel as decimal
// strings so no decoder number handling can round them.
var intTypes = map[string]reflect.Type{
	"$int":    reflect.TypeOf(int(0)),
	"$int8":   reflect.TypeOf(int8(0)),
	"$int16":  reflect.TypeOf(int16(0)),
	"$int32":  reflect.TypeOf(int32(0)),
	"$int64":  reflect.TypeOf(int64(0)),
	"$uint":   reflect.TypeOf(uint(0)),
	"$uint8":  reflect.TypeOf(uint8(0)),
	"$uint16": reflect.TypeOf(uint16(0)),
	"$uint32": reflect.TypeOf(uint32(0)),
	"$uint64": reflect.TypeOf(uint64(0)),
}

// toTree converts a payload into a tree of nil, bool, string, float64,
// []any and map[string]any, tagging every other supported value.
func toTree(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, float64:
		return val, nil
	case float32:
		return tagged(tagFloat32, strconv.FormatFloat(float64(val), 'g', -1, 32)), nil
	case []byte:
		return tagged(tagBytes, base64.StdEncoding.EncodeToString(val)), nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			t, err := toTree(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = t
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			t, err := toTree(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = t
		}
		if _, ok := singleTag(out); ok {
			return tagged(tagMap, out), nil
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	tag := tagPrefix + rv.Kind().String()
	if t, ok := intTypes[tag]; ok && rv.Type() == t {
		if rv.CanInt() {
			return tagged(tag, strconv.FormatInt(rv.Int(), 10)), nil
		}
		return tagged(tag, strconv.FormatUint(rv.Uint(), 10)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, v)
}

// fromTree reverses toTree on a freshly decoded document. Bare numbers are
// float64 whatever type the decoder produced for them.
func fromTree(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, float64:
		return val, nil
	case json.Number:
		return val.Float64()
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			d, err := fromTree(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case map[string]any:
		if tag, ok := singleTag(val); ok {
			return untag(tag, val[tag])
		}
		return fromMap(val)
	}
	return nil, fmt.Errorf("unexpected decoded value of type %T", v)
}

func fromMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, e := range m {
		d, err := fromTree(e)
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	return out, nil
}

func untag(tag string, inner any) (any, error) {
	if tag == tagMap {
		m, ok := inner.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: want a mapping, got %T", tag, inner)
		}
		return fromMap(m)
	}

	s, ok := inner.(string)
	if !ok {
		return nil, fmt.Errorf("%s: want a string, got %T", tag, inner)
	}
	switch tag {
	case tagBytes:
		return base64.StdEncoding.DecodeString(s)
	case tagFloat32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	}

	t, ok := intTypes[tag]
	if !ok {
		return nil, fmt.Errorf("unknown value tag %q", tag)
	}
	out := reflect.New(t).Elem()
	if out.CanInt() {
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(n)
	} else {
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(n)
	}
	return out.Interface(), nil
}

func tagged(tag string, v any) map[string]any {
	return map[string]any{tag: v}
}

// singleTag reports the key of a one-key mapping whose key looks like a tag.
func singleTag(m map[string]any) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	for k := range m {
		return k, strings.HasPrefix(k, tagPrefix)
	}
	return "", false
}
