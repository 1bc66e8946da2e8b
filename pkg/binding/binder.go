package binding

import (
	"encoding"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Serialization context keys understood by Binder.
const (
	// AllowExtraAttributes controls whether keys matching no field are
	// ignored (true, the default) or reported as failures.
	AllowExtraAttributes = "allow_extra_attributes"
	// DisableTypeEnforcement lets the binder parse strings into numeric and
	// boolean fields instead of rejecting them.
	DisableTypeEnforcement = "disable_type_enforcement"
)

// SerializationContext holds options passed to a Denormalizer.
type SerializationContext map[string]any

// Bool returns the boolean value of key, or fallback when the key is absent
// or not boolean-like.
func (c SerializationContext) Bool(key string, fallback bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case int64:
		return v != 0
	case int:
		return v != 0
	}
	return fallback
}

// Denormalizer binds a parameter map onto a new value of desc's type. It
// returns a pointer to the value, or a *PartialBindError listing every field
// that could not be bound.
type Denormalizer interface {
	Denormalize(data map[string]any, desc *Descriptor, ctx SerializationContext) (any, error)
}

var errTypeMismatch = errors.New("type mismatch")

// Binder is the reflection-based Denormalizer.
type Binder struct {
	names      NameConverter
	registry   *DescriptorRegistry
	converters map[reflect.Type]ConverterFunc
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithNames sets the converter applied to wire keys before matching fields.
func WithNames(names NameConverter) BinderOption {
	return func(b *Binder) {
		b.names = names
	}
}

// WithRegistry sets the registry used for nested struct types.
func WithRegistry(registry *DescriptorRegistry) BinderOption {
	return func(b *Binder) {
		b.registry = registry
	}
}

// WithConverter registers a string converter for fields of type T.
func WithConverter[T any](fn func(value string) (T, error)) BinderOption {
	return func(b *Binder) {
		b.converters[reflect.TypeFor[T]()] = func(value string) (any, error) {
			return fn(value)
		}
	}
}

// NewBinder creates a Binder that maps snake_case keys onto camelCase fields.
func NewBinder(opts ...BinderOption) *Binder {
	b := &Binder{
		names:      SnakeCaseConverter{},
		registry:   defaultRegistry,
		converters: maps.Clone(builtinConverters),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type bindState struct {
	allowExtra bool
	lenient    bool
	failures   []FieldFailure
}

// Denormalize implements Denormalizer. Every field is attempted; fields
// absent from data keep their zero value.
func (b *Binder) Denormalize(data map[string]any, desc *Descriptor, ctx SerializationContext) (any, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrInvalidTarget)
	}

	st := &bindState{
		allowExtra: ctx.Bool(AllowExtraAttributes, true),
		lenient:    ctx.Bool(DisableTypeEnforcement, false),
	}

	target := reflect.New(desc.Type)
	b.bindStruct(target.Elem(), desc, data, "", st)

	if len(st.failures) > 0 {
		return nil, &PartialBindError{Object: target.Interface(), Failures: st.failures}
	}
	return target.Interface(), nil
}

// bindStruct fills v from data. Keys are matched in sorted order and the
// first key claiming a field wins; fields are then bound in declaration order.
func (b *Binder) bindStruct(v reflect.Value, desc *Descriptor, data map[string]any, prefix string, st *bindState) {
	claimed := make(map[int]string, len(data))
	var extras []string
	for _, key := range slices.Sorted(maps.Keys(data)) {
		i, ok := desc.lookup(key, b.names)
		if !ok {
			extras = append(extras, key)
			continue
		}
		if _, taken := claimed[i]; !taken {
			claimed[i] = key
		}
	}

	for i := range desc.Fields {
		key, ok := claimed[i]
		if !ok {
			continue
		}
		field := &desc.Fields[i]
		path := joinPath(prefix, field.Name)

		value, err := b.bindValue(data[key], field.rtype, path, st)
		if err != nil {
			st.failures = append(st.failures, FieldFailure{
				Path:     path,
				Expected: field.Type,
				Nullable: field.Nullable,
				Value:    data[key],
				Reason:   TypeMismatch,
				Err:      err,
			})
			continue
		}
		v.Field(field.Index).Set(value)
	}

	if st.allowExtra {
		return
	}
	for _, key := range extras {
		st.failures = append(st.failures, FieldFailure{
			Path:   joinPath(prefix, key),
			Value:  data[key],
			Reason: ExtraAttribute,
			Err:    fmt.Errorf("unexpected attribute %q", key),
		})
	}
}

// bindValue converts raw into a value of type t. Struct values are bound key
// by key and record their own failures; any other conversion problem is
// returned for the caller to attribute to its field.
func (b *Binder) bindValue(raw any, t reflect.Type, path string, st *bindState) (reflect.Value, error) {
	if raw == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, mismatch(raw, t)
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := b.bindValue(raw, t.Elem(), path, st)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil

	case reflect.Interface:
		rv := reflect.ValueOf(raw)
		if !rv.Type().Implements(t) {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	if fn, ok := b.converters[t]; ok {
		if s, isString := raw.(string); isString {
			out, err := fn(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", errTypeMismatch, err)
			}
			return reflect.ValueOf(out).Convert(t), nil
		}
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		if s, isScalar := scalarString(raw); isScalar {
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", errTypeMismatch, err)
			}
			return ptr.Elem(), nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		s, ok := scalarString(raw)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		return reflect.ValueOf(s).Convert(t), nil

	case reflect.Bool:
		v, ok := asBool(raw, st.lenient)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		return reflect.ValueOf(v).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := asInt(raw, st.lenient)
		out := reflect.New(t).Elem()
		if !ok || out.OverflowInt(n) {
			return reflect.Value{}, mismatch(raw, t)
		}
		out.SetInt(n)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := asInt(raw, st.lenient)
		out := reflect.New(t).Elem()
		if !ok || n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, mismatch(raw, t)
		}
		out.SetUint(uint64(n))
		return out, nil

	case reflect.Float32, reflect.Float64:
		f, ok := asFloat(raw, st.lenient)
		out := reflect.New(t).Elem()
		if !ok || out.OverflowFloat(f) {
			return reflect.Value{}, mismatch(raw, t)
		}
		out.SetFloat(f)
		return out, nil

	case reflect.Slice:
		return b.bindSlice(raw, t, path, st)

	case reflect.Map:
		return b.bindMap(raw, t, path, st)

	case reflect.Struct:
		data, ok := raw.(map[string]any)
		if _, nested := nestedStruct(t); !ok || !nested {
			return reflect.Value{}, mismatch(raw, t)
		}
		desc, err := b.registry.Describe(t)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		b.bindStruct(out, desc, data, path, st)
		return out, nil
	}

	return reflect.Value{}, mismatch(raw, t)
}

// bindSlice binds lists, index-keyed maps ("items[0]=a") and lone values,
// which become one-element slices. A failing element fails the whole field.
func (b *Binder) bindSlice(raw any, t reflect.Type, path string, st *bindState) (reflect.Value, error) {
	if t.Elem().Kind() == reflect.Uint8 {
		if s, ok := raw.(string); ok {
			return reflect.ValueOf([]byte(s)).Convert(t), nil
		}
	}

	items, ok := listItems(raw)
	if !ok {
		if _, isMap := raw.(map[string]any); isMap {
			return reflect.Value{}, mismatch(raw, t)
		}
		items = []any{raw}
	}

	out := reflect.MakeSlice(t, len(items), len(items))
	for i, item := range items {
		elem, err := b.bindValue(item, t.Elem(), fmt.Sprintf("%s[%d]", path, i), st)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func (b *Binder) bindMap(raw any, t reflect.Type, path string, st *bindState) (reflect.Value, error) {
	data, ok := raw.(map[string]any)
	if !ok || t.Key().Kind() != reflect.String {
		return reflect.Value{}, mismatch(raw, t)
	}

	out := reflect.MakeMapWithSize(t, len(data))
	for _, key := range slices.Sorted(maps.Keys(data)) {
		elem, err := b.bindValue(data[key], t.Elem(), joinPath(path, key), st)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
	}
	return out, nil
}

// listItems returns the elements of a list, or of a map whose keys are all
// list indexes.
func listItems(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case map[string]any:
		indexes := make(map[int]any, len(v))
		for key, item := range v {
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 {
				return nil, false
			}
			indexes[i] = item
		}
		items := make([]any, 0, len(indexes))
		for _, i := range slices.Sorted(maps.Keys(indexes)) {
			items = append(items, indexes[i])
		}
		return items, len(items) > 0
	}
	return nil, false
}

// scalarString renders strings, numbers and booleans as text.
func scalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return string(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func asInt(raw any, lenient bool) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if lenient && v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v), true
		}
	case string:
		if lenient {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			return n, err == nil
		}
	}
	return 0, false
}

func asFloat(raw any, lenient bool) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		if lenient {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return f, err == nil
		}
	}
	return 0, false
}

func asBool(raw any, lenient bool) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		if !lenient {
			return false, false
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "on", "yes":
			return true, true
		case "0", "false", "off", "no", "":
			return false, true
		}
	case int64:
		if lenient && (v == 0 || v == 1) {
			return v == 1, true
		}
	}
	return false, false
}

func mismatch(raw any, t reflect.Type) error {
	if raw == nil {
		return fmt.Errorf("%w: cannot use null as %s", errTypeMismatch, t)
	}
	return fmt.Errorf("%w: cannot use %T as %s", errTypeMismatch, raw, t)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
