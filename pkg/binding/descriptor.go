package binding

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// DefaultGroup is the validation group of fields without a groups tag.
const DefaultGroup = "Default"

// FieldDescriptor describes one bindable field of a DTO struct.
type FieldDescriptor struct {
	// Name is the target-side property name ("zipCode").
	Name string
	// GoName is the struct field name ("ZipCode").
	GoName string
	// WireName is the snake_case key documented for the field, or the
	// bind tag override.
	WireName string
	// Type is the declared Go type without the pointer marker.
	Type     string
	Nullable bool
	// Required is set when the validate tag contains "required".
	Required bool
	Groups   []string
	Index    int
	// Nested is set for struct-typed fields bound recursively.
	Nested *Descriptor

	rtype   reflect.Type
	tagged  bool
	grouped bool
}

// InGroups reports whether the field takes part in any of the given
// validation groups.
func (f *FieldDescriptor) InGroups(groups []string) bool {
	for _, g := range groups {
		for _, own := range f.Groups {
			if strings.EqualFold(g, own) {
				return true
			}
		}
	}
	return false
}

// Descriptor is the ordered field list of a DTO struct type.
type Descriptor struct {
	Type   reflect.Type
	Name   string
	Fields []FieldDescriptor

	byTag    map[string]int
	byName   map[string]int
	byGoName map[string]int
}

// lookup resolves a wire key to a field index. An explicit bind tag matches
// the key as is; otherwise the key is converted with names and compared with
// property names ignoring case.
func (d *Descriptor) lookup(key string, names NameConverter) (int, bool) {
	if i, ok := d.byTag[key]; ok {
		return i, true
	}
	i, ok := d.byName[strings.ToLower(names.Denormalize(key))]
	if ok && d.Fields[i].tagged {
		return 0, false
	}
	return i, ok
}

// FieldByGoName returns the field with the given struct field name.
func (d *Descriptor) FieldByGoName(name string) (*FieldDescriptor, bool) {
	i, ok := d.byGoName[name]
	if !ok {
		return nil, false
	}
	return &d.Fields[i], true
}

// DescriptorRegistry builds and caches descriptors per struct type. It is
// safe for concurrent use.
type DescriptorRegistry struct {
	cache sync.Map // reflect.Type -> *Descriptor
	mu    sync.Mutex
}

// NewDescriptorRegistry creates an empty registry.
func NewDescriptorRegistry() *DescriptorRegistry {
	return &DescriptorRegistry{}
}

var defaultRegistry = NewDescriptorRegistry()

// Describe returns the descriptor for t, which must be a struct type or a
// pointer to one.
func (r *DescriptorRegistry) Describe(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidTarget)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidTarget, t)
	}

	if cached, ok := r.cache.Load(t); ok {
		return cached.(*Descriptor), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache.Load(t); ok {
		return cached.(*Descriptor), nil
	}

	building := make(map[reflect.Type]*Descriptor)
	desc := r.build(t, building)
	for typ, d := range building {
		r.cache.Store(typ, d)
	}
	return desc, nil
}

func (r *DescriptorRegistry) build(t reflect.Type, building map[reflect.Type]*Descriptor) *Descriptor {
	if cached, ok := r.cache.Load(t); ok {
		return cached.(*Descriptor)
	}
	if d, ok := building[t]; ok {
		return d
	}

	desc := &Descriptor{
		Type:     t,
		Name:     t.Name(),
		byTag:    make(map[string]int),
		byName:   make(map[string]int),
		byGoName: make(map[string]int),
	}
	building[t] = desc

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("bind")
		if tag == "-" {
			continue
		}

		fieldType := sf.Type
		nullable := fieldType.Kind() == reflect.Pointer
		if nullable {
			fieldType = fieldType.Elem()
		}

		field := FieldDescriptor{
			Name:     lowerCamel(sf.Name),
			GoName:   sf.Name,
			WireName: snakeCase(sf.Name),
			Type:     fieldType.String(),
			Nullable: nullable,
			Required: hasRule(sf.Tag.Get("validate"), "required"),
			Groups:   []string{DefaultGroup},
			Index:    i,
			rtype:    sf.Type,
		}
		if tag != "" {
			field.WireName = tag
			field.tagged = true
		}
		if groups := sf.Tag.Get("groups"); groups != "" {
			field.Groups = splitList(groups)
			field.grouped = true
		}
		if nestedType, ok := nestedStruct(fieldType); ok {
			field.Nested = r.build(nestedType, building)
		}

		index := len(desc.Fields)
		desc.Fields = append(desc.Fields, field)
		desc.byGoName[sf.Name] = index
		if field.tagged {
			desc.byTag[tag] = index
		}
		if _, taken := desc.byName[strings.ToLower(field.Name)]; !taken {
			desc.byName[strings.ToLower(field.Name)] = index
		}
	}

	return desc
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// nestedStruct reports whether t is a struct bound key by key rather than
// from a scalar.
func nestedStruct(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	if _, ok := builtinConverters[t]; ok {
		return nil, false
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return nil, false
	}
	return t, true
}

func hasRule(tag, rule string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == rule {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
