package binding

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Variant selects the allowed methods and the extraction algorithm.
type Variant int

const (
	// VariantRead binds query and route parameters for GET and DELETE.
	VariantRead Variant = iota + 1
	// VariantWrite binds route parameters and the body for POST, PUT and PATCH.
	VariantWrite
)

func (v Variant) String() string {
	switch v {
	case VariantRead:
		return "read"
	case VariantWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Methods returns the HTTP methods the variant accepts.
func (v Variant) Methods() []string {
	switch v {
	case VariantRead:
		return ReadMethods
	case VariantWrite:
		return WriteMethods
	default:
		return nil
	}
}

// variantNames maps annotation keywords to variants.
var variantNames = map[string]Variant{
	"read":   VariantRead,
	"get":    VariantRead,
	"delete": VariantRead,
	"write":  VariantWrite,
	"post":   VariantWrite,
	"put":    VariantWrite,
	"patch":  VariantWrite,
}

// Declaration configures how one handler parameter is resolved. Build it with
// Read or Write, or parse it from an annotation; treat it as immutable.
type Declaration struct {
	Variant              Variant
	AcceptFormats        []string
	SerializationContext SerializationContext
	ValidationGroups     Groups
}

// DeclarationOption configures a Declaration.
type DeclarationOption func(*Declaration)

// Read declares a read-variant binding.
func Read(opts ...DeclarationOption) Declaration {
	return newDeclaration(VariantRead, opts)
}

// Write declares a write-variant binding.
func Write(opts ...DeclarationOption) Declaration {
	return newDeclaration(VariantWrite, opts)
}

func newDeclaration(variant Variant, opts []DeclarationOption) Declaration {
	d := Declaration{Variant: variant, SerializationContext: SerializationContext{}}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithAcceptFormats restricts the body formats a write binding accepts.
func WithAcceptFormats(formats ...string) DeclarationOption {
	return func(d *Declaration) {
		d.AcceptFormats = append(slices.Clone(d.AcceptFormats), formats...)
	}
}

// WithValidationGroups validates the given groups together.
func WithValidationGroups(groups ...string) DeclarationOption {
	return func(d *Declaration) {
		d.ValidationGroups = Groups{Names: slices.Clone(groups)}
	}
}

// WithGroupSequence validates the given groups in order, stopping at the
// first one with violations.
func WithGroupSequence(groups ...string) DeclarationOption {
	return func(d *Declaration) {
		d.ValidationGroups = Groups{Names: slices.Clone(groups), Sequence: true}
	}
}

// WithSerializationContext merges ctx into the declaration's context.
func WithSerializationContext(ctx map[string]any) DeclarationOption {
	return func(d *Declaration) {
		merged := maps.Clone(d.SerializationContext)
		if merged == nil {
			merged = SerializationContext{}
		}
		maps.Copy(merged, ctx)
		d.SerializationContext = merged
	}
}

// String renders the declaration as an annotation that ParseDeclaration reads
// back to an equal declaration.
func (d Declaration) String() string {
	var b strings.Builder
	b.WriteString("//axon::bind ")
	b.WriteString(d.Variant.String())

	if len(d.AcceptFormats) > 0 {
		b.WriteString(" -Accept=")
		b.WriteString(joinValues(d.AcceptFormats))
	}
	if len(d.ValidationGroups.Names) > 0 {
		b.WriteString(" -Groups=")
		b.WriteString(joinValues(d.ValidationGroups.Names))
	}
	if d.ValidationGroups.Sequence {
		b.WriteString(" -Sequence")
	}
	if len(d.SerializationContext) > 0 {
		pairs := make([]string, 0, len(d.SerializationContext))
		for _, key := range slices.Sorted(maps.Keys(d.SerializationContext)) {
			pairs = append(pairs, quoteValue(key)+":"+quoteValue(fmt.Sprint(d.SerializationContext[key])))
		}
		b.WriteString(" -Context=")
		b.WriteString(strings.Join(pairs, ","))
	}
	return b.String()
}

func joinValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteValue(v)
	}
	return strings.Join(quoted, ",")
}

func quoteValue(v string) string {
	if bareValue.MatchString(v) {
		return v
	}
	return fmt.Sprintf("%q", v)
}

// Annotation grammar:
//
//	//axon::bind <variant> [-Accept=json,form] [-Groups=a,b] [-Sequence] [-Context=key:value,...]
//
// The "//axon::bind" prefix is optional.
type bindAnnotation struct {
	Variant string        `parser:"( Comment? 'axon' Separator 'bind' )? @Ident"`
	Options []*bindOption `parser:"@@*"`
}

type bindOption struct {
	Pos    lexer.Position
	Name   string       `parser:"'-' @Ident"`
	Values []*bindValue `parser:"( '=' @@ ( ',' @@ )* )?"`
}

type bindValue struct {
	Key   string  `parser:"@( Ident | String | Number )"`
	Value *string `parser:"( ':' @( Ident | String | Number ) )?"`
}

var bindLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Separator", Pattern: `::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Punct", Pattern: `[-=,:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// bareValue matches values that lex as a single Ident or Number token.
var bareValue = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_.]*|[0-9]+(\.[0-9]+)?)$`)

var bindParser = participle.MustBuild[bindAnnotation](
	participle.Lexer(bindLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// ParseDeclaration parses an annotation such as
//
//	//axon::bind write -Accept=json -Groups=Default,create -Sequence -Context=allow_extra_attributes:false
//
// Option names are case-insensitive. Context values "true"/"false" and
// numbers are converted to native values.
func ParseDeclaration(text string) (Declaration, error) {
	ann, err := bindParser.ParseString("", strings.TrimSpace(text))
	if err != nil {
		return Declaration{}, fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)
	}

	variant, ok := variantNames[strings.ToLower(ann.Variant)]
	if !ok {
		return Declaration{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidDeclaration, ann.Variant)
	}

	decl := Declaration{Variant: variant, SerializationContext: SerializationContext{}}
	for _, opt := range ann.Options {
		if err := applyOption(&decl, opt); err != nil {
			return Declaration{}, fmt.Errorf("%w: %s: %v", ErrInvalidDeclaration, opt.Pos, err)
		}
	}
	return decl, nil
}

// MustParseDeclaration is like ParseDeclaration but panics on error.
func MustParseDeclaration(text string) Declaration {
	decl, err := ParseDeclaration(text)
	if err != nil {
		panic(err)
	}
	return decl
}

func applyOption(decl *Declaration, opt *bindOption) error {
	switch strings.ToLower(opt.Name) {
	case "accept", "format":
		formats, err := plainValues(opt)
		if err != nil {
			return err
		}
		for _, f := range formats {
			if !KnownFormat(f) {
				return fmt.Errorf("unknown format %q", f)
			}
		}
		decl.AcceptFormats = append(decl.AcceptFormats, formats...)

	case "groups":
		groups, err := plainValues(opt)
		if err != nil {
			return err
		}
		decl.ValidationGroups.Names = append(decl.ValidationGroups.Names, groups...)

	case "sequence":
		if len(opt.Values) > 0 {
			return fmt.Errorf("-%s takes no value", opt.Name)
		}
		decl.ValidationGroups.Sequence = true

	case "context":
		if len(opt.Values) == 0 {
			return fmt.Errorf("-%s requires key:value pairs", opt.Name)
		}
		raw := make(map[string]any, len(opt.Values))
		for _, v := range opt.Values {
			if v.Value == nil {
				raw[v.Key] = "true"
				continue
			}
			raw[v.Key] = *v.Value
		}
		maps.Copy(decl.SerializationContext, Normalize(raw))

	default:
		return fmt.Errorf("unknown option -%s", opt.Name)
	}
	return nil
}

func plainValues(opt *bindOption) ([]string, error) {
	if len(opt.Values) == 0 {
		return nil, fmt.Errorf("-%s requires a value", opt.Name)
	}
	values := make([]string, 0, len(opt.Values))
	for _, v := range opt.Values {
		if v.Value != nil {
			return nil, fmt.Errorf("-%s does not take key:value pairs", opt.Name)
		}
		values = append(values, v.Key)
	}
	return values, nil
}
