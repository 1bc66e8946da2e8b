package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"

	"github.com/toyz/axonbind/pkg/axon"
)

// Resolver turns requests into bound, validated values of one DTO type
// according to a Declaration. It is safe for concurrent use.
type Resolver struct {
	decl         Declaration
	descriptor   *Descriptor
	context      SerializationContext
	config       Config
	logger       *slog.Logger
	registry     *DescriptorRegistry
	extractor    *Extractor
	denormalizer Denormalizer
	validator    RuleValidator
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for per-stage debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(r *Resolver) {
		r.config = cfg
	}
}

// WithValidator replaces the go-playground based StructValidator.
func WithValidator(v RuleValidator) Option {
	return func(r *Resolver) {
		r.validator = v
	}
}

// WithDenormalizer replaces the reflection Binder.
func WithDenormalizer(d Denormalizer) Option {
	return func(r *Resolver) {
		r.denormalizer = d
	}
}

// WithNameConverter sets the wire key converter of the default Binder.
func WithNameConverter(names NameConverter) Option {
	return func(r *Resolver) {
		r.denormalizer = NewBinder(WithNames(names), WithRegistry(r.registry))
	}
}

// WithDescriptorRegistry sets the registry the target descriptor comes from.
// It must precede WithNameConverter to reach the default Binder.
func WithDescriptorRegistry(registry *DescriptorRegistry) Option {
	return func(r *Resolver) {
		r.registry = registry
	}
}

// New creates a Resolver binding into target, a struct type or a pointer to
// one.
func New(decl Declaration, target reflect.Type, opts ...Option) (*Resolver, error) {
	if decl.Variant.Methods() == nil {
		return nil, fmt.Errorf("%w: unknown variant %d", ErrInvalidDeclaration, decl.Variant)
	}

	r := &Resolver{
		decl:     decl,
		config:   DefaultConfig(),
		logger:   slog.New(slog.DiscardHandler),
		registry: defaultRegistry,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	desc, err := r.registry.Describe(target)
	if err != nil {
		return nil, err
	}
	r.descriptor = desc

	if r.denormalizer == nil {
		r.denormalizer = NewBinder(WithRegistry(r.registry))
	}
	if r.validator == nil {
		r.validator = NewStructValidator(nil)
	}
	r.extractor = NewExtractor(r.config)

	r.context = SerializationContext{AllowExtraAttributes: r.config.AllowExtraAttributes}
	if r.config.Coercion == CoercionSchema {
		r.context[DisableTypeEnforcement] = true
	}
	maps.Copy(r.context, decl.SerializationContext)

	return r, nil
}

// NewFor creates a Resolver binding into T.
func NewFor[T any](decl Declaration, opts ...Option) (*Resolver, error) {
	return New(decl, reflect.TypeFor[T](), opts...)
}

// MustNewFor is like NewFor but panics on error.
func MustNewFor[T any](decl Declaration, opts ...Option) *Resolver {
	r, err := NewFor[T](decl, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Declaration returns the declaration the resolver was built from.
func (r *Resolver) Declaration() Declaration {
	return r.decl
}

// Descriptor returns the descriptor of the target type.
func (r *Resolver) Descriptor() *Descriptor {
	return r.descriptor
}

// Resolve runs the pipeline for one request and returns a single-element
// slice holding a pointer to the bound value. Invalid input yields a
// *ViolationError; a disallowed method yields a *MethodError before anything
// is read from the request.
func (r *Resolver) Resolve(rc axon.RequestContext) ([]any, error) {
	ctx := rc.Context()
	logger := r.logger.With("variant", r.decl.Variant.String(), "target", r.descriptor.Name)

	method := rc.Method()
	if err := CheckMethod(method, r.decl.Variant.Methods()); err != nil {
		logger.DebugContext(ctx, "method not allowed", "method", method)
		return nil, err
	}

	params, err := r.extract(rc)
	if err != nil {
		logger.DebugContext(ctx, "parameter extraction failed", "method", method, "error", err)
		return nil, err
	}
	logger.DebugContext(ctx, "parameters extracted", "method", method, "params", len(params))

	obj, err := r.denormalizer.Denormalize(params, r.descriptor, r.context)
	if err != nil {
		var partial *PartialBindError
		if errors.As(err, &partial) {
			verr := Diagnose(partial)
			logger.DebugContext(ctx, "binding failed", "violations", len(verr.Violations))
			return nil, verr
		}
		return nil, fmt.Errorf("failed to bind %s: %w", r.descriptor.Name, err)
	}

	violations, err := r.validator.Validate(obj, r.decl.ValidationGroups)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		logger.DebugContext(ctx, "validation failed", "violations", len(violations))
		return nil, &ViolationError{Kind: RuleViolation, Violations: violations}
	}

	return []any{obj}, nil
}

func (r *Resolver) extract(rc axon.RequestContext) (map[string]any, error) {
	if r.decl.Variant == VariantRead {
		return r.extractor.Read(rc), nil
	}
	return r.extractor.Write(rc, r.decl.AcceptFormats)
}

// Bind resolves rc and returns the bound value as *T.
func Bind[T any](r *Resolver, rc axon.RequestContext) (*T, error) {
	values, err := r.Resolve(rc)
	if err != nil {
		return nil, err
	}
	obj, ok := values[0].(*T)
	if !ok {
		return nil, fmt.Errorf("%w: resolver binds %T, not *%s", ErrInvalidTarget, values[0], reflect.TypeFor[T]())
	}
	return obj, nil
}
