package binding

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Groups selects the validation groups applied to a bound value. The zero
// value means the Default group.
type Groups struct {
	Names []string
	// Sequence validates the groups one at a time, in order, stopping at the
	// first group that reports violations.
	Sequence bool
}

// Active returns the group names to validate, defaulting to Default.
func (g Groups) Active() []string {
	if len(g.Names) == 0 {
		return []string{DefaultGroup}
	}
	return g.Names
}

// RuleValidator checks business rules on a bound value.
type RuleValidator interface {
	Validate(obj any, groups Groups) (ViolationList, error)
}

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator instance. Field names in its
// errors are target-side property names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			return lowerCamel(field.Name)
		})
	})
	return validate
}

// StructValidator validates structs with go-playground/validator `validate`
// tags. Fields opt into groups with a `groups:"create,update"` tag; fields
// without one belong to Default. Untagged struct-typed fields are always
// descended into so their own grouped rules apply.
type StructValidator struct {
	validate *validator.Validate
	registry *DescriptorRegistry
}

// NewStructValidator creates a StructValidator. A nil v uses GetValidator.
func NewStructValidator(v *validator.Validate) *StructValidator {
	if v == nil {
		v = GetValidator()
	}
	return &StructValidator{validate: v, registry: defaultRegistry}
}

// Validate implements RuleValidator.
func (sv *StructValidator) Validate(obj any, groups Groups) (ViolationList, error) {
	desc, err := sv.registry.Describe(reflect.TypeOf(obj))
	if err != nil {
		return nil, err
	}

	if !groups.Sequence {
		return sv.validateGroups(obj, desc, groups.Active())
	}
	for _, group := range groups.Active() {
		violations, err := sv.validateGroups(obj, desc, []string{group})
		if err != nil || len(violations) > 0 {
			return violations, err
		}
	}
	return nil, nil
}

func (sv *StructValidator) validateGroups(obj any, desc *Descriptor, active []string) (ViolationList, error) {
	err := sv.validate.StructFiltered(obj, func(ns []byte) bool {
		return skipField(desc, string(ns), active)
	})
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("failed to validate %s: %w", desc.Name, err)
	}

	violations := make(ViolationList, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			Message:      translateError(fe),
			Field:        fieldPath(fe.Namespace()),
			InvalidValue: fe.Value(),
		})
	}
	return violations, nil
}

// skipField reports whether the field at the struct namespace ns
// ("Order.Items[0].SKU") is outside the active groups.
func skipField(desc *Descriptor, ns string, active []string) bool {
	segments := strings.Split(stripIndexes(ns), ".")
	if len(segments) < 2 {
		return false
	}

	current := desc
	var field *FieldDescriptor
	for _, name := range segments[1:] {
		if current == nil {
			return false
		}
		f, ok := current.FieldByGoName(name)
		if !ok {
			return false
		}
		field = f
		current = f.Nested
	}

	if field.Nested != nil && !field.grouped {
		return false
	}
	return !field.InGroups(active)
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func stripIndexes(ns string) string {
	var b strings.Builder
	depth := 0
	for _, r := range ns {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// errorMessageTemplates maps validation tags to message templates.
// Templates use %s for the field name.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
	"uuid":     "%s must be a valid UUID",
	"datetime": "%s must be a valid date/time",
	"alpha":    "%s must contain only letters",
	"alphanum": "%s must contain only letters and digits",
	"numeric":  "%s must be numeric",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"eq":    "%s must be equal to %s",
	"ne":    "%s must not be equal to %s",
	"len":   "%s must have length %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	var unit string
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		unit = " items"
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
