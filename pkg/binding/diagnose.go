package binding

import "fmt"

// Messages produced for binding failures.
const (
	msgTypeMismatch         = "Invalid parameter type. Expected `%s`"
	msgNullableTypeMismatch = "Invalid parameter type. Expected `%s` or null"
	msgExtraAttribute       = "This field was not expected."
)

// Diagnose turns the failures of a partial bind into one violation per
// field, preserving their order.
func Diagnose(err *PartialBindError) *ViolationError {
	violations := make(ViolationList, 0, len(err.Failures))
	for _, f := range err.Failures {
		violations = append(violations, Violation{
			Message:      failureMessage(f),
			Field:        f.Path,
			InvalidValue: f.Value,
		})
	}
	return &ViolationError{Kind: BindViolation, Violations: violations}
}

func failureMessage(f FieldFailure) string {
	switch {
	case f.Reason == ExtraAttribute:
		return msgExtraAttribute
	case f.Nullable:
		return fmt.Sprintf(msgNullableTypeMismatch, f.Expected)
	default:
		return fmt.Sprintf(msgTypeMismatch, f.Expected)
	}
}
