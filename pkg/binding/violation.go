package binding

import (
	"strings"
)

// Violation is a single diagnostic for one field, or for the whole object
// when Field is empty.
type Violation struct {
	Message      string `json:"message"`
	Field        string `json:"field"`
	InvalidValue any    `json:"invalidValue,omitempty"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// ViolationList is an ordered set of violations. An empty list means valid.
type ViolationList []Violation

func (l ViolationList) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Fields returns the field names in list order.
func (l ViolationList) Fields() []string {
	fields := make([]string, len(l))
	for i, v := range l {
		fields[i] = v.Field
	}
	return fields
}

// ByField returns the violations reported for field.
func (l ViolationList) ByField(field string) ViolationList {
	var out ViolationList
	for _, v := range l {
		if v.Field == field {
			out = append(out, v)
		}
	}
	return out
}
