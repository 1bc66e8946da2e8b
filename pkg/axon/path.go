package axon

import (
	"strings"
)

// AxonPathPartType represents the type of path part
type AxonPathPartType int

const (
	StaticPart AxonPathPartType = iota
	ParameterPart
	WildcardPart
)

// AxonPathPart represents a single part of an Axon path
type AxonPathPart struct {
	Type      AxonPathPartType
	Value     string // literal text for static parts, parameter name otherwise
	ParamType string // declared type for parameters ("int", "uuid.UUID"), empty when untyped
}

// AxonPath is a route in Axon format, e.g. "/users/{id:int}/files/{*}".
type AxonPath string

// NewAxonPath creates a new AxonPath from a string
func NewAxonPath(path string) AxonPath {
	return AxonPath(path)
}

// Raw returns the original Axon path format
func (p AxonPath) Raw() string {
	return string(p)
}

// Parts splits the path into static, parameter and wildcard parts.
// An unterminated brace is kept as static text.
func (p AxonPath) Parts() []AxonPathPart {
	var parts []AxonPathPart
	rest := string(p)

	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open == -1 {
			parts = append(parts, AxonPathPart{Type: StaticPart, Value: rest})
			break
		}
		if open > 0 {
			parts = append(parts, AxonPathPart{Type: StaticPart, Value: rest[:open]})
		}

		inner, after, ok := strings.Cut(rest[open+1:], "}")
		if !ok {
			parts = append(parts, AxonPathPart{Type: StaticPart, Value: rest[open:]})
			break
		}

		if inner == "*" {
			parts = append(parts, AxonPathPart{Type: WildcardPart, Value: "*"})
		} else {
			name, typ, _ := strings.Cut(inner, ":")
			parts = append(parts, AxonPathPart{Type: ParameterPart, Value: name, ParamType: typ})
		}
		rest = after
	}

	return parts
}

// ParamNames returns the names of the route parameters in declaration order.
func (p AxonPath) ParamNames() []string {
	var names []string
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			names = append(names, part.Value)
		}
	}
	return names
}

// Format renders the path for a router that prefixes parameters with
// paramPrefix (":" for gin, echo and fiber) and spells wildcards as wildcard.
func (p AxonPath) Format(paramPrefix, wildcard string) string {
	var b strings.Builder
	for _, part := range p.Parts() {
		switch part.Type {
		case ParameterPart:
			b.WriteString(paramPrefix)
			b.WriteString(part.Value)
		case WildcardPart:
			b.WriteString(wildcard)
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String()
}
