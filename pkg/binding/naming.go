package binding

import (
	"strings"
	"unicode"
)

// NameConverter translates between target-side property names and wire keys.
type NameConverter interface {
	// Normalize converts a property name to its wire key.
	Normalize(propertyName string) string
	// Denormalize converts a wire key to a property name.
	Denormalize(key string) string
}

// SnakeCaseConverter maps camelCase property names to snake_case keys.
// "zipCode" <-> "zip_code".
type SnakeCaseConverter struct{}

func (SnakeCaseConverter) Normalize(propertyName string) string {
	var b strings.Builder
	for i, r := range propertyName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Denormalize drops underscores and upper-cases the letter after each run of
// them. The first letter is lower-cased.
func (SnakeCaseConverter) Denormalize(key string) string {
	var b strings.Builder
	upper := false
	for _, r := range key {
		if r == '_' {
			upper = b.Len() > 0
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		} else if b.Len() == 0 {
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IdentityConverter leaves names untouched.
type IdentityConverter struct{}

func (IdentityConverter) Normalize(propertyName string) string { return propertyName }
func (IdentityConverter) Denormalize(key string) string        { return key }

// lowerCamel converts an exported Go name to its target-side property name,
// keeping initialisms together: "ID" -> "id", "URLPath" -> "urlPath",
// "UserID" -> "userID".
func lowerCamel(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return name
	case n == 1 || n == len(runes):
		// single leading capital, or the whole name is an initialism
	default:
		// the last capital of a run starts the next word
		if unicode.IsLower(runes[n]) {
			n--
		}
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// snakeCase converts an exported Go name to a snake_case wire key, keeping
// initialisms together: "UserID" -> "user_id", "URLPath" -> "url_path".
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
