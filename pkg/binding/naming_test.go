package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnakeCaseConverter(t *testing.T) {
	conv := SnakeCaseConverter{}

	tests := []struct {
		property string
		key      string
	}{
		{"zipCode", "zip_code"},
		{"count", "count"},
		{"createdAtUtc", "created_at_utc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, conv.Normalize(tt.property))
		assert.Equal(t, tt.property, conv.Denormalize(tt.key))
	}

	assert.Equal(t, "zipCode", conv.Denormalize("zip__code"))
	assert.Equal(t, "id", conv.Denormalize("_id"))
	assert.Equal(t, "zipCode", conv.Denormalize("Zip_code"))
}

func TestIdentityConverter(t *testing.T) {
	conv := IdentityConverter{}
	assert.Equal(t, "zip_code", conv.Denormalize("zip_code"))
	assert.Equal(t, "zipCode", conv.Normalize("zipCode"))
}

func TestLowerCamel(t *testing.T) {
	tests := map[string]string{
		"Count":      "count",
		"ID":         "id",
		"UserID":     "userID",
		"URLPath":    "urlPath",
		"HTTPServer": "httpServer",
		"already":    "already",
	}
	for in, want := range tests {
		assert.Equal(t, want, lowerCamel(in), in)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Count":        "count",
		"ID":           "id",
		"UserID":       "user_id",
		"URLPath":      "url_path",
		"ZipCode":      "zip_code",
		"Address2Line": "address2_line",
	}
	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}
