package binding

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type describedAddress struct {
	ZipCode string `validate:"required"`
}

type describedUser struct {
	ID       int
	Nickname *string
	Email    string `validate:"required,email" groups:"create, update"`
	APIKey   string `bind:"key"`
	Secret   string `bind:"-"`
	Address  describedAddress
	Shipping *describedAddress
	Token    uuid.UUID
	Created  time.Time
	hidden   string
}

type describedNode struct {
	Name     string
	Children []describedNode
	Parent   *describedNode
}

func TestDescriptorRegistry_Describe(t *testing.T) {
	desc, err := NewDescriptorRegistry().Describe(reflect.TypeFor[describedUser]())
	require.NoError(t, err)

	assert.Equal(t, "describedUser", desc.Name)

	names := make([]string, len(desc.Fields))
	for i, f := range desc.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"id", "nickname", "email", "apiKey", "address", "shipping", "token", "created"}, names)

	nickname := desc.Fields[1]
	assert.Equal(t, "string", nickname.Type)
	assert.True(t, nickname.Nullable)
	assert.False(t, nickname.Required)
	assert.Equal(t, []string{DefaultGroup}, nickname.Groups)

	email := desc.Fields[2]
	assert.True(t, email.Required)
	assert.Equal(t, []string{"create", "update"}, email.Groups)
	assert.Equal(t, "email", email.WireName)

	apiKey := desc.Fields[3]
	assert.Equal(t, "key", apiKey.WireName)
	assert.Equal(t, "APIKey", apiKey.GoName)

	address := desc.Fields[4]
	require.NotNil(t, address.Nested)
	assert.Equal(t, "zipCode", address.Nested.Fields[0].Name)
	assert.Equal(t, "binding.describedAddress", address.Type)

	shipping := desc.Fields[5]
	assert.True(t, shipping.Nullable)
	assert.Same(t, address.Nested, shipping.Nested)

	assert.Nil(t, desc.Fields[6].Nested, "uuid is a scalar")
	assert.Equal(t, "uuid.UUID", desc.Fields[6].Type)
	assert.Nil(t, desc.Fields[7].Nested, "time is a scalar")
}

func TestDescriptorRegistry_PointerAndErrors(t *testing.T) {
	reg := NewDescriptorRegistry()

	byValue, err := reg.Describe(reflect.TypeFor[describedUser]())
	require.NoError(t, err)
	byPointer, err := reg.Describe(reflect.TypeFor[*describedUser]())
	require.NoError(t, err)
	assert.Same(t, byValue, byPointer)

	_, err = reg.Describe(reflect.TypeFor[int]())
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = reg.Describe(nil)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestDescriptorRegistry_RecursiveType(t *testing.T) {
	desc, err := NewDescriptorRegistry().Describe(reflect.TypeFor[describedNode]())
	require.NoError(t, err)

	parent, ok := desc.FieldByGoName("Parent")
	require.True(t, ok)
	assert.Same(t, desc, parent.Nested)

	children, ok := desc.FieldByGoName("Children")
	require.True(t, ok)
	assert.Nil(t, children.Nested, "slices are bound element by element")
}

func TestDescriptor_Lookup(t *testing.T) {
	desc, err := NewDescriptorRegistry().Describe(reflect.TypeFor[describedUser]())
	require.NoError(t, err)
	names := SnakeCaseConverter{}

	tests := []struct {
		key   string
		field string
		ok    bool
	}{
		{"id", "ID", true},
		{"nickname", "Nickname", true},
		{"zip_code", "", false},
		{"key", "APIKey", true},
		{"api_key", "", false},
		{"secret", "", false},
		{"hidden", "", false},
		{"ADDRESS", "Address", true},
	}

	for _, tt := range tests {
		i, ok := desc.lookup(tt.key, names)
		assert.Equal(t, tt.ok, ok, tt.key)
		if ok {
			assert.Equal(t, tt.field, desc.Fields[i].GoName, tt.key)
		}
	}
}

func TestDescriptorRegistry_ConcurrentDescribe(t *testing.T) {
	reg := NewDescriptorRegistry()

	var wg sync.WaitGroup
	results := make([]*Descriptor, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = reg.Describe(reflect.TypeFor[describedUser]())
		}()
	}
	wg.Wait()

	for _, d := range results {
		assert.Same(t, results[0], d)
	}
}

func TestFieldDescriptor_InGroups(t *testing.T) {
	f := FieldDescriptor{Groups: []string{"create"}}
	assert.True(t, f.InGroups([]string{"Default", "create"}))
	assert.True(t, f.InGroups([]string{"CREATE"}))
	assert.False(t, f.InGroups([]string{"Default"}))
}
