package binding

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultMaxBodySize is the default limit for JSON request bodies (1MB).
const DefaultMaxBodySize = 1 << 20 // 1 MB

// Coercion selects how string-encoded scalars reach the binder.
type Coercion string

const (
	// CoercionStrict runs the heuristic normalizer: numeric-looking strings
	// become numbers and "true"/"false" become booleans before binding.
	CoercionStrict Coercion = "strict"
	// CoercionSchema only drops nil entries. The binder parses strings
	// according to each target field's type instead.
	CoercionSchema Coercion = "schema"
)

func (c *Coercion) UnmarshalText(text []byte) error {
	switch Coercion(text) {
	case CoercionStrict, CoercionSchema:
		*c = Coercion(text)
		return nil
	default:
		return fmt.Errorf("unknown coercion %q, expected %q or %q", text, CoercionStrict, CoercionSchema)
	}
}

// Config holds resolver settings shared by every declaration. It can be read
// from the environment with LoadConfig.
type Config struct {
	// MaxBodySize limits JSON bodies in bytes. Zero or less disables the limit.
	MaxBodySize int64 `env:"AXONBIND_MAX_BODY_SIZE" envDefault:"1048576"`

	Coercion Coercion `env:"AXONBIND_COERCION" envDefault:"strict"`

	// AllowExtraAttributes is the default for the allow_extra_attributes
	// serialization context key.
	AllowExtraAttributes bool `env:"AXONBIND_ALLOW_EXTRA_ATTRIBUTES" envDefault:"true"`
}

// DefaultConfig returns the settings used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:          DefaultMaxBodySize,
		Coercion:             CoercionStrict,
		AllowExtraAttributes: true,
	}
}

// LoadConfig reads Config from AXONBIND_* environment variables, falling back
// to the defaults for unset ones.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load binding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoadConfig is like LoadConfig but panics on error.
func MustLoadConfig() Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	switch c.Coercion {
	case CoercionStrict, CoercionSchema:
		return nil
	default:
		return fmt.Errorf("invalid binding config: unknown coercion %q", c.Coercion)
	}
}

func (c Config) normalizer() func(map[string]any) map[string]any {
	if c.Coercion == CoercionSchema {
		return DropNulls
	}
	return Normalize
}
