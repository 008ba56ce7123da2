// Package config loads the generator settings file
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tempusfrangit/go-packetgen/fixture"
	"github.com/tempusfrangit/go-packetgen/importer"
)

// DefaultSeed is the fixture seed used when neither the file nor a flag sets
// one
const DefaultSeed = 4

// Config holds generator settings from a YAML file, for example:
//
//	root: github.com/acme/protocol
//	seed: 4
//	thorough: false
//	maxVarLen: 4096000
//	small: [Vector4f]
//	overrides:
//	  - type: packets/world.SetBlock
//	    field: data
//	    codec: optional(var-bytes(1024))
type Config struct {
	Root      string     `yaml:"root"`
	Seed      int64      `yaml:"seed"`
	Thorough  bool       `yaml:"thorough"`
	MaxVarLen int        `yaml:"maxVarLen"`
	Small     []string   `yaml:"small"`
	Overrides []Override `yaml:"overrides"`
}

// Override replaces the codec of one field. Type is the declaring type's name
// relative to the model root.
type Override struct {
	Type  string `yaml:"type"`
	Field string `yaml:"field"`
	Codec string `yaml:"codec"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Location string
	Message  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// Default returns the settings used without a file
func Default() *Config {
	return &Config{Seed: DefaultSeed}
}

// Load reads the settings file at path. A missing file yields Default().
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return c, nil
}

// Validate checks every setting and returns all problems found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.MaxVarLen < 0 {
		errs = append(errs, ValidationError{
			Location: "maxVarLen",
			Message:  fmt.Sprintf("must not be negative, got %d", c.MaxVarLen),
		})
	}

	for i, name := range c.Small {
		if name == "" {
			errs = append(errs, ValidationError{Location: fmt.Sprintf("small[%d]", i), Message: "empty type name"})
		}
	}

	seen := make(map[importer.FieldKey]int)
	for i, o := range c.Overrides {
		loc := fmt.Sprintf("overrides[%d]", i)
		if o.Type == "" || o.Field == "" {
			errs = append(errs, ValidationError{Location: loc, Message: "type and field are required"})
			continue
		}
		key := importer.FieldKey{Type: o.Type, Field: o.Field}
		if first, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Location: loc,
				Message:  fmt.Sprintf("%s is already overridden by overrides[%d]", key, first),
			})
		}
		seen[key] = i
		if _, err := importer.ParseOverride(o.Codec); err != nil {
			errs = append(errs, ValidationError{Location: loc, Message: err.Error()})
		}
	}

	return errs
}

// ImporterOptions layers the file's settings over the built-in tables. File
// overrides replace built-in entries with the same key.
func (c *Config) ImporterOptions(debugf func(format string, args ...any)) (importer.Options, error) {
	overrides := importer.DefaultOverrides()
	for i, o := range c.Overrides {
		parsed, err := importer.ParseOverride(o.Codec)
		if err != nil {
			return importer.Options{}, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		overrides[importer.FieldKey{Type: o.Type, Field: o.Field}] = parsed
	}

	small := importer.DefaultSmallStructs()
	for _, name := range c.Small {
		small[name] = true
	}

	return importer.Options{
		Root:      c.Root,
		MaxVarLen: c.MaxVarLen,
		Overrides: overrides,
		Small:     small,
		Debugf:    debugf,
	}, nil
}

// FixtureCount is the number of fixtures captured per packet
func (c *Config) FixtureCount() int {
	if c.Thorough {
		return fixture.ThoroughCount
	}
	return fixture.DefaultCount
}
