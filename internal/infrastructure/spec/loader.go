// Package spec loads the user's environment specification: the channels,
// target platforms, and root dependency requests the lock derives from.
package spec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pinlock-dev/pinlock/internal/application/ports"
	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// specSchema validates the document shape before decoding, so structural
// mistakes surface as schema errors with locations instead of zero values.
const specSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["platforms", "dependencies"],
  "properties": {
    "channels": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "platforms": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "dependencies": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "version": {"type": "string"},
          "manager": {"enum": ["conda", "pip"]},
          "categories": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "platforms": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

type specDoc struct {
	Channels     []string     `yaml:"channels"`
	Platforms    []string     `yaml:"platforms"`
	Dependencies []depSpecDoc `yaml:"dependencies"`
}

type depSpecDoc struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Manager    string   `yaml:"manager"`
	Categories []string `yaml:"categories"`
	Platforms  []string `yaml:"platforms"`
}

// Loader reads and validates environment spec files.
type Loader struct{}

var _ ports.SpecSource = (*Loader)(nil)

// NewLoader creates a new spec loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a spec document, validates it against the schema, and builds
// the LockSpec with defaults applied: manager "conda" and category "main"
// unless declared otherwise.
func (l *Loader) Load(_ context.Context, path string) (*entities.LockSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}
	return l.parse(raw)
}

func (l *Loader) parse(raw []byte) (*entities.LockSpec, error) {
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc specDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding spec: %w", err)
	}

	platforms := make([]values.Platform, 0, len(doc.Platforms))
	for _, p := range doc.Platforms {
		platform, err := values.NewPlatform(p)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}

	spec := &entities.LockSpec{
		Channels: doc.Channels,
		Requests: make(map[values.Platform][]entities.RootRequest, len(platforms)),
	}
	for _, platform := range platforms {
		var requests []entities.RootRequest
		for _, dep := range doc.Dependencies {
			if !appliesTo(dep, platform) {
				continue
			}
			request, err := buildRequest(dep)
			if err != nil {
				return nil, err
			}
			requests = append(requests, request)
		}
		spec.Requests[platform] = requests
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func buildRequest(dep depSpecDoc) (entities.RootRequest, error) {
	name, err := values.NewPackageName(dep.Name)
	if err != nil {
		return entities.RootRequest{}, err
	}
	manager, err := values.NewManager(dep.Manager)
	if err != nil {
		return entities.RootRequest{}, fmt.Errorf("dependency %s: %w", dep.Name, err)
	}

	labels := dep.Categories
	if len(labels) == 0 {
		labels = []string{values.DefaultCategory}
	}
	categories, err := values.ParseCategorySet(labels)
	if err != nil {
		return entities.RootRequest{}, fmt.Errorf("dependency %s: %w", dep.Name, err)
	}

	return entities.NewRootRequest(name, dep.Version, manager, categories)
}

// appliesTo reports whether a dependency declaration targets the platform.
// No platform list means all of the spec's platforms.
func appliesTo(dep depSpecDoc, platform values.Platform) bool {
	if len(dep.Platforms) == 0 {
		return true
	}
	for _, p := range dep.Platforms {
		if strings.TrimSpace(p) == platform.String() {
			return true
		}
	}
	return false
}

func validateSchema(raw []byte) error {
	var loose any
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return fmt.Errorf("decoding spec: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("spec.json", bytes.NewReader([]byte(specSchema))); err != nil {
		return fmt.Errorf("loading spec schema: %w", err)
	}
	schema, err := compiler.Compile("spec.json")
	if err != nil {
		return fmt.Errorf("compiling spec schema: %w", err)
	}

	if err := schema.Validate(loose); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return formatSchemaError(validationErr)
		}
		return fmt.Errorf("spec validation failed: %w", err)
	}
	return nil
}

// formatSchemaError flattens a validation error tree into one message.
func formatSchemaError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return fmt.Errorf("spec validation failed")
	}
	return fmt.Errorf("spec validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}
