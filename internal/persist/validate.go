package persist

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ValidationResult reports whether a stored document is structurally sound.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func builtinSchemas() (map[Document]*jsonschema.Schema, error) {
	out := make(map[Document]*jsonschema.Schema, len(Documents))
	for _, d := range Documents {
		src, err := schemaFS.ReadFile("schemas/" + string(d) + ".json")
		if err != nil {
			return nil, err
		}
		sch, err := CompileSchema(string(d), src)
		if err != nil {
			return nil, err
		}
		out[d] = sch
	}
	return out, nil
}

// CompileSchema compiles a JSON Schema document. name identifies the
// schema in error messages.
func CompileSchema(name string, src []byte) (*jsonschema.Schema, error) {
	url := "mem://taskflow/" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(string(src))); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return sch, nil
}

// SchemaFor returns the built-in structural schema of doc.
func (s *Store) SchemaFor(doc Document) *jsonschema.Schema {
	return s.schemas[doc]
}

// Validate checks the value stored at key against schema. A missing value
// is valid except for the settings document, which must always exist.
func (s *Store) Validate(key string, schema *jsonschema.Schema) ValidationResult {
	raw, ok, err := s.medium.Get(key)
	if err != nil {
		return ValidationResult{Reason: "read failed: " + err.Error()}
	}
	if !ok {
		if doc, known := s.documentFor(key); known && doc == DocSettings {
			return ValidationResult{Reason: "no settings found"}
		}
		return ValidationResult{Valid: true}
	}
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return ValidationResult{Reason: "malformed JSON: " + err.Error()}
	}
	tree = unwrapEnvelope(tree)
	if schema == nil {
		return ValidationResult{Valid: true}
	}
	if err := schema.Validate(tree); err != nil {
		return ValidationResult{Reason: schemaReason(err)}
	}
	return ValidationResult{Valid: true}
}

// ValidateAll validates every document with its built-in schema.
func (s *Store) ValidateAll() map[Document]ValidationResult {
	out := make(map[Document]ValidationResult, len(Documents))
	for _, d := range Documents {
		out[d] = s.Validate(s.Key(d), s.schemas[d])
	}
	return out
}

// schemaReason flattens a validation error to its leaf causes.
func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var parts []string
	collectLeaves(ve, &parts)
	return strings.Join(parts, "; ")
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, loc+": "+ve.Message)
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
