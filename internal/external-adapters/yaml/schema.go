package yaml

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed profile_schema.json
var profileSchema []byte

const profileSchemaName = "profile_schema.json"

// ValidateAgainstSchema validates JSON data against the named schema
func ValidateAgainstSchema(name string, schema, data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("failed to load schema %s: %w", name, err)
	}

	compiled, err := compiler.Compile(name)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateProfileYAML checks a YAML build profile against the embedded schema
func ValidateProfileYAML(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("profile is empty")
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("profile cannot be represented as JSON: %w", err)
	}

	return ValidateAgainstSchema(profileSchemaName, profileSchema, jsonData)
}
