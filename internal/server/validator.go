package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

// Validator checks request bodies against the embedded JSON schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every schema under schemas/.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, entry := range entries {
		filename := entry.Name()
		data, err := schemaFiles.ReadFile("schemas/" + filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", filename, err)
		}

		url := "https://pokerequity.dev/schemas/" + filename
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", filename, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", filename, err)
		}
		schemas[strings.TrimSuffix(filename, ".json")] = schema
	}
	return &Validator{schemas: schemas}, nil
}

// Validate checks data against the named schema.
func (v *Validator) Validate(name string, data []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("schema not found: %s", name)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
