package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://starlane.io/schemas/"

// Validator checks inbound frames against the embedded JSON schemas before
// they are decoded. Types without a schema pass through.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	types := []string{
		TypeWelcome,
		TypeUniverseInfo,
		TypeGameState,
		TypeShipDamage,
		TypeTravelModeChange,
		TypeScanResult,
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, typ := range types {
		name := typ + ".schema.json"
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBaseURL+name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(types))}
	for _, typ := range types {
		s, err := c.Compile(schemaBaseURL + typ + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", typ, err)
		}
		v.schemas[typ] = s
	}
	return v, nil
}

func (v *Validator) Validate(b []byte) error {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return err
	}
	s, ok := v.schemas[env.Type]
	if !ok {
		return nil
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return nil
}
