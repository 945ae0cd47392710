package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed wire.schema.json
var wireSchema []byte

const wireSchemaURL = "wire.schema.json"

var (
	compiledWire    *jsonschema.Schema
	compiledWireErr error
	compileWireOnce sync.Once
)

func wire() (*jsonschema.Schema, error) {
	compileWireOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(wireSchemaURL, bytes.NewReader(wireSchema)); err != nil {
			compiledWireErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledWire, compiledWireErr = compiler.Compile(wireSchemaURL)
		if compiledWireErr != nil {
			compiledWireErr = fmt.Errorf("compile schema: %w", compiledWireErr)
		}
	})
	return compiledWire, compiledWireErr
}

// Validate checks the JSON encoding of s against the wire contract
func Validate(s Schema) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateJSON checks an encoded schema against the wire contract
func ValidateJSON(data []byte) error {
	ws, err := wire()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}
	if err := ws.Validate(v); err != nil {
		return fmt.Errorf("schema does not match wire contract: %w", err)
	}
	return nil
}

// WireSchema returns the JSON Schema of the wire contract
func WireSchema() []byte {
	return append([]byte(nil), wireSchema...)
}
