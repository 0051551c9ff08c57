package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Validate checks raw model output against the invoice contract. The schema
// is static, so it is compiled once per process.
func Validate(raw []byte) error {
	compileOnce.Do(func() {
		b, err := json.Marshal(InvoiceJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("invoice.json")
	})
	if compileErr != nil {
		return compileErr
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal output: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("output does not match invoice schema: %w", err)
	}
	return nil
}

// RenderJSONSchema returns the contract as indented JSON for embedding in
// the model prompt.
func RenderJSONSchema() string {
	b, _ := json.MarshalIndent(InvoiceJSONSchema(), "", "  ")
	return string(b)
}
