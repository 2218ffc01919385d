package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	formatVersion = 1
	schemaURL     = "https://notecheck.local/snapshot.schema.json"
)

//go:embed snapshot.schema.json
var schemaJSON []byte

type document struct {
	Version int      `json:"version"`
	Notes   Snapshot `json:"notes"`
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

func encodeDocument(s Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		s = New()
	}
	return json.MarshalIndent(document{Version: formatVersion, Notes: s}, "", "  ")
}

// decodeDocument validates data against the embedded schema before decoding
// so that a truncated or hand-edited file is rejected as a whole.
func decodeDocument(data []byte) (Snapshot, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, doc.Version, formatVersion)
	}
	if doc.Notes == nil {
		doc.Notes = New()
	}
	if err := doc.Notes.Validate(); err != nil {
		return nil, err
	}
	return doc.Notes, nil
}
