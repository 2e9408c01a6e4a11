// Package resolver executes field-selection documents against the store.
//
// A document names the root fields the client wants and, for object and list
// fields, an optional nested selection. A field with no nested selection
// resolves to its default scalar projection.
package resolver

import (
	"encoding/json"
	"fmt"
	"io"
)

// Selection is a node in a selection document: the set of fields requested
// on an entity, each optionally carrying its own nested selection.
type Selection struct {
	Select map[string]Selection `json:"select"`
}

// Document is the root of a selection document posted to the query endpoint.
type Document struct {
	Select map[string]Selection `json:"select"`
}

// ParseDocument decodes a selection document from a request body.
func ParseDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding selection document: %w", err)
	}
	if len(doc.Select) == 0 {
		return nil, &ValidationError{Reason: "shape", Message: "selection document selects no fields"}
	}
	return &doc, nil
}
