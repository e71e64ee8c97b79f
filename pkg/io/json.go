package io

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// ReadJSON decodes a document from r.
//
// ReadJSON only checks the syntax; structural problems such as unknown
// endpoints are reported as warnings when the document is imported into an
// editor. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportFailed, err, "decode json")
	}
	return &doc, nil
}

// WriteJSON encodes doc as indented JSON.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode json")
	}
	return nil
}
