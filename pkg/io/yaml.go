package io

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// ReadYAML decodes a document from r.
func ReadYAML(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportFailed, err, "decode yaml")
	}
	return &doc, nil
}

// WriteYAML encodes doc as YAML.
func WriteYAML(doc *Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return enc.Close()
}
