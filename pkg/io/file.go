package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Anything but .yaml and
// .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Read decodes a document in the given format.
func Read(r io.Reader, f Format) (*Document, error) {
	if f == FormatYAML {
		return ReadYAML(r)
	}
	return ReadJSON(r)
}

// Write encodes a document in the given format.
func Write(doc *Document, w io.Writer, f Format) error {
	if f == FormatYAML {
		return WriteYAML(doc, w)
	}
	return WriteJSON(doc, w)
}

// Marshal encodes doc into a byte slice.
func Marshal(doc *Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(doc, &buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a document from data.
func Unmarshal(data []byte, f Format) (*Document, error) {
	return Read(bytes.NewReader(data), f)
}

// Import reads the document at path, choosing the format by extension.
func Import(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportFailed, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, FormatFor(path))
}

// Export writes doc to path, choosing the format by extension.
func Export(doc *Document, path string) error {
	data, err := Marshal(doc, FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
