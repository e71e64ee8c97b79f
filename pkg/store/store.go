// Package store persists named diagram documents.
//
// Three backends implement [Store]:
//   - [FileStore]: one JSON file per document, for the CLI
//   - [SQLiteStore]: a single SQLite database file
//   - [MongoStore]: a MongoDB collection shared by several servers
//
// Every backend stores the JSON encoding of [fio.Document], so documents
// move between backends unchanged. Missing documents fail with NOT_FOUND,
// invalid names with INVALID_INPUT.
//
// [fio.Document]: github.com/matzehuels/flowmodel/pkg/io.Document
package store

import (
	"context"
	"time"

	"github.com/matzehuels/flowmodel/pkg/errors"
	fio "github.com/matzehuels/flowmodel/pkg/io"
)

// Store is a named document store.
type Store interface {
	Get(ctx context.Context, name string) (*fio.Document, error)
	Put(ctx context.Context, name string, doc *fio.Document) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Info, error)
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend string
	// Path is the directory of the file backend or the database file of
	// the SQLite backend.
	Path  string
	Mongo MongoOptions
}

// Open returns the configured backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Path)
	case BackendSQLite:
		if opts.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "sqlite store needs a path")
		}
		return NewSQLiteStore(opts.Path)
	case BackendMongo:
		return NewMongoStore(ctx, opts.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", opts.Backend)
	}
}

// Info describes a stored document.
type Info struct {
	Name      string    `json:"name"`
	Diagrams  int       `json:"diagrams"`
	UpdatedAt time.Time `json:"updated_at"`
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "document %q not found", name)
}

func encode(doc *fio.Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	return fio.Marshal(doc, fio.FormatJSON)
}

func decode(name string, data []byte) (*fio.Document, error) {
	doc, err := fio.Unmarshal(data, fio.FormatJSON)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stored document %q is corrupt", name)
	}
	return doc, nil
}
