package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
)

// Keyer builds cache keys.
type Keyer interface {
	// DocumentKey identifies a stored document by name.
	DocumentKey(name string) string

	// ArtifactKey identifies a rendered artifact of the DOT source with the
	// given hash.
	ArtifactKey(dotHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Scale      float64 `json:"scale,omitempty"`
	Detailed   bool    `json:"detailed,omitempty"`
	Positioned bool    `json:"positioned,omitempty"`
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey returns "doc:<name>".
func (DefaultKeyer) DocumentKey(name string) string { return "doc:" + name }

// ArtifactKey returns "artifact:" followed by the digest of dotHash and
// the JSON form of opts.
func (DefaultKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	h := sha256.New()
	io.WriteString(h, dotHash)
	_ = json.NewEncoder(h).Encode(opts)
	return "artifact:" + hex.EncodeToString(h.Sum(nil))
}
