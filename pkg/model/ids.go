package model

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// Ids hands out element ids that are unique within one editor. Imported
// ids are claimed so generated ones never collide with them.
type Ids struct {
	claimed map[string]bool
}

// NewIds creates an empty id pool.
func NewIds() *Ids {
	return &Ids{claimed: make(map[string]bool)}
}

// Next generates and claims an id of the form Prefix_1a2b3c4.
func (ids *Ids) Next(prefix string) string {
	for {
		id := prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
		if !ids.claimed[id] {
			ids.claimed[id] = true
			return id
		}
	}
}

// NextFor generates an id using a prefix derived from an element type.
func (ids *Ids) NextFor(typ string) string {
	return ids.Next(PrefixFor(typ))
}

// Claim reserves an existing id.
func (ids *Ids) Claim(id string) error {
	if ids.claimed[id] {
		return errors.New(errors.ErrCodeDuplicateID, "id %q already assigned", id).WithElement(id)
	}
	ids.claimed[id] = true
	return nil
}

// Assigned reports whether id is claimed.
func (ids *Ids) Assigned(id string) bool { return ids.claimed[id] }

// Unclaim releases an id.
func (ids *Ids) Unclaim(id string) { delete(ids.claimed, id) }

// Clear releases every id.
func (ids *Ids) Clear() { ids.claimed = make(map[string]bool) }

// PrefixFor turns an element type such as "startEvent" into "StartEvent".
func PrefixFor(typ string) string {
	if typ == "" {
		return "Element"
	}
	r := []rune(typ)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
