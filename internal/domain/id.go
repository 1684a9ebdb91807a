package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ID is the opaque identifier shared by every entity.
type ID string

// NewID generates a fresh identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID normalizes raw input into an ID. Only UUID strings are accepted.
func ParseID(raw string) (ID, bool) {
	raw = strings.TrimSpace(raw)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return ID(parsed.String()), true
}

// ParseIDs normalizes every entry. Malformed entries are returned verbatim in invalid.
func ParseIDs(raw []string) (ids []ID, invalid []string) {
	ids = make([]ID, 0, len(raw))
	for _, r := range raw {
		id, ok := ParseID(r)
		if !ok {
			invalid = append(invalid, r)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

// Canonical returns the normalized form of id. Values that are not UUIDs are only trimmed.
func (id ID) Canonical() ID {
	if parsed, ok := ParseID(string(id)); ok {
		return parsed
	}
	return ID(strings.TrimSpace(string(id)))
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// IDSet is an unordered set of identifiers.
type IDSet map[ID]struct{}

// NewIDSet builds a set of canonical ids, collapsing duplicates.
func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id.Canonical()] = struct{}{}
	}
	return set
}

// Has reports membership of id's canonical form.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id.Canonical()]
	return ok
}

// Dedupe canonicalizes ids and removes duplicates, first occurrence wins.
func Dedupe(ids []ID) []ID {
	seen := make(IDSet, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		id = id.Canonical()
		if seen.Has(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SameDepartment is true only when both ids are present and equal.
func SameDepartment(a, b *ID) bool {
	return a != nil && b != nil && a.Canonical() == b.Canonical()
}
