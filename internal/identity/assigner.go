// Package identity assigns stable numeric ids to items that lack a canonical one.
package identity

import (
	"hash/fnv"
	"strconv"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// Default id range. Stays inside a 32-bit signed column and well above the id
// space the external catalog API issues, so the two never collide.
const (
	DefaultMinID = 100_000_000
	DefaultMaxID = 2_000_000_000
)

// Assigner produces a numeric id for a (title, year) pair. Implementations must
// be referentially transparent: same input, same output, across restarts.
type Assigner interface {
	AssignID(title string, year int) int64
}

// HashAssigner folds an FNV-1a hash of the normalized title and year into a
// fixed positive range. FNV-1a is fully specified, so any language reproduces
// the same id for the same pair.
type HashAssigner struct {
	minID int64
	maxID int64
}

var _ Assigner = (*HashAssigner)(nil)

// NewHashAssigner creates an assigner with the default id range.
func NewHashAssigner() *HashAssigner {
	return &HashAssigner{minID: DefaultMinID, maxID: DefaultMaxID}
}

// NewHashAssignerWithRange creates an assigner with a custom id range.
// Panics if the range is empty.
func NewHashAssignerWithRange(minID, maxID int64) *HashAssigner {
	if maxID <= minID {
		panic("identity: max id must be greater than min id")
	}

	return &HashAssigner{minID: minID, maxID: maxID}
}

// AssignID hashes lower(trim(title)) + "-" + year into [minID, maxID].
func (a *HashAssigner) AssignID(title string, year int) int64 {
	key := models.NormalizeTitleYear(title, year)

	h := fnv.New64a()
	h.Write([]byte(key.Title))
	h.Write([]byte("-"))
	h.Write([]byte(strconv.Itoa(key.Year)))

	span := uint64(a.maxID - a.minID + 1)

	return a.minID + int64(h.Sum64()%span)
}

// UsableID reports whether an upstream-supplied id can be trusted as-is.
// Zero and negative ids are implausible and get replaced by a hashed one.
func UsableID(id int64) bool {
	return id > 0
}
