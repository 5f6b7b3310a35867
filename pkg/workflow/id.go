package workflow

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ID prefixes.
const (
	NodeIDPrefix = "n_"
	EdgeIDPrefix = "e_"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newULID() ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy)
}

// NewNodeID returns a fresh node id of the form n_<ULID>.
func NewNodeID() string { return NodeIDPrefix + newULID().String() }

// NewEdgeID returns a fresh edge id of the form e_<ULID>.
func NewEdgeID() string { return EdgeIDPrefix + newULID().String() }

// IDTime extracts the creation time in Unix milliseconds from an id produced
// by [NewNodeID] or [NewEdgeID]. It reports false for ids of another shape.
func IDTime(id string) (uint64, bool) {
	_, rest, ok := strings.Cut(id, "_")
	if !ok {
		return 0, false
	}
	u, err := ulid.ParseStrict(rest)
	if err != nil {
		return 0, false
	}
	return u.Time(), true
}
