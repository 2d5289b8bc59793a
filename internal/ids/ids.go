// Package ids provides identifier generation for cases and related records.
package ids

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator mints new identifiers. Implementations must be safe for
// concurrent use.
type Generator interface {
	NewID() string
}

// ObjectID generates 24-character lowercase hex identifiers laid out
// as a 4-byte unix-seconds timestamp, a 3-byte machine hash, a 2-byte
// process id, and a 3-byte monotonic counter. The layout matches ids
// already persisted by existing deployments and must not change.
type ObjectID struct {
	machine [3]byte
	pid     uint16
	counter atomic.Uint32
}

// NewObjectID builds a generator seeded with the local machine hash,
// the current process id, and a random counter start.
func NewObjectID() *ObjectID {
	g := &ObjectID{pid: uint16(os.Getpid())}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	sum := md5.Sum([]byte(host))
	copy(g.machine[:], sum[:3])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err == nil {
		g.counter.Store(binary.BigEndian.Uint32(seed[:]))
	}
	return g
}

// NewID returns the next identifier.
func (g *ObjectID) NewID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	copy(b[4:7], g.machine[:])
	binary.BigEndian.PutUint16(b[7:9], g.pid)
	n := g.counter.Add(1)
	b[9] = byte(n >> 16)
	b[10] = byte(n >> 8)
	b[11] = byte(n)
	return hex.EncodeToString(b[:])
}

// Sequence is a deterministic Generator for tests. It emits valid
// 24-character hex ids counting up from a fixed start.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence returns a Sequence whose first id encodes start+1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// NewID returns the next identifier in the sequence.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%024x", s.n.Add(1))
}

// UUID generates random UUID identifiers for external-format ids.
type UUID struct{}

// NewID returns a random UUID string.
func (UUID) NewID() string {
	return uuid.NewString()
}

// NewUUID returns a random UUID string for external-format identifiers.
func NewUUID() string {
	return uuid.NewString()
}

// IsHexID reports whether s is a 24-character lowercase hex identifier.
func IsHexID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
