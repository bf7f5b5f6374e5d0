package ids

import (
	"encoding/binary"
	"hash"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"
)

// propertyNamespace is a fixed, arbitrary namespace for the name-based UUIDs
// PropertyIDs are derived from (uuid.NewSHA1), so the same (declSiteKey,
// docText) pair always mints the same id.
var propertyNamespace = uuid.MustParse("3c6b8e2a-6f0a-4b1d-9a7e-2c8f6d4a5b10")

// internKey is a fixed, arbitrary 32-byte HighwayHash key. The interner is
// only used to make in-process string comparisons cheap (PropertyIDs come
// from NewPropertyID's name-based UUIDs instead); it is not a security hash, so a
// fixed key is fine (unlike the content-addressed graph hashing in
// viant-linager's inspector/graph, we don't need per-run key rotation).
var internKey = []byte("emmylua-core-string-interner-key")

// Interner deduplicates strings used as MemberKey names and TypeDeclID
// names (§9: "single interner to make MemberKey::Name and TypeDeclId cheap
// to compare"). Two calls to Intern with equal strings return the same
// Symbol value, letting callers compare symbols with == instead of calling
// strings.Compare.
type Interner struct {
	mu   sync.RWMutex
	hash hash.Hash64
	ids  map[string]Symbol
	strs map[Symbol]string
}

// Symbol is a cheap, comparable handle for an interned string.
type Symbol struct {
	h uint64
}

func (s Symbol) IsZero() bool { return s.h == 0 }

func NewInterner() *Interner {
	h, err := highwayhash.New64(internKey)
	if err != nil {
		// internKey is a fixed 32-byte constant; New64 only fails on bad
		// key length, so this can't happen in practice.
		panic(err)
	}
	return &Interner{
		hash: h,
		ids:  make(map[string]Symbol),
		strs: make(map[Symbol]string),
	}
}

// Intern returns the Symbol for s, computing and caching a HighwayHash
// digest the first time s is seen.
func (in *Interner) Intern(s string) Symbol {
	in.mu.RLock()
	if sym, ok := in.ids[s]; ok {
		in.mu.RUnlock()
		return sym
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if sym, ok := in.ids[s]; ok {
		return sym
	}
	in.hash.Reset()
	_, _ = in.hash.Write([]byte(s))
	sym := Symbol{h: in.hash.Sum64()}
	in.ids[s] = sym
	in.strs[sym] = s
	return sym
}

// String returns the original string for a Symbol, or "" if it was never
// interned through this Interner.
func (in *Interner) String(sym Symbol) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.strs[sym]
}

// NewPropertyID derives a PropertyID from the doc-comment text a property
// bundle was parsed from, so re-parsing identical text (e.g. an unrelated
// part of the file changed) yields the same handle: an "opaque interning
// handle" (§9) minted as a name-based UUID rather than a sequence number.
func NewPropertyID(declSiteKey string, docText string) PropertyID {
	u := uuid.NewSHA1(propertyNamespace, []byte(declSiteKey+"\x00"+docText))
	return PropertyID{hash: binary.BigEndian.Uint64(u[:8])}
}
