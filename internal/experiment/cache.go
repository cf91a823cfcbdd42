package experiment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"machq/internal/code"
)

// CacheSchema is the on-disk artifact format version. Increment when the
// Artifact layout changes; readers treat any other version as a miss.
const CacheSchema uint16 = 1

// Digest is a sha256 artifact key.
type Digest [sha256.Size]byte

// ArtifactKey identifies a built circuit: everything that determines
// the instruction log, nothing else.
type ArtifactKey struct {
	Code      string
	XDistance int
	ZDistance int
	Rounds    int
	Profile   string
	Rate      float64
	Pauli     string
}

// Digest hashes the key fields into a stable cache key.
func (k ArtifactKey) Digest() Digest {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%d\x00%s\x00%s\x00%s\x00",
		k.Code, k.XDistance, k.ZDistance, k.Rounds, k.Profile,
		strconv.FormatFloat(k.Rate, 'g', -1, 64), k.Pauli)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Artifact stores a built circuit with enough metadata to answer
// inspection queries without rebuilding.
type Artifact struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Key ArtifactKey

	Qubits       uint32
	Measurements uint32

	Circuit string
}

// NewArtifact captures the built circuit of c under key.
func NewArtifact(key ArtifactKey, c code.Code) *Artifact {
	qubits, err := safecast.Conv[uint32](c.Circuit().NumQubits())
	if err != nil {
		panic(fmt.Errorf("qubit count overflow: %w", err))
	}
	measurements, err := safecast.Conv[uint32](c.Circuit().Measurements())
	if err != nil {
		panic(fmt.Errorf("measurement count overflow: %w", err))
	}
	return &Artifact{
		Schema:       CacheSchema,
		Key:          key,
		Qubits:       qubits,
		Measurements: measurements,
		Circuit:      c.Circuit().String(),
	}
}

// Cache stores built circuit artifacts on disk, keyed by digest.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache initializes a cache at the standard user cache location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenCacheAt initializes a cache rooted at an explicit directory.
func OpenCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "circuits", hexKey+".mp")
}

// Put serializes and writes an artifact, replacing atomically.
func (c *Cache) Put(key Digest, art *Artifact) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(art); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads an artifact. A missing key or a stale schema version is a
// miss, not an error.
func (c *Cache) Get(key Digest, out *Artifact) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != CacheSchema {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
