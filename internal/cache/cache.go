// Package cache stores note embeddings keyed by note id and invalidated by
// content fingerprint, never by time. It sits on a synchronous key/value
// boundary so the binary can back it with DuckDB while tests use a map.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// keyPrefix namespaces cache entries inside the shared KV store.
const keyPrefix = "vec:"

// KV is the persistent store boundary: a synchronous key/value interface with
// get/set/delete by string key.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Entry is one cached embedding. An entry is only valid for a note while
// ContentFingerprint matches the fingerprint of the note's current content;
// any mismatch means the entry must be treated as absent.
type Entry struct {
	Vector             []float32 `json:"vector"`
	SourceModel        string    `json:"source_model"`
	ContentFingerprint string    `json:"content_fingerprint"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Cache is the vector cache. It owns Entry lifetime exclusively; no other
// component writes entries directly.
type Cache struct {
	kv KV
}

// New creates a cache over the given key/value store.
func New(kv KV) *Cache {
	return &Cache{kv: kv}
}

// Fingerprint returns the deterministic digest of note content used to detect
// edits cheaply.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Get returns the entry for a note, or nil if none is stored. Get does not
// re-validate the fingerprint; callers must consult IsStale with the note's
// current content before trusting the vector.
func (c *Cache) Get(noteID string) (*Entry, error) {
	raw, ok, err := c.kv.Get(keyPrefix + noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}

// Put stores a vector for a note, computing the content fingerprint at write
// time. Any prior entry is overwritten unconditionally.
func (c *Cache) Put(noteID string, vec []float32, content, model string) error {
	entry := Entry{
		Vector:             vec,
		SourceModel:        model,
		ContentFingerprint: Fingerprint(content),
		UpdatedAt:          time.Now(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.kv.Set(keyPrefix+noteID, raw); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes a note's entry. Called when the owning note is deleted or
// edited.
func (c *Cache) Delete(noteID string) error {
	if err := c.kv.Delete(keyPrefix + noteID); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// IsStale reports whether the cached vector for a note can no longer be
// trusted for the given current content: true when no entry exists, the entry
// is unreadable, or the stored fingerprint no longer matches. A stale miss is
// not an error; it is the trigger for server-side backfill.
func (c *Cache) IsStale(noteID, currentContent string) bool {
	entry, err := c.Get(noteID)
	if err != nil || entry == nil {
		return true
	}
	return entry.ContentFingerprint != Fingerprint(currentContent)
}

// MemoryKV is a map-backed KV used in tests and as an in-process fallback.
// The mutex covers concurrent handlers touching distinct keys; per-key
// single-writer discipline is the callers' responsibility.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get returns the stored value and whether the key exists.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a value, overwriting any prior one.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
