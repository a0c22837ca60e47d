package engine

import (
	"sync"
	"time"

	"sqldeck/internal/model"
)

// SchemaCache memoizes introspection output per connection fingerprint.
// Schema shape changes rarely, so there is no automatic expiry: entries
// live until Invalidate or Clear. Callers that need fresh data bypass the
// cache with forceRefresh at the service layer.
type SchemaCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedSchemas
}

type cachedSchemas struct {
	schemas  []model.SchemaInfo
	cachedAt time.Time
}

// NewSchemaCache creates an empty cache
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{
		entries: make(map[string]*cachedSchemas),
	}
}

// Get retrieves cached schemas for a connection fingerprint
func (sc *SchemaCache) Get(fingerprint string) ([]model.SchemaInfo, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	cached, ok := sc.entries[fingerprint]
	if !ok {
		return nil, false
	}
	return cached.schemas, true
}

// Set stores schemas for a connection fingerprint
func (sc *SchemaCache) Set(fingerprint string, schemas []model.SchemaInfo) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.entries[fingerprint] = &cachedSchemas{
		schemas:  schemas,
		cachedAt: time.Now(),
	}
}

// Invalidate removes the entry for a connection fingerprint
func (sc *SchemaCache) Invalidate(fingerprint string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.entries, fingerprint)
}

// Clear drops all entries
func (sc *SchemaCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries = make(map[string]*cachedSchemas)
}

// Len returns the number of cached connections
func (sc *SchemaCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.entries)
}
