package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/voltlint/voltlint/pkg/schema"
)

// ContentHash computes a stable content key for a diagram from its
// components and connections. Entries are hashed in ID order and spec
// maps serialize with sorted keys, so the hash is independent of slice
// and map iteration order. Cosmetic state (selection, viewport) is not
// part of the diagram model and therefore never perturbs the key.
func ContentHash(d *schema.Diagram) string {
	h := sha256.New()

	comps := make([]schema.Component, len(d.Components))
	copy(comps, d.Components)
	sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })
	for _, c := range comps {
		fmt.Fprintf(h, "c|%s|%s|%s|", c.ID, c.Type, c.Name)
		writeSpec(h, c.Spec)
	}

	conns := make([]schema.Connection, len(d.Connections))
	copy(conns, d.Connections)
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	for _, c := range conns {
		fmt.Fprintf(h, "w|%s|%s|%s|", c.ID, c.FromID, c.ToID)
		writeSpec(h, c.Spec)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// cacheKey extends the content hash with the load context: an unchanged
// diagram evaluated under a different service or load figure is a
// different result and must not be served from cache.
func cacheKey(d *schema.Diagram, load *schema.LoadContext) string {
	if load == nil {
		return ContentHash(d)
	}
	return fmt.Sprintf("%s|l|%g|%g|%g",
		ContentHash(d), load.ServiceAmps, load.TotalLoadAmps, load.ContinuousAmps)
}

func writeSpec(w interface{ Write([]byte) (int, error) }, spec map[string]any) {
	if len(spec) == 0 {
		w.Write([]byte("{}\n"))
		return
	}
	// json.Marshal emits map keys in sorted order.
	b, err := json.Marshal(spec)
	if err != nil {
		// Unmarshalable spec values cannot occur for documents that came
		// through JSON, but hash something stable for hand-built diagrams.
		b = []byte(fmt.Sprintf("%v", spec))
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

type cacheEntry struct {
	result   *schema.ComplianceResult
	storedAt time.Time
}

// resultCache holds compliance results keyed by snapshot key (content
// hash plus load context), each valid for a freshness window. Stale
// entries are discarded lazily.
type resultCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(hash string, now time.Time) (*schema.ComplianceResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.storedAt) > c.ttl {
		delete(c.entries, hash)
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) put(hash string, result *schema.ComplianceResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[hash] = cacheEntry{result: result, storedAt: now}
}
