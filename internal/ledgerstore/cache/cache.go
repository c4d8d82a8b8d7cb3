// Package cache implements the process-local versioned state cache: a
// point-in-time view of the latest fully-committed ledger, plus an
// ordered index supporting successor lookups for pagination. It
// generalizes this codebase's other LRU-based caches from an
// eviction-based working set to a single,
// full-generation snapshot, because that is the contract this cache must
// satisfy: once full, it holds every live key, not just the recently
// touched ones.
package cache

import (
	"sync"

	"github.com/google/btree"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
)

const btreeDegree = 32

// row is the cached state of one key: its current blob. The sequence the
// whole cache represents is kept once, in Cache.latestSeq.
type row struct {
	blob []byte
}

// keyItem adapts a Hash256 to btree.Item so the ordered index can be kept
// in a *btree.BTree.
type keyItem ledgerstore.Hash256

func (k keyItem) Less(than btree.Item) bool {
	return ledgerstore.Hash256(k).Less(ledgerstore.Hash256(than.(keyItem)))
}

// Cache is the versioned state cache described above. The zero value is
// not usable; construct with New.
type Cache struct {
	mu sync.RWMutex

	objects map[ledgerstore.Hash256]row
	index   *btree.BTree

	latestSeq ledgerstore.LedgerIndex
	full      bool
}

// New returns an empty, not-yet-full Cache.
func New() *Cache {
	return &Cache{
		objects: make(map[ledgerstore.Hash256]row),
		index:   btree.New(btreeDegree),
	}
}

// Update applies one ledger's worth of object changes to the cache. An
// empty Blob removes the key from both the point-lookup map and the
// ordered successor index; a non-empty Blob inserts or replaces it.
//
// Updates are expected to be serialized by the caller at the ledger
// level (one in-flight Update per cache), which Lock enforces; concurrent
// readers never observe a partially-applied diff because the whole diff
// is applied while holding the write lock.
//
// isBackground marks an update coming from the cache's historical
// warm-up loader rather than a live finishWrites: it still applies the
// rows, but does not move latestSeq backwards past where live traffic has
// already advanced the cache, since the warm-up loader may be replaying
// sequences older than the live tip.
func (c *Cache) Update(diff []ledgerstore.LedgerObject, seq ledgerstore.LedgerIndex, isBackground bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, obj := range diff {
		if obj.IsTombstone() {
			delete(c.objects, obj.Key)
			c.index.Delete(keyItem(obj.Key))
			continue
		}
		c.objects[obj.Key] = row{blob: obj.Blob}
		c.index.ReplaceOrInsert(keyItem(obj.Key))
	}

	if isBackground && seq < c.latestSeq {
		return
	}
	c.latestSeq = seq
}

// Get returns the cached state of key as of seq. ok reports whether the
// cache could answer authoritatively: false means the caller must consult
// the persistent backend. ok is only true once the cache is full and seq
// is at or after the cache's current sequence — the cache holds exactly
// one generation, not a history of snapshots. When ok is true and blob is
// empty, the key is definitively absent.
func (c *Cache) Get(key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) (blob []byte, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.full || seq < c.latestSeq {
		return nil, false
	}
	r, present := c.objects[key]
	if !present {
		return nil, true
	}
	return r.blob, true
}

// GetSuccessor returns the smallest live key strictly greater than key as
// of seq, along with its blob. If no live key is greater than key, succ is
// ledgerstore.LastKey and blob is nil, matching the sentinel that
// terminates successor iteration. ok follows the same authority rule as
// Get.
func (c *Cache) GetSuccessor(key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) (succ ledgerstore.Hash256, blob []byte, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.full || seq < c.latestSeq {
		return ledgerstore.Hash256{}, nil, false
	}

	var found ledgerstore.Hash256
	hasNext := false
	c.index.AscendGreaterOrEqual(keyItem(key), func(item btree.Item) bool {
		k := ledgerstore.Hash256(item.(keyItem))
		if k == key {
			return true // skip key itself, keep ascending
		}
		found = k
		hasNext = true
		return false
	})

	if !hasNext {
		return ledgerstore.LastKey, nil, true
	}
	return found, c.objects[found].blob, true
}

// SetFull marks the cache authoritative. Before this call, Get and
// GetSuccessor always report a miss regardless of sequence.
func (c *Cache) SetFull() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = true
}

// IsFull reports whether SetFull has been called.
func (c *Cache) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.full
}

// LatestLedgerSequence returns the sequence the cache currently
// represents.
func (c *Cache) LatestLedgerSequence() ledgerstore.LedgerIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestSeq
}

// Size returns the number of live keys currently cached, for diagnostics.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
