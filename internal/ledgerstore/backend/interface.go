package backend

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/cache"
)

// headerCacheSize bounds the secondary header cache. Unlike the full-state
// cache, headers are small and read far more often than they're
// invalidated, so a plain eviction policy is a good fit here even though
// it is the wrong shape for the successor-complete object cache.
const headerCacheSize = 4096

// DirectoryPage is the decoded shape of one directory-node object as
// consumed by FetchBookOffers: the keys it contains, and the key of the
// next page in the chain (the zero Hash256 if this is the last page).
// Parsing the wire format of a directory object (field codes sfIndexes /
// sfIndexNext) is outside this storage core's scope — the core treats
// object blobs as opaque and accepts a DirectoryParser from the caller,
// which owns the on-wire object format.
type DirectoryPage struct {
	Entries []ledgerstore.Hash256
	Next    ledgerstore.Hash256
}

// DirectoryParser decodes a directory-node object's blob into a
// DirectoryPage.
type DirectoryParser func(blob []byte) (DirectoryPage, error)

// Interface is the direct Go port of the source's BackendInterface: it
// holds a Backend and a *cache.Cache and implements the read path that
// checks the cache before falling through to the persistent store, plus
// the write path that buffers a ledger's diff so it can publish it to the
// cache atomically at finishWrites.
type Interface struct {
	backend Backend
	cache   *cache.Cache
	log     Logger
	headers *lru.Cache[ledgerstore.LedgerIndex, ledgerstore.LedgerHeader]

	writeMu    sync.Mutex
	writeDiff  []ledgerstore.LedgerObject
	writeRange ledgerstore.LedgerRange
}

// New wraps a Backend with its cache glue.
func New(b Backend, c *cache.Cache, log Logger) *Interface {
	headers, _ := lru.New[ledgerstore.LedgerIndex, ledgerstore.LedgerHeader](headerCacheSize)
	return &Interface{backend: b, cache: c, log: log, headers: headers}
}

// Open opens the underlying backend and, if it reports an existing
// range, seeds the in-memory range copy that FinishWrites advances. The
// monotonic-advance check itself is made by the backend's DoFinishWrites.
func (i *Interface) Open(ctx context.Context, readOnly bool) error {
	if err := i.backend.Open(ctx, readOnly); err != nil {
		return err
	}
	r, err := i.backend.HardFetchLedgerRange(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if r != nil {
		i.writeRange = *r
	}
	return nil
}

// Close releases the underlying backend.
func (i *Interface) Close() error {
	return i.backend.Close()
}

// --- read path ---

// FetchLedgerObject returns the blob for key as of seq, or nil if absent.
// It consults the cache first; a cache hit never touches the backend.
func (i *Interface) FetchLedgerObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) ([]byte, error) {
	if blob, ok := i.cache.Get(key, seq); ok {
		return blob, nil
	}
	blob, err := i.backend.DoFetchLedgerObject(ctx, key, seq)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, nil
	}
	return blob, nil
}

// FetchLedgerObjects resolves keys as of seq, preserving input order.
// Cache hits are resolved without a round trip; the remaining keys are
// batched through the backend concurrently, bounded by errgroup's
// implicit fan-out (one goroutine per miss — the admission cap inside the
// backend's own pipeline is what bounds concurrency against the cluster).
func (i *Interface) FetchLedgerObjects(ctx context.Context, keys []ledgerstore.Hash256, seq ledgerstore.LedgerIndex) ([][]byte, error) {
	results := make([][]byte, len(keys))
	var missIdx []int
	var missKeys []ledgerstore.Hash256

	for idx, k := range keys {
		if blob, ok := i.cache.Get(k, seq); ok {
			results[idx] = blob
			continue
		}
		missIdx = append(missIdx, idx)
		missKeys = append(missKeys, k)
	}

	if len(missKeys) == 0 {
		return results, nil
	}

	blobs, err := i.backend.DoFetchLedgerObjects(ctx, missKeys, seq)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		results[idx] = blobs[j]
	}
	return results, nil
}

// FetchSuccessorKey returns the smallest live key strictly greater than
// key as of seq. found is false if key has no successor — either because
// the backend says so, or because the resolved next key is the lastKey
// sentinel marking the end of the set — so a cache hit and a cache miss
// report that boundary identically.
func (i *Interface) FetchSuccessorKey(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) (succ ledgerstore.Hash256, found bool, err error) {
	if s, _, ok := i.cache.GetSuccessor(key, seq); ok {
		if s == ledgerstore.LastKey {
			return ledgerstore.Hash256{}, false, nil
		}
		return s, true, nil
	}
	s, err := i.backend.DoFetchSuccessorKey(ctx, key, seq)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ledgerstore.Hash256{}, false, nil
		}
		return ledgerstore.Hash256{}, false, err
	}
	return s, true, nil
}

// FetchSuccessorObject combines FetchSuccessorKey and FetchLedgerObject.
func (i *Interface) FetchSuccessorObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) (succ ledgerstore.Hash256, blob []byte, found bool, err error) {
	succ, found, err = i.FetchSuccessorKey(ctx, key, seq)
	if err != nil || !found {
		return succ, nil, found, err
	}
	blob, err = i.FetchLedgerObject(ctx, succ, seq)
	return succ, blob, true, err
}

// FetchLedgerPage iterates successor keys starting at cursor (or
// firstKey when cursor is nil), stopping at lastKey or after limit
// objects, and returns the objects found plus a forward cursor for the
// next page (nil if iteration reached lastKey).
func (i *Interface) FetchLedgerPage(ctx context.Context, cursor *ledgerstore.Hash256, seq ledgerstore.LedgerIndex, limit int) ([]ledgerstore.LedgerObject, *ledgerstore.Hash256, error) {
	start := ledgerstore.FirstKey
	if cursor != nil {
		start = *cursor
	}

	var keys []ledgerstore.Hash256
	cur := start
	for len(keys) < limit {
		succ, found, err := i.FetchSuccessorKey(ctx, cur, seq)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			cur = ledgerstore.Hash256{}
			break
		}
		keys = append(keys, succ)
		cur = succ
	}

	blobs, err := i.FetchLedgerObjects(ctx, keys, seq)
	if err != nil {
		return nil, nil, err
	}

	objs := make([]ledgerstore.LedgerObject, len(keys))
	for idx, k := range keys {
		objs[idx] = ledgerstore.LedgerObject{Key: k, Sequence: seq, Blob: blobs[idx]}
	}

	var next *ledgerstore.Hash256
	if len(keys) == limit && cur != (ledgerstore.Hash256{}) {
		last := keys[len(keys)-1]
		next = &last
	}
	return objs, next, nil
}

// FetchBookOffers walks the directory chain rooted at bookRoot, following
// Next links via parse, collecting contained keys until limit is reached
// or the chain ends, then batch-resolves all collected keys.
func (i *Interface) FetchBookOffers(ctx context.Context, bookRoot ledgerstore.Hash256, seq ledgerstore.LedgerIndex, limit int, parse DirectoryParser) ([]ledgerstore.LedgerObject, error) {
	var keys []ledgerstore.Hash256
	page := bookRoot

	for len(keys) < limit {
		blob, err := i.FetchLedgerObject(ctx, page, seq)
		if err != nil {
			return nil, err
		}
		if blob == nil {
			break
		}
		dir, err := parse(blob)
		if err != nil {
			return nil, &DataIntegrityError{Operation: "FetchBookOffers", Cause: err}
		}
		for _, e := range dir.Entries {
			if len(keys) >= limit {
				break
			}
			keys = append(keys, e)
		}
		if dir.Next.IsZero() {
			break
		}
		page = dir.Next
	}

	blobs, err := i.FetchLedgerObjects(ctx, keys, seq)
	if err != nil {
		return nil, err
	}
	objs := make([]ledgerstore.LedgerObject, len(keys))
	for idx, k := range keys {
		objs[idx] = ledgerstore.LedgerObject{Key: k, Sequence: seq, Blob: blobs[idx]}
	}
	return objs, nil
}

// FetchLedgerBySequence returns the header for seq, consulting the small
// header cache before falling through to the backend.
func (i *Interface) FetchLedgerBySequence(ctx context.Context, seq ledgerstore.LedgerIndex) (*ledgerstore.LedgerHeader, error) {
	if h, ok := i.headers.Get(seq); ok {
		return &h, nil
	}
	h, err := i.backend.FetchLedgerBySequence(ctx, seq)
	if err != nil || h == nil {
		return h, err
	}
	i.headers.Add(seq, *h)
	return h, nil
}

// FetchLedgerByHash is a by-hash lookup; the header cache is keyed by
// sequence, so a hit there only helps once the caller already knows the
// sequence. Hash lookups always go to the backend.
func (i *Interface) FetchLedgerByHash(ctx context.Context, hash ledgerstore.Hash256) (*ledgerstore.LedgerHeader, error) {
	h, err := i.backend.FetchLedgerByHash(ctx, hash)
	if err != nil || h == nil {
		return h, err
	}
	i.headers.Add(h.Sequence, *h)
	return h, nil
}

func (i *Interface) FetchLatestLedgerSequence(ctx context.Context) (ledgerstore.LedgerIndex, error) {
	if seq := i.cache.LatestLedgerSequence(); i.cache.IsFull() && seq != 0 {
		return seq, nil
	}
	return i.backend.FetchLatestLedgerSequence(ctx)
}

func (i *Interface) FetchAllTransactionsInLedger(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.TransactionRecord, error) {
	return i.backend.FetchAllTransactionsInLedger(ctx, seq)
}

func (i *Interface) FetchAllTransactionHashesInLedger(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.Hash256, error) {
	return i.backend.FetchAllTransactionHashesInLedger(ctx, seq)
}

func (i *Interface) FetchAccountTransactions(ctx context.Context, account ledgerstore.AccountID, limit int, forward bool, cursor *AccountTxMarker) ([]ledgerstore.AccountTxRow, *AccountTxMarker, error) {
	return i.backend.FetchAccountTransactions(ctx, account, limit, forward, cursor)
}

// HardFetchLedgerRangeNoThrow wraps the persistent range fetch, retrying
// on timeout-class errors only and otherwise returning the error
// immediately. Named after the source's own hardFetchLedgerRangeNoThrow.
func (i *Interface) HardFetchLedgerRangeNoThrow(ctx context.Context) (*ledgerstore.LedgerRange, error) {
	for {
		r, err := i.backend.HardFetchLedgerRange(ctx)
		if err == nil {
			return r, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if !errors.Is(err, ErrDatabaseTimeout) {
			return nil, err
		}
		if i.log != nil {
			i.log.Warn("hard ledger range fetch timed out, retrying")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
}

// --- write path ---

// StartWrites begins a new ledger's write session: the internal diff
// buffer used to publish to the cache at FinishWrites is reset.
func (i *Interface) StartWrites() {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()
	i.writeDiff = nil
	i.backend.StartWrites()
}

// WriteLedger records the ledger header for the ledger currently being
// written.
func (i *Interface) WriteLedger(ctx context.Context, header ledgerstore.LedgerHeader, serializedHeader []byte) error {
	return i.backend.WriteLedger(ctx, header, serializedHeader)
}

// WriteLedgerObject issues an asynchronous write for one object version
// and buffers it for publication to the cache when the ledger's writes
// are finished.
func (i *Interface) WriteLedgerObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex, blob []byte) error {
	if err := i.backend.DoWriteLedgerObject(ctx, key, seq, blob); err != nil {
		return err
	}
	i.writeMu.Lock()
	i.writeDiff = append(i.writeDiff, ledgerstore.LedgerObject{Key: key, Sequence: seq, Blob: blob})
	i.writeMu.Unlock()
	return nil
}

func (i *Interface) WriteSuccessor(ctx context.Context, prevKey ledgerstore.Hash256, seq ledgerstore.LedgerIndex, nextKey ledgerstore.Hash256) error {
	return i.backend.WriteSuccessor(ctx, prevKey, seq, nextKey)
}

func (i *Interface) WriteTransaction(ctx context.Context, tx ledgerstore.TransactionRecord) error {
	return i.backend.WriteTransaction(ctx, tx)
}

func (i *Interface) WriteAccountTransactions(ctx context.Context, rows []ledgerstore.AccountTxRow) error {
	return i.backend.WriteAccountTransactions(ctx, rows)
}

// FinishWrites performs the write pipeline's sync barrier and advances
// the persisted range. On success, it publishes the ledger's buffered
// diff to the cache atomically — no reader observes sequence S until this
// returns true — and advances the in-memory range copy.
func (i *Interface) FinishWrites(ctx context.Context, seq ledgerstore.LedgerIndex) (bool, error) {
	ok, err := i.backend.DoFinishWrites(ctx, seq)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	i.writeMu.Lock()
	diff := i.writeDiff
	i.writeDiff = nil
	if i.writeRange.Empty() {
		i.writeRange = ledgerstore.LedgerRange{Min: seq, Max: seq}
	} else {
		i.writeRange.Max = seq
	}
	i.writeMu.Unlock()

	i.cache.Update(diff, seq, false)
	return true, nil
}

// DoOnlineDelete runs the retention procedure against the backend.
func (i *Interface) DoOnlineDelete(ctx context.Context, numLedgersToKeep uint32) error {
	return i.backend.DoOnlineDelete(ctx, numLedgersToKeep)
}
