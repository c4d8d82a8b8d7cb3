package cassandra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
)

// retryBackoff is the fixed delay between retries of a timeout-class
// write, matching the source's 5ms backoff.
const retryBackoff = 5 * time.Millisecond

// pipeline bounds the number of asynchronous requests in flight against
// the cluster and provides the synchronization barrier finishWrites
// needs. It has no notion of what a request does; writes.go launches a
// goroutine per statement under acquire/release, and reads.go calls
// acquire/release directly around a blocking read.
type pipeline struct {
	outstanding int32

	mu        sync.Mutex
	admitCond *sync.Cond
	syncCond  *sync.Cond

	cap uint32
	err error
}

func newPipeline(cap uint32) *pipeline {
	p := &pipeline{cap: cap}
	p.admitCond = sync.NewCond(&p.mu)
	p.syncCond = sync.NewCond(&p.mu)
	return p
}

// setCap changes the admission cap. doOnlineDelete calls this to switch
// to indexerMaxRequestsOutstanding for the duration of the retention
// procedure, then restores it.
func (p *pipeline) setCap(cap uint32) {
	p.mu.Lock()
	p.cap = cap
	p.mu.Unlock()
	p.admitCond.Broadcast()
}

// acquire blocks until a slot is available, then reserves it.
func (p *pipeline) acquire() {
	p.mu.Lock()
	for uint32(atomic.LoadInt32(&p.outstanding)) >= p.cap {
		p.admitCond.Wait()
	}
	atomic.AddInt32(&p.outstanding, 1)
	p.mu.Unlock()
}

// release frees a slot and wakes both the admission waiters and sync().
func (p *pipeline) release() {
	p.mu.Lock()
	atomic.AddInt32(&p.outstanding, -1)
	p.admitCond.Signal()
	if atomic.LoadInt32(&p.outstanding) == 0 {
		p.syncCond.Broadcast()
	}
	p.mu.Unlock()
}

// recordErr latches the first non-retryable write failure seen since the
// last sync(), the way a failed async write would surface at the next
// finishWrites rather than at the call that issued it.
func (p *pipeline) recordErr(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

// sync blocks until no requests are outstanding, then returns and clears
// the first write error latched since the previous sync, if any.
func (p *pipeline) sync() error {
	p.mu.Lock()
	for atomic.LoadInt32(&p.outstanding) != 0 {
		p.syncCond.Wait()
	}
	err := p.err
	p.err = nil
	p.mu.Unlock()
	return err
}

// executeWrite admits query onto the pipeline and launches it in its own
// goroutine, returning as soon as the slot is reserved rather than once
// the write completes — the admission cap is what throttles a caller
// issuing writes "many" times in a row, not a blocking round trip per
// call. The goroutine retries forever with a fixed backoff on a
// timeout-class outcome, holding its slot across every retry of the same
// statement, and releases it only once the statement finally succeeds or
// fails with a non-timeout error; a non-timeout failure is latched via
// recordErr and surfaces at the next sync(), not to this call's caller.
func (p *pipeline) executeWrite(ctx context.Context, session *gocql.Session, query string, args ...interface{}) {
	p.acquire()
	go func() {
		defer p.release()
		for {
			err := classify(session.Query(query, args...).WithContext(ctx).Exec())
			if err == nil {
				return
			}
			if !isTimeoutClass(err) {
				p.recordErr(err)
				return
			}
			select {
			case <-ctx.Done():
				p.recordErr(ctx.Err())
				return
			case <-time.After(retryBackoff):
			}
		}
	}()
}

// executeSyncWrite runs query under the admission gate and blocks for
// its outcome, retrying forever with the same fixed backoff on a
// timeout-class error. Reserved for the handful of statements that are
// themselves the commit point a caller is already blocking on — the
// ledger_range rows finishWrites advances — where returning before the
// write lands would defeat the blocking call's purpose; every other
// write goes through the asynchronous executeWrite above.
func (p *pipeline) executeSyncWrite(ctx context.Context, session *gocql.Session, query string, args ...interface{}) error {
	p.acquire()
	defer p.release()

	for {
		err := classify(session.Query(query, args...).WithContext(ctx).Exec())
		if err == nil {
			return nil
		}
		if !isTimeoutClass(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
}
