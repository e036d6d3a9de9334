package oplock

import (
	"sync"
	"time"

	"github.com/smbdfs/smbd/internal/smb2/handle"
)

// Holder identifies the open that an oplock or lease is granted to.
type Holder struct {
	ID        handle.ID
	SessionID uint64
}

// breakWaiter is the per-break waitqueue: anything that cares when a
// client acknowledges (or the scanner force-revokes) an outstanding
// break closes this channel exactly once.
type breakWaiter struct {
	ackCh     chan struct{}
	closeOnce sync.Once
	started   time.Time
}

func newBreakWaiter(now time.Time) *breakWaiter {
	return &breakWaiter{ackCh: make(chan struct{}), started: now}
}

func (w *breakWaiter) done() {
	w.closeOnce.Do(func() { close(w.ackCh) })
}
