package queue

import "sync"

// merchantLease serializes dispatch per merchant inside one process. The
// claim query already excludes merchants with an in-flight PROCESSING row;
// the lease closes the gap between a worker finishing its database
// transition and the next poll observing it.
type merchantLease struct {
	mu   sync.Mutex
	held map[uint]bool
}

func newMerchantLease() *merchantLease {
	return &merchantLease{held: make(map[uint]bool)}
}

// Acquire reports whether the merchant was free and leases it if so.
func (l *merchantLease) Acquire(merchantID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[merchantID] {
		return false
	}
	l.held[merchantID] = true
	return true
}

func (l *merchantLease) Release(merchantID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, merchantID)
}
