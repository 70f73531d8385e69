package og

import (
	"sync"

	"main/pkg/exception"
)

// Dispatcher is the acceptance-id lookup table the event stream is
// demultiplexed through. Submitting transactions register themselves
// here; the per-instrument dispatch goroutines look ids up. Insertion
// is atomic insert-if-absent.
type Dispatcher struct {
	mu   sync.RWMutex
	byID map[string]*Transaction
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{byID: make(map[string]*Transaction)}
}

// Register binds an acceptance id to a transaction. Registering an id
// twice is an error, a duplicate submission must never route.
func (d *Dispatcher) Register(id string, tx *Transaction) error {
	if len(id) == 0 {
		return exception.ErrEventEmptyID
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[id]; ok {
		return exception.ErrTransactionExists
	}
	d.byID[id] = tx
	return nil
}

// Lookup resolves an acceptance id to its owning transaction.
func (d *Dispatcher) Lookup(id string) (*Transaction, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tx, ok := d.byID[id]
	return tx, ok
}

// Remove drops an acceptance id binding.
func (d *Dispatcher) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byID, id)
}

// Len returns the number of registered acceptance ids.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
