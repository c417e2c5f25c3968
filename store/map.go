// Package store implements the keyed persistence layer for
// transitions: a generic map contract with atomic multi-map batches,
// an in-memory backend, and the input, output, and transition stores
// built on top of it.
//
// Writes that span several maps run inside an atomic batch. The batch
// either commits wholesale or vanishes, and nested batch scopes
// collapse to the outermost one: an operation called while a batch is
// already open joins it instead of opening its own.
package store

// Map is one keyed column of the store. Writes issued between
// StartAtomic and FinishAtomic are journaled and applied together;
// AbortAtomic discards them. Reads always see the last committed
// state, never the open journal.
type Map[K comparable, V any] interface {
	// Insert stores a key-value pair, overwriting any previous value.
	Insert(key K, value V) error

	// Get returns the value for the key and whether the key exists.
	Get(key K) (V, bool, error)

	// Remove deletes the key, if present.
	Remove(key K) error

	// Contains reports whether the key exists.
	Contains(key K) (bool, error)

	// Keys returns a snapshot of all keys, in no particular order.
	Keys() []K

	// Values returns a snapshot of all values, in no particular order.
	Values() []V

	// StartAtomic begins journaling writes.
	StartAtomic()

	// IsAtomicInProgress reports whether a batch is open.
	IsAtomicInProgress() bool

	// AbortAtomic discards the journal and closes the batch.
	AbortAtomic()

	// FinishAtomic applies the journal and closes the batch.
	FinishAtomic() error
}

// batchScope is the batch-control surface shared by the multi-map
// stores.
type batchScope interface {
	StartAtomic()
	IsAtomicInProgress() bool
	AbortAtomic()
	FinishAtomic() error
}

// atomicWrite runs fn inside an atomic batch on s, collapsing nested
// scopes to the outermost one. When fn fails, the whole batch is
// aborted, including writes journaled by enclosing scopes, and the
// error is returned unchanged.
func atomicWrite(s batchScope, fn func() error) error {
	outermost := !s.IsAtomicInProgress()
	if outermost {
		s.StartAtomic()
	}
	if err := fn(); err != nil {
		s.AbortAtomic()
		return err
	}
	if outermost {
		return s.FinishAtomic()
	}
	return nil
}
