package engine

import "sync"

// Listener is notified after every commit. It receives no arguments and
// reads the new state with GetState.
type Listener func()

type listenerEntry struct {
	id uint64
	fn Listener
}

// listenerSet keeps listeners in subscription order. Subscribe and
// unsubscribe may happen from any goroutine, including from a listener.
type listenerSet struct {
	mu      sync.Mutex
	nextID  uint64
	entries []listenerEntry
}

func (ls *listenerSet) add(fn Listener) uint64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.nextID++
	ls.entries = append(ls.entries, listenerEntry{id: ls.nextID, fn: fn})
	return ls.nextID
}

func (ls *listenerSet) remove(id uint64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	for i, e := range ls.entries {
		if e.id == id {
			ls.entries = append(ls.entries[:i:i], ls.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns the listeners to notify for one commit. Changes made
// during the notification round take effect from the next commit.
func (ls *listenerSet) snapshot() []listenerEntry {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	out := make([]listenerEntry, len(ls.entries))
	copy(out, ls.entries)
	return out
}

func (ls *listenerSet) len() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.entries)
}
