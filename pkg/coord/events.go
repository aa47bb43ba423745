package coord

// ObserverID identifies a registered change listener so it can be removed.
type ObserverID uint64

type observerEntry struct {
	id ObserverID
	fn func()
}

// observerList is a registry of change listeners. fire works on a snapshot,
// so listeners may register or unregister during delivery.
type observerList struct {
	next    ObserverID
	entries []observerEntry
}

func (l *observerList) add(fn func()) ObserverID {
	l.next++
	l.entries = append(l.entries, observerEntry{id: l.next, fn: fn})
	return l.next
}

func (l *observerList) remove(id ObserverID) bool {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *observerList) fire() {
	if len(l.entries) == 0 {
		return
	}
	snapshot := make([]observerEntry, len(l.entries))
	copy(snapshot, l.entries)
	for _, e := range snapshot {
		e.fn()
	}
}
