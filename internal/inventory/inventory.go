// Package inventory holds the authoritative, ordered collection of startup
// entries for one session. It is not safe for concurrent use; the session
// that owns it is single-threaded.
package inventory

import (
	"fmt"
	"sort"

	"deepboot/internal/startup"
)

// Inventory is an ordered slice of entries with an identity index.
type Inventory struct {
	entries []startup.Entry
	byKey   map[startup.Key]int
}

// New copies entries into a fresh inventory.
func New(entries []startup.Entry) *Inventory {
	inv := &Inventory{entries: append([]startup.Entry(nil), entries...)}
	inv.reindex()
	return inv
}

// reindex rebuilds the identity index. Duplicate identities resolve to the
// first occurrence.
func (inv *Inventory) reindex() {
	inv.byKey = make(map[startup.Key]int, len(inv.entries))
	for i := len(inv.entries) - 1; i >= 0; i-- {
		inv.byKey[inv.entries[i].Key()] = i
	}
}

func (inv *Inventory) Len() int { return len(inv.entries) }

// At returns a copy of the entry at authoritative index i.
func (inv *Inventory) At(i int) (startup.Entry, bool) {
	if i < 0 || i >= len(inv.entries) {
		return startup.Entry{}, false
	}
	return inv.entries[i], true
}

// Entries returns a copy of the collection.
func (inv *Inventory) Entries() []startup.Entry {
	return append([]startup.Entry(nil), inv.entries...)
}

// IndexOf looks an identity up.
func (inv *Inventory) IndexOf(k startup.Key) (int, bool) {
	i, ok := inv.byKey[k]
	return i, ok
}

// Resolve maps an entry (typically a copy from a derived view) back to its
// authoritative index.
func (inv *Inventory) Resolve(e startup.Entry) (int, error) {
	i, ok := inv.byKey[e.Key()]
	if !ok {
		return -1, fmt.Errorf("%s (%s): %w", e.Name, e.Source.Label(), startup.ErrUnresolved)
	}
	return i, nil
}

// MarkDisabled flips the entry at i to disabled. Identity is unaffected.
func (inv *Inventory) MarkDisabled(i int) bool {
	if i < 0 || i >= len(inv.entries) {
		return false
	}
	inv.entries[i].Enabled = false
	return true
}

// RemoveIndices deletes the given authoritative indices and returns a remap
// from every surviving old index to its new index. Out-of-range and
// duplicate indices are ignored.
func (inv *Inventory) RemoveIndices(idx ...int) map[int]int {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(inv.entries) {
			drop[i] = true
		}
	}
	remap := make(map[int]int, len(inv.entries)-len(drop))
	kept := inv.entries[:0]
	for i, e := range inv.entries {
		if drop[i] {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, e)
	}
	// Clear the tail so removed entries are not retained by the backing array.
	for i := len(kept); i < len(inv.entries); i++ {
		inv.entries[i] = startup.Entry{}
	}
	inv.entries = kept
	inv.reindex()
	return remap
}

// Exclude removes every entry matching pred and returns the remap, like
// RemoveIndices.
func (inv *Inventory) Exclude(pred func(startup.Entry) bool) map[int]int {
	var idx []int
	for i, e := range inv.entries {
		if pred(e) {
			idx = append(idx, i)
		}
	}
	return inv.RemoveIndices(idx...)
}

// Remap translates a set of indices through remap, dropping those that no
// longer exist. The result is sorted.
func Remap(indices []int, remap map[int]int) []int {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if j, ok := remap[i]; ok {
			out = append(out, j)
		}
	}
	sort.Ints(out)
	return out
}
