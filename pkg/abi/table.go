package abi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Table is an ordered, immutable list of syscalls. The syscall number of an
// entry is its zero-based position.
//
// A Table is safe for concurrent reads; nothing mutates it after New.
type Table struct {
	entries []Entry
	index   map[string]int
}

// New builds a table from the authored list. The list is copied, so later
// changes to the caller's slice do not affect the table.
//
// New does not validate. Duplicate names resolve to their first position
// until Validate rejects the table.
func New(entries ...Entry) *Table {
	t := &Table{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	copy(t.entries, entries)
	for i, e := range t.entries {
		if _, ok := t.index[e.Name]; !ok {
			t.index[e.Name] = i
		}
	}
	return t
}

// Len returns the number of syscalls. The kernel bounds-checks trap numbers
// against it.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// IndexOf returns the syscall number for name.
func (t *Table) IndexOf(name string) (int, error) {
	if t != nil {
		if i, ok := t.index[name]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSyscall, name)
}

// EntryAt returns the entry for syscall number index.
func (t *Table) EntryAt(index int) (Entry, error) {
	if index < 0 || index >= t.Len() {
		return Entry{}, fmt.Errorf("%w: %d (table has %d entries)", ErrOutOfRange, index, t.Len())
	}
	return t.entries[index], nil
}

// Entries returns a copy of the entries in syscall number order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, t.Len())
	if t != nil {
		copy(out, t.entries)
	}
	return out
}

// Append returns a new table with entries added after the existing ones.
// The receiver is left unchanged and no existing number moves.
func (t *Table) Append(entries ...Entry) *Table {
	all := make([]Entry, 0, t.Len()+len(entries))
	all = append(all, t.Entries()...)
	all = append(all, entries...)
	return New(all...)
}

// Fingerprint returns a hex digest of every (number, name, trait) triple.
// Kernel and user artifacts generated from the same table carry the same
// fingerprint.
func (t *Table) Fingerprint() string {
	h := sha256.New()
	for i, e := range t.Entries() {
		_, _ = fmt.Fprintf(h, "%d:%s:%t\n", i, e.Name, e.HasReturnValue)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
