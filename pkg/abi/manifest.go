package abi

import (
	"encoding/json"
	"fmt"
)

// Manifest is the JSON form of a table. A generated manifest doubles as the
// ABI lock file that CheckAppendOnly compares against.
type Manifest struct {
	Fingerprint string          `json:"fingerprint"`
	Count       int             `json:"count"`
	Syscalls    []ManifestEntry `json:"syscalls"`
}

// ManifestEntry is one numbered syscall in a Manifest.
type ManifestEntry struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Returns bool   `json:"returns"`
}

// Manifest describes the table with explicit syscall numbers.
func (t *Table) Manifest() Manifest {
	m := Manifest{
		Fingerprint: t.Fingerprint(),
		Count:       t.Len(),
		Syscalls:    make([]ManifestEntry, 0, t.Len()),
	}
	for i, e := range t.Entries() {
		m.Syscalls = append(m.Syscalls, ManifestEntry{Number: i, Name: e.Name, Returns: e.HasReturnValue})
	}
	return m
}

// ParseManifest reads a manifest back into a table. Numbers must be dense and
// in order, and the recorded fingerprint must match the entries.
func ParseManifest(filename string, data []byte) (*Table, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &LoadError{File: filename, Message: "invalid manifest", Cause: err}
	}

	entries := make([]Entry, 0, len(m.Syscalls))
	for i, s := range m.Syscalls {
		if s.Number != i {
			return nil, &LoadError{File: filename, Message: fmt.Sprintf("syscall %q has number %d, expected %d", s.Name, s.Number, i)}
		}
		entries = append(entries, Entry{Name: s.Name, HasReturnValue: s.Returns})
	}
	if m.Count != len(entries) {
		return nil, &LoadError{File: filename, Message: fmt.Sprintf("count is %d but %d syscalls are listed", m.Count, len(entries))}
	}

	t := New(entries...)
	if m.Fingerprint != "" && m.Fingerprint != t.Fingerprint() {
		return nil, &LoadError{File: filename, Message: fmt.Sprintf("fingerprint %s does not match entries (%s)", m.Fingerprint, t.Fingerprint())}
	}
	return t, nil
}
