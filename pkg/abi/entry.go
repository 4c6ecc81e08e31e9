package abi

import "fmt"

// Entry is a single syscall in the ABI table.
type Entry struct {
	Name string `json:"name" yaml:"name"`

	// HasReturnValue reports whether the kernel writes the caller's return
	// slot. It describes the slot, not whether the value carries meaning.
	HasReturnValue bool `json:"returns" yaml:"returns"`
}

// Returning creates an entry whose handler writes the return slot.
func Returning(name string) Entry {
	return Entry{Name: name, HasReturnValue: true}
}

// Void creates an entry that returns control without writing the return slot.
func Void(name string) Entry {
	return Entry{Name: name}
}

func (e Entry) String() string {
	if e.HasReturnValue {
		return fmt.Sprintf("%s -> value", e.Name)
	}
	return fmt.Sprintf("%s -> void", e.Name)
}
