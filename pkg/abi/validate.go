package abi

import "fmt"

// Validate checks the table invariants and returns the first violation as a
// *ValidationError. Entries are scanned in number order.
func Validate(t *Table) error {
	if t.Len() == 0 {
		return &ValidationError{Kind: KindEmptyTable, Position: -1}
	}

	seen := make(map[string]int, t.Len())
	for i, e := range t.entries {
		if !IsIdentifier(e.Name) {
			return &ValidationError{Kind: KindEmptyName, Name: e.Name, Position: i}
		}
		if first, ok := seen[e.Name]; ok {
			return &ValidationError{
				Kind:          KindDuplicateName,
				Name:          e.Name,
				Position:      i,
				FirstPosition: first,
			}
		}
		seen[e.Name] = i
	}
	return nil
}

// IsIdentifier reports whether name is a non-empty ASCII identifier:
// letters, digits and underscores, not starting with a digit.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case isLetter(r) || r == '_':
		case isDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// CheckAppendOnly reports ErrBreakingChange unless next keeps every entry of
// base at the same number with the same trait. Appending is the only
// compatible edit.
func CheckAppendOnly(base, next *Table) error {
	n := min(base.Len(), next.Len())
	for i := 0; i < n; i++ {
		was, now := base.entries[i], next.entries[i]
		if was.Name != now.Name {
			return fmt.Errorf("%w: syscall %d was %q, now %q", ErrBreakingChange, i, was.Name, now.Name)
		}
		if was.HasReturnValue != now.HasReturnValue {
			return fmt.Errorf("%w: syscall %d (%s) return value changed from %t to %t",
				ErrBreakingChange, i, was.Name, was.HasReturnValue, now.HasReturnValue)
		}
	}
	if next.Len() < base.Len() {
		removed, _ := base.EntryAt(next.Len())
		return fmt.Errorf("%w: %d syscall(s) removed starting at %d (%s)",
			ErrBreakingChange, base.Len()-next.Len(), next.Len(), removed.Name)
	}
	return nil
}
