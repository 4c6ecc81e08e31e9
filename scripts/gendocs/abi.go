package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/leapstack-labs/sysabi/internal/gen"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// generateABIDocs writes the syscall reference for the table at tablePath,
// or for the built-in ABI when tablePath is empty.
func generateABIDocs(outDir, tablePath string) error {
	log.Printf("Generating ABI docs to %s", outDir)

	t := abi.Current()
	if tablePath != "" {
		var err error
		if t, err = abi.LoadFile(tablePath); err != nil {
			return err
		}
	}

	doc, err := renderABIDoc(t)
	if err != nil {
		return err
	}

	if _, err := gen.Write(outDir, []gen.Artifact{{Path: "index.md", Content: doc}}); err != nil {
		return err
	}
	log.Printf("  Generated index.md (%d syscalls)", t.Len())
	return nil
}

func renderABIDoc(t *abi.Table) ([]byte, error) {
	if err := abi.Validate(t); err != nil {
		return nil, err
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Syscall Reference", "Numbers and return values of every syscall")
	w.GeneratedMarker()

	w.Header(1, "Syscall Reference")
	w.Paragraph(fmt.Sprintf(
		"The ABI has %d syscalls. A syscall's number is its position in the table and never changes once released. "+
			"New syscalls are only ever appended.", t.Len()))
	w.BulletList([]string{"Fingerprint: " + InlineCode(t.Fingerprint())})

	w.Header(2, "Syscalls")
	headers := []string{"Number", "Name", "Returns", "Kernel handler", "User stub"}
	var rows [][]string
	for i, e := range t.Entries() {
		returns := "value"
		if !e.HasReturnValue {
			returns = "void"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			InlineCode(e.Name),
			returns,
			InlineCode(gen.DefaultKernelPrefix + e.Name),
			InlineCode(gen.DefaultUserPrefix + e.Name),
		})
	}
	w.Table(headers, rows)

	w.Header(2, "Return values")
	w.Paragraph("When a syscall returns a value, the kernel writes the caller's return slot. " +
		"Void syscalls leave the slot untouched. An invalid syscall number never reaches a handler: " +
		"the dispatcher reports it and, at the trap boundary, writes the error value (all bits set).")

	return w.Bytes(), nil
}
