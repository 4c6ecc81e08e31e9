package abi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"gopkg.in/yaml.v3"
)

// StarlarkVar is the global a Starlark table file must assign.
const StarlarkVar = "syscalls"

// LoadError represents an error loading an authored table.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.File == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.File, msg)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadFile reads an authored table, picking the format from the extension:
// .yaml/.yml, .star/.py (Starlark) or .json (manifest).
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the table the user asked to build
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	case ".star", ".py", ".bzl":
		return ParseStarlark(path, data)
	case ".json":
		return ParseManifest(path, data)
	default:
		return nil, &LoadError{File: path, Message: fmt.Sprintf("unsupported table format %q", filepath.Ext(path))}
	}
}

type yamlTable struct {
	Syscalls []yamlEntry `yaml:"syscalls"`
}

type yamlEntry struct {
	Name    string `yaml:"name"`
	Returns *bool  `yaml:"returns"`
}

// ParseYAML reads a table of the form
//
//	syscalls:
//	  - name: add_thread
//	    returns: true
//
// Every entry must state returns explicitly.
func ParseYAML(filename string, data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc yamlTable
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{File: filename, Message: "invalid YAML", Cause: err}
	}

	entries := make([]Entry, 0, len(doc.Syscalls))
	for i, e := range doc.Syscalls {
		if e.Returns == nil {
			return nil, &LoadError{File: filename, Message: fmt.Sprintf("syscall %d (%q) does not set returns", i, e.Name)}
		}
		entries = append(entries, Entry{Name: e.Name, HasReturnValue: *e.Returns})
	}
	return New(entries...), nil
}

// ParseStarlark executes a Starlark file that assigns a sequence of
// (name, has_return_value) pairs to the global "syscalls".
func ParseStarlark(filename string, src []byte) (*Table, error) {
	thread := &starlark.Thread{
		Name: "load:" + filepath.Base(filename),
		Print: func(_ *starlark.Thread, _ string) {
			// Table files have no business printing
		},
	}

	globals, err := starlark.ExecFile(thread, filename, src, nil) //nolint:staticcheck // SA1019: the legacy entry point keeps the default file options
	if err != nil {
		return nil, &LoadError{File: filename, Message: "Starlark execution error", Cause: err}
	}

	value, ok := globals[StarlarkVar]
	if !ok {
		return nil, &LoadError{File: filename, Message: fmt.Sprintf("global %q is not defined", StarlarkVar)}
	}
	seq, ok := value.(starlark.Indexable)
	if !ok {
		return nil, &LoadError{File: filename, Message: fmt.Sprintf("%q must be a tuple or list, got %s", StarlarkVar, value.Type())}
	}

	entries := make([]Entry, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		e, err := starlarkEntry(seq.Index(i))
		if err != nil {
			return nil, &LoadError{File: filename, Message: fmt.Sprintf("syscall %d: %v", i, err)}
		}
		entries = append(entries, e)
	}
	return New(entries...), nil
}

func starlarkEntry(v starlark.Value) (Entry, error) {
	pair, ok := v.(starlark.Indexable)
	if !ok || pair.Len() != 2 {
		return Entry{}, fmt.Errorf("expected (name, has_return_value) pair, got %s", v)
	}
	name, ok := starlark.AsString(pair.Index(0))
	if !ok {
		return Entry{}, fmt.Errorf("name must be a string, got %s", pair.Index(0).Type())
	}
	returns, ok := pair.Index(1).(starlark.Bool)
	if !ok {
		return Entry{}, fmt.Errorf("%s: has_return_value must be a bool, got %s", name, pair.Index(1).Type())
	}
	return Entry{Name: name, HasReturnValue: bool(returns)}, nil
}
