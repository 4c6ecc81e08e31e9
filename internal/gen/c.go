package gen

import "fmt"

// Output paths of the c backend.
const (
	CNumbersPath  = "c/syscall_numbers.h"
	CDispatchPath = "c/kernel/syscall_dispatch.c"
	CUserPath     = "c/user/syscalls.h"
)

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "struct": true, "switch": true, "typedef": true, "union": true,
	"unsigned": true, "void": true, "volatile": true, "while": true,
	"bool": true, "true": true, "false": true,
}

// Names every translation unit sees through stddef.h, stdbool.h and
// syscall_numbers.h.
var cSharedSymbols = []string{
	"size_t", "ptrdiff_t", "wchar_t", "max_align_t", "NULL", "offsetof",
	"Syscall", "SYSCALL_COUNT", "SYSCALL_ABI_FINGERPRINT", "SYSABI_SYSCALL_NUMBERS_H",
}

// Parameter names of the generated functions. A global with the same name
// would be shadowed inside their bodies.
var cParams = []string{"num", "arg1", "arg2", "arg3", "arg4", "ret"}

func renderC(m *model) ([]Artifact, error) {
	if err := checkCSymbols(m); err != nil {
		return nil, err
	}

	files := []struct {
		path     string
		template string
		side     Side
	}{
		{CNumbersPath, "c_numbers", SideShared},
		{CDispatchPath, "c_dispatch", SideKernel},
		{CUserPath, "c_user", SideUser},
	}

	out := make([]Artifact, 0, len(files))
	for _, f := range files {
		content, err := execute(f.template, m)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{Path: f.path, Backend: BackendC, Side: f.side, Content: content})
	}
	return out, nil
}

type cScope struct {
	unit  string
	names map[string]string
}

func newCScope(unit string, fixed ...string) *cScope {
	sc := &cScope{unit: unit, names: make(map[string]string)}
	for _, name := range fixed {
		sc.names[name] = fmt.Sprintf("the generated name %q", name)
	}
	return sc
}

func (sc *cScope) declare(sym, owner string) error {
	if prev, ok := sc.names[sym]; ok {
		return fmt.Errorf("%w: C symbol %q of %s collides with %s in %s", ErrNameCollision, sym, owner, prev, sc.unit)
	}
	sc.names[sym] = owner
	return nil
}

// checkCSymbols rejects tables whose generated C symbols are keywords or
// clash inside the kernel or user translation unit.
func checkCSymbols(m *model) error {
	shared := append(append([]string{}, cSharedSymbols...), cParams...)
	kernel := newCScope(CDispatchPath, append(shared,
		"syscall_has_return_value", m.C.KernelPrefix+"dispatch_syscall")...)
	user := newCScope(CUserPath, append(shared,
		"SYSABI_USER_SYSCALLS_H")...)
	if err := user.declare(m.C.TrapFunction, "the trap function"); err != nil {
		return err
	}

	for _, e := range m.Entries {
		for _, sym := range []string{m.C.KernelPrefix + e.Name, m.C.UserPrefix + e.Name} {
			if cKeywords[sym] {
				return fmt.Errorf("syscall %q produces C keyword %q; set a symbol prefix", e.Name, sym)
			}
		}

		enum := "syscall_" + e.Name
		enumOwner := fmt.Sprintf("the number of syscall %q", e.Name)
		if err := kernel.declare(enum, enumOwner); err != nil {
			return err
		}
		if err := user.declare(enum, enumOwner); err != nil {
			return err
		}
		if err := kernel.declare(m.C.KernelPrefix+e.Name, fmt.Sprintf("the handler of syscall %q", e.Name)); err != nil {
			return err
		}
		if err := user.declare(m.C.UserPrefix+e.Name, fmt.Sprintf("the stub of syscall %q", e.Name)); err != nil {
			return err
		}
	}
	return nil
}
