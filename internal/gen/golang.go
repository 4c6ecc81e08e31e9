package gen

import (
	"fmt"
	"path"

	"golang.org/x/tools/imports"
)

// GoFileName is the file name the go backend writes in each package directory.
const GoFileName = "syscalls_gen.go"

func renderGo(m *model) ([]Artifact, error) {
	for _, pkg := range []string{m.Go.KernelPackage, m.Go.UserPackage} {
		if !isGoPackageName(pkg) {
			return nil, fmt.Errorf("invalid Go package name %q", pkg)
		}
	}
	if m.Go.KernelPackage == m.Go.UserPackage {
		return nil, fmt.Errorf("kernel and user packages must differ, both are %q", m.Go.KernelPackage)
	}
	if err := checkGoDeclarations(m); err != nil {
		return nil, err
	}

	files := []struct {
		pkg      string
		template string
		side     Side
	}{
		{m.Go.KernelPackage, "go_kernel", SideKernel},
		{m.Go.UserPackage, "go_user", SideUser},
	}

	out := make([]Artifact, 0, len(files))
	for _, f := range files {
		src, err := execute(f.template, m)
		if err != nil {
			return nil, err
		}
		p := path.Join("go", f.pkg, GoFileName)
		formatted, err := imports.Process(p, src, &imports.Options{
			Comments:   true,
			TabIndent:  true,
			TabWidth:   8,
			FormatOnly: true,
		})
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", p, err)
		}
		out = append(out, Artifact{Path: p, Backend: BackendGo, Side: f.side, Content: formatted})
	}
	return out, nil
}

// checkGoDeclarations rejects tables whose generated package-level names
// clash. The kernel package declares the fixed names below plus one Sys
// constant per syscall; the user package also declares one stub function
// per syscall.
func checkGoDeclarations(m *model) error {
	kernel := map[string]string{
		"Fingerprint":   "the Fingerprint constant",
		"Handlers":      "the Handlers interface",
		"Table":         "the Table function",
		"NewDispatcher": "the NewDispatcher function",
	}
	user := map[string]string{
		"Fingerprint": "the Fingerprint constant",
		"Trapper":     "the Trapper interface",
	}

	declare := func(scope map[string]string, pkg, ident, owner, syscall string) error {
		if prev, ok := scope[ident]; ok {
			return fmt.Errorf("%w: Go identifier %q of syscall %q collides with %s in package %s",
				ErrNameCollision, ident, syscall, prev, pkg)
		}
		scope[ident] = owner
		return nil
	}

	for _, e := range m.Entries {
		constName := "Sys" + e.GoName
		constOwner := fmt.Sprintf("the number constant of syscall %q", e.Name)
		if err := declare(kernel, m.Go.KernelPackage, constName, constOwner, e.Name); err != nil {
			return err
		}
		if err := declare(user, m.Go.UserPackage, constName, constOwner, e.Name); err != nil {
			return err
		}
		stubOwner := fmt.Sprintf("the stub of syscall %q", e.Name)
		if err := declare(user, m.Go.UserPackage, e.GoName, stubOwner, e.Name); err != nil {
			return err
		}
	}
	return nil
}
