// Package gen projects a validated ABI table into kernel dispatch code and
// user stub code. Every backend renders from the same table instance, so the
// numbers and return-value traits on both sides agree by construction.
package gen

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	gotoken "go/token"
	"log/slog"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sysabi/pkg/abi"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("sysabi").ParseFS(templateFS, "templates/*.tmpl"))

// Backend names a family of generated artifacts.
type Backend string

// Known backends.
const (
	BackendC        Backend = "c"
	BackendGo       Backend = "go"
	BackendManifest Backend = "manifest"
)

// Backends returns every known backend in generation order.
func Backends() []Backend {
	return []Backend{BackendC, BackendGo, BackendManifest}
}

// Description summarizes what b writes.
func (b Backend) Description() string {
	switch b {
	case BackendC:
		return "C numbers header, kernel dispatch switch and user stub header"
	case BackendGo:
		return "Go dispatcher package and Go user stub package"
	case BackendManifest:
		return "JSON manifest of the table, also used as the ABI lock"
	default:
		return ""
	}
}

// ErrUnknownBackend is returned for backend names Generate does not know.
var ErrUnknownBackend = errors.New("unknown backend")

// ErrNameCollision is returned when two generated declarations would share
// one name in the same Go package or C translation unit.
var ErrNameCollision = errors.New("name collision")

// Side tells which half of the trap boundary consumes an artifact.
type Side string

// Artifact sides.
const (
	SideKernel Side = "kernel"
	SideUser   Side = "user"
	SideShared Side = "shared"
)

// Artifact is one generated file.
type Artifact struct {
	Path    string // slash-separated, relative to the output directory
	Backend Backend
	Side    Side
	Content []byte
}

// GoOptions configures the go backend.
type GoOptions struct {
	KernelPackage string
	UserPackage   string
	// RuntimeModule is the module providing pkg/abi and pkg/dispatch.
	RuntimeModule string
}

// COptions configures the c backend.
type COptions struct {
	KernelPrefix string // prefix of kernel handler symbols
	UserPrefix   string // prefix of user stub symbols
	TrapFunction string // trampoline issuing the trap instruction
}

// Options configures Generate. Zero fields take the DefaultOptions value.
type Options struct {
	Backends     []Backend
	ManifestName string
	Go           GoOptions
	C            COptions
	Logger       *slog.Logger
}

// Default option values.
const (
	DefaultManifestName  = "abi.lock.json"
	DefaultKernelPackage = "sysdispatch"
	DefaultUserPackage   = "sys"
	DefaultRuntimeModule = "github.com/leapstack-labs/sysabi"
	DefaultKernelPrefix  = "k_"
	DefaultUserPrefix    = "sys_"
	DefaultTrapFunction  = "generic_syscall"
)

// DefaultOptions returns options generating every backend.
func DefaultOptions() Options {
	return Options{
		Backends:     Backends(),
		ManifestName: DefaultManifestName,
		Go: GoOptions{
			KernelPackage: DefaultKernelPackage,
			UserPackage:   DefaultUserPackage,
			RuntimeModule: DefaultRuntimeModule,
		},
		C: COptions{
			KernelPrefix: DefaultKernelPrefix,
			UserPrefix:   DefaultUserPrefix,
			TrapFunction: DefaultTrapFunction,
		},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.Backends) == 0 {
		o.Backends = d.Backends
	}
	if o.ManifestName == "" {
		o.ManifestName = d.ManifestName
	}
	if o.Go.KernelPackage == "" {
		o.Go.KernelPackage = d.Go.KernelPackage
	}
	if o.Go.UserPackage == "" {
		o.Go.UserPackage = d.Go.UserPackage
	}
	if o.Go.RuntimeModule == "" {
		o.Go.RuntimeModule = d.Go.RuntimeModule
	}
	if o.C.KernelPrefix == "" {
		o.C.KernelPrefix = d.C.KernelPrefix
	}
	if o.C.UserPrefix == "" {
		o.C.UserPrefix = d.C.UserPrefix
	}
	if o.C.TrapFunction == "" {
		o.C.TrapFunction = d.C.TrapFunction
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Generate validates the table and renders every requested backend in memory.
// On any error no artifacts are returned.
func Generate(table *abi.Table, opts Options) ([]Artifact, error) {
	opts = opts.withDefaults()

	if err := abi.Validate(table); err != nil {
		return nil, err
	}

	m, err := newModel(table, opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[Backend]bool, len(opts.Backends))
	var artifacts []Artifact
	for _, b := range opts.Backends {
		if seen[b] {
			return nil, fmt.Errorf("backend %q listed more than once", b)
		}
		seen[b] = true

		var out []Artifact
		switch b {
		case BackendC:
			out, err = renderC(m)
		case BackendGo:
			out, err = renderGo(m)
		case BackendManifest:
			out, err = renderManifest(table, opts.ManifestName)
		default:
			return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBackend, b, backendList())
		}
		if err != nil {
			return nil, fmt.Errorf("%s backend: %w", b, err)
		}

		for _, a := range out {
			opts.Logger.Debug("rendered artifact", "path", a.Path, "side", a.Side, "bytes", len(a.Content))
		}
		artifacts = append(artifacts, out...)
	}

	opts.Logger.Info("generated syscall ABI",
		"syscalls", table.Len(),
		"fingerprint", m.Fingerprint,
		"artifacts", len(artifacts))
	return artifacts, nil
}

// ParseBackends converts names such as "c,go" into backends.
func ParseBackends(names []string) ([]Backend, error) {
	var out []Backend
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			b := Backend(part)
			if !isKnownBackend(b) {
				return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBackend, part, backendList())
			}
			out = append(out, b)
		}
	}
	return out, nil
}

func isKnownBackend(b Backend) bool {
	for _, known := range Backends() {
		if b == known {
			return true
		}
	}
	return false
}

func backendList() string {
	names := make([]string, 0, len(Backends()))
	for _, b := range Backends() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}

// model is the template data shared by all backends.
type model struct {
	Fingerprint string
	Count       int
	Entries     []modelEntry
	Go          GoOptions
	C           COptions
}

type modelEntry struct {
	Number  int
	Name    string
	GoName  string
	Returns bool
}

// newModel numbers entries the way each side sees them: the kernel by
// position, the user stubs by name lookup. Both must agree.
func newModel(table *abi.Table, opts Options) (*model, error) {
	m := &model{
		Fingerprint: table.Fingerprint(),
		Count:       table.Len(),
		Entries:     make([]modelEntry, 0, table.Len()),
		Go:          opts.Go,
		C:           opts.C,
	}

	title := titleCaser()
	goNames := make(map[string]string, table.Len())
	for n := 0; n < table.Len(); n++ {
		e, err := table.EntryAt(n)
		if err != nil {
			return nil, err
		}
		idx, err := table.IndexOf(e.Name)
		if err != nil {
			return nil, err
		}
		if idx != n {
			return nil, fmt.Errorf("syscall %q resolves to %d but sits at %d", e.Name, idx, n)
		}

		goName := goIdentifier(title, e.Name)
		if other, ok := goNames[goName]; ok {
			return nil, fmt.Errorf("%w: syscalls %q and %q both map to Go identifier %q", ErrNameCollision, other, e.Name, goName)
		}
		goNames[goName] = e.Name

		m.Entries = append(m.Entries, modelEntry{
			Number:  n,
			Name:    e.Name,
			GoName:  goName,
			Returns: e.HasReturnValue,
		})
	}
	return m, nil
}

// goIdentifier turns snake_case into an exported CamelCase name.
func goIdentifier(title cases.Caser, name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		b.WriteString(title.String(part))
	}
	id := b.String()
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		return "X" + id
	}
	return id
}

func execute(name string, m *model) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, m); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func isGoPackageName(name string) bool {
	return gotoken.IsIdentifier(name) && name != "_" && strings.ToLower(name) == name
}

func titleCaser() cases.Caser {
	return cases.Title(language.Und, cases.NoLower)
}
