// Package dispatch is the kernel-side projection of an ABI table: it routes a
// trapped syscall number to its handler and tells the trap-return path whether
// the caller's return slot must be written.
//
// A Dispatcher is immutable after New. Concurrent traps perform plain lookups
// and need no locking; handlers guard their own state.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// ErrorValue is written to the return slot when a trap fails at the boundary.
const ErrorValue = ^uint64(0)

var (
	// ErrInvalidSyscallNumber is returned for trap numbers outside the table.
	ErrInvalidSyscallNumber = errors.New("invalid syscall number")

	// ErrMissingHandler is returned by New when a syscall has no handler.
	ErrMissingHandler = errors.New("missing syscall handler")
)

// Args holds the raw argument registers captured by the trap mechanism.
type Args [6]uint64

// Handler implements one syscall. The returned value is only delivered to the
// caller when the syscall's trait says the return slot is written.
type Handler func(ctx context.Context, args Args) (uint64, error)

// Route is the dispatch decision for one syscall number.
type Route struct {
	Number       int
	Name         string
	WritesReturn bool
	Handler      Handler
}

// Result is what the trap-return path hands back to the caller.
type Result struct {
	Value   uint64
	Written bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failures at the trap boundary.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher routes syscall numbers to handlers.
type Dispatcher struct {
	routes      []Route
	fingerprint string
	logger      *slog.Logger
}

// New validates the table and binds every entry to its handler by name.
// Every syscall needs exactly one handler; handlers for names the table does
// not know are rejected.
func New(table *abi.Table, handlers map[string]Handler, opts ...Option) (*Dispatcher, error) {
	if err := abi.Validate(table); err != nil {
		return nil, err
	}

	for name := range handlers {
		if _, err := table.IndexOf(name); err != nil {
			return nil, fmt.Errorf("handler registered for %w", err)
		}
	}

	d := &Dispatcher{
		routes:      make([]Route, table.Len()),
		fingerprint: table.Fingerprint(),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}

	var missing []string
	for n := 0; n < table.Len(); n++ {
		e, err := table.EntryAt(n)
		if err != nil {
			return nil, err
		}
		h := handlers[e.Name]
		if h == nil {
			missing = append(missing, e.Name)
			continue
		}
		d.routes[n] = Route{Number: n, Name: e.Name, WritesReturn: e.HasReturnValue, Handler: h}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingHandler, strings.Join(missing, ", "))
	}

	return d, nil
}

// Len returns the number of routable syscalls.
func (d *Dispatcher) Len() int {
	return len(d.routes)
}

// Fingerprint returns the fingerprint of the table the dispatcher was built
// from. It matches the fingerprint compiled into the user stubs.
func (d *Dispatcher) Fingerprint() string {
	return d.fingerprint
}

// Route bounds-checks n and returns its dispatch decision. n comes from
// untrusted user code; the check runs on every call.
func (d *Dispatcher) Route(n uint64) (Route, error) {
	if n >= uint64(len(d.routes)) {
		return Route{}, fmt.Errorf("%w: %d (table has %d syscalls)", ErrInvalidSyscallNumber, n, len(d.routes))
	}
	return d.routes[n], nil
}

// Dispatch routes n and invokes its handler. For syscalls without a return
// value the result is always zero and unwritten, whatever the handler returned.
// Invalid numbers never reach a handler.
func (d *Dispatcher) Dispatch(ctx context.Context, n uint64, args Args) (Result, error) {
	r, err := d.Route(n)
	if err != nil {
		return Result{}, err
	}
	return invoke(ctx, r, args)
}

func invoke(ctx context.Context, r Route, args Args) (Result, error) {
	v, err := r.Handler(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("syscall %s (%d): %w", r.Name, r.Number, err)
	}
	if !r.WritesReturn {
		return Result{}, nil
	}
	return Result{Value: v, Written: true}, nil
}

// Trap is the trap-boundary entry point. It dispatches n and updates the
// caller's return slot: the handler's value on success, ErrorValue for an
// invalid number or a failing syscall that has a return slot. Void syscalls
// leave the slot untouched, even when their handler fails. Trap never panics
// on bad input.
func (d *Dispatcher) Trap(ctx context.Context, n uint64, args Args, slot *uint64) {
	if slot == nil {
		slot = new(uint64)
	}
	r, err := d.Route(n)
	if err != nil {
		d.logger.Debug("invalid syscall number", "number", n, "error", err)
		*slot = ErrorValue
		return
	}
	res, err := invoke(ctx, r, args)
	if err != nil {
		d.logger.Debug("syscall failed", "number", n, "name", r.Name, "error", err)
		if r.WritesReturn {
			*slot = ErrorValue
		}
		return
	}
	if res.Written {
		*slot = res.Value
	}
}
