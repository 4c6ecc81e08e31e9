package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sysabi/internal/cli/output"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// ErrNoLock is returned by check when the lock file does not exist.
var ErrNoLock = errors.New("lock file not found")

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the table only appends to the locked ABI",
		Long: `Compare the table against the lock file written by generate.

Syscall numbers are part of the ABI: removing, renaming or reordering an
entry, or changing whether it returns a value, breaks every binary built
against the lock. Only new entries at the end of the table are compatible.`,
		Example: `  # Check against the configured lock
  sysabi check

  # Check a table against a specific lock
  sysabi check --table syscalls.yaml --lock release/abi.lock.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(NewCommandContext(cmd))
		},
	}

	cmd.Flags().String("table", "", "Syscall table file (default: built-in ABI)")
	cmd.Flags().String("lock", "", "ABI lock file (default: abi.lock.json)")

	return cmd
}

func runCheck(cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer

	next, err := cmdCtx.LoadTable()
	if err != nil {
		return err
	}
	if err := abi.Validate(next); err != nil {
		return err
	}

	base, err := cmdCtx.LoadLock()
	if err != nil {
		return err
	}
	if base == nil {
		return fmt.Errorf("%w: %s\nHint: Run 'sysabi generate' to create it", ErrNoLock, cmdCtx.Cfg.Lock)
	}

	result := output.CheckOutput{
		Lock:            cmdCtx.Cfg.Lock,
		LockCount:       base.Len(),
		Count:           next.Len(),
		LockFingerprint: base.Fingerprint(),
		Fingerprint:     next.Fingerprint(),
		Added:           addedNames(base, next),
	}

	checkErr := abi.CheckAppendOnly(base, next)
	if checkErr != nil {
		result.Added = []string{}
		result.Error = checkErr.Error()
	} else {
		result.Compatible = true
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(result); err != nil {
			return err
		}
	case output.ModeText:
		if checkErr == nil {
			s := r.Styles()
			r.Println(s.Success.Render("✓ table is compatible with " + result.Lock))
			printAdded(r, result.Added)
		}
	default:
		if checkErr == nil {
			r.Println(output.FormatHeader(1, "Compatible"))
			r.Println("")
			r.Println(output.FormatKeyValue("Lock", result.Lock))
			r.Println(output.FormatKeyValue("Locked syscalls", fmt.Sprintf("%d", result.LockCount)))
			printAdded(r, result.Added)
		}
	}
	return checkErr
}

// addedNames lists entries of next past the end of base.
func addedNames(base, next *abi.Table) []string {
	added := []string{}
	for i := base.Len(); i < next.Len(); i++ {
		e, err := next.EntryAt(i)
		if err != nil {
			break
		}
		added = append(added, fmt.Sprintf("%d %s", i, e.Name))
	}
	return added
}

func printAdded(r *output.Renderer, added []string) {
	if len(added) == 0 {
		r.Println("No new syscalls.")
		return
	}
	r.Printf("%d new syscall(s):\n", len(added))
	for _, a := range added {
		r.Println("  + " + a)
	}
}
