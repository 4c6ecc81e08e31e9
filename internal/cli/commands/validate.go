package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sysabi/internal/cli/output"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [table]",
		Short: "Validate a syscall table",
		Long: `Load a syscall table and check it before anything is generated.

A table is rejected when it is empty, when an entry has an empty or
non-identifier name, or when a name appears twice. The first problem in
table order is reported. Without an argument the configured table is used,
or the built-in ABI when none is configured.`,
		Example: `  # Validate the configured table
  sysabi validate

  # Validate a specific file
  sysabi validate syscalls.yaml

  # Machine-readable result
  sysabi validate -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			if len(args) == 1 {
				cmdCtx.Cfg.Table = args[0]
			}
			return runValidate(cmdCtx)
		},
	}
	return cmd
}

func runValidate(cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer
	result := output.ValidateOutput{Source: cmdCtx.tableSource()}

	t, err := cmdCtx.LoadTable()
	if err == nil {
		result.Count = t.Len()
		err = abi.Validate(t)
	}
	if err != nil {
		if r.EffectiveMode() == output.ModeJSON {
			result.Error = err.Error()
			_ = r.JSON(result)
		}
		return err
	}

	result.Valid = true
	result.Fingerprint = t.Fingerprint()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeText:
		s := r.Styles()
		r.Println(s.Success.Render("✓ table is valid"))
		r.Printf("  %s %s\n", s.Muted.Render("source:     "), result.Source)
		r.Printf("  %s %d\n", s.Muted.Render("syscalls:   "), result.Count)
		r.Printf("  %s %s\n", s.Muted.Render("fingerprint:"), result.Fingerprint)
	default:
		r.Println(output.FormatHeader(1, "Table is valid"))
		r.Println("")
		r.Println(output.FormatKeyValue("Source", result.Source))
		r.Println(output.FormatKeyValue("Syscalls", fmt.Sprintf("%d", result.Count)))
		r.Println(output.FormatKeyValue("Fingerprint", result.Fingerprint))
	}
	return nil
}
