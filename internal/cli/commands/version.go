package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sysabi version and the fingerprint of the built-in syscall ABI.`,
		Run: func(cmd *cobra.Command, _ []string) {
			current := abi.Current()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sysabi v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Built-in ABI: %d syscalls, fingerprint %s\n", current.Len(), current.Fingerprint())
		},
	}
}
