package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sysabi/internal/cli/config"
	"github.com/leapstack-labs/sysabi/internal/cli/output"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config and logger stored on the command
// context by the root command and builds a renderer for the configured
// output mode.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// LoadTable loads the configured table file, or the built-in ABI when no
// table is configured. The table is not validated.
func (c *CommandContext) LoadTable() (*abi.Table, error) {
	if c.Cfg.Table == "" {
		c.Logger.Debug("using built-in syscall table")
		return abi.Current(), nil
	}
	if err := c.Cfg.ValidateTable(); err != nil {
		return nil, err
	}
	t, err := abi.LoadFile(c.Cfg.Table)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded syscall table", "file", c.Cfg.Table, "syscalls", t.Len())
	return t, nil
}

// tableSource describes where LoadTable reads from.
func (c *CommandContext) tableSource() string {
	if c.Cfg.Table == "" {
		return "built-in"
	}
	return c.Cfg.Table
}

// LoadLock reads the lock file written by generate. It returns nil and no
// error when the lock does not exist yet.
func (c *CommandContext) LoadLock() (*abi.Table, error) {
	if !c.Cfg.LockExists() {
		return nil, nil
	}
	t, err := abi.LoadFile(c.Cfg.Lock)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock: %w", err)
	}
	return t, nil
}
