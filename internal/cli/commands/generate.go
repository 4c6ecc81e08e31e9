package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sysabi/internal/cli/output"
	"github.com/leapstack-labs/sysabi/internal/gen"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Watch         bool // Regenerate when the table file changes
	AllowBreaking bool // Accept a table that is not append-only against the lock
	NoLock        bool // Neither check nor update the lock file
}

// watchDebounce is how long generate --watch waits for edits to settle.
const watchDebounce = 100 * time.Millisecond

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate kernel dispatch and user stub code",
		Long: `Validate the syscall table and render kernel dispatch code and user
stubs from it.

Every artifact is rendered in memory first; nothing is written unless the
whole generation succeeded. When a lock file exists, the table must only
append to it. After a successful run the lock is rewritten to describe the
generated ABI.

Backends:
  c         syscall_numbers.h, syscall_dispatch.c (kernel) and syscalls.h (user)
  go        kernel dispatcher and user stubs as Go packages
  manifest  JSON description of the table`,
		Example: `  # Generate the configured backends
  sysabi generate

  # Generate C code only, into another directory
  sysabi generate --backend c --out build/gen

  # Regenerate on every edit of the table
  sysabi generate --table syscalls.yaml --watch`,
		Aliases: []string{"gen"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			if !opts.Watch {
				return runGenerate(cmdCtx, opts)
			}
			return watchGenerate(cmd.Context(), cmdCtx, opts)
		},
	}

	cmd.Flags().String("table", "", "Syscall table file (default: built-in ABI)")
	cmd.Flags().StringP("out", "d", "", "Output directory (default: generated)")
	cmd.Flags().StringSlice("backend", nil, "Backends to generate: c, go, manifest (default: c,go)")
	cmd.Flags().String("lock", "", "ABI lock file (default: abi.lock.json)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Regenerate when the table file changes")
	cmd.Flags().BoolVar(&opts.AllowBreaking, "allow-breaking", false, "Accept removed, renamed or reordered syscalls")
	cmd.Flags().BoolVar(&opts.NoLock, "no-lock", false, "Do not check or update the lock file")

	_ = cmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(gen.Backends()))
		for _, b := range gen.Backends() {
			names = append(names, string(b))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runGenerate(cmdCtx *CommandContext, opts *GenerateOptions) error {
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	t, err := cmdCtx.LoadTable()
	if err != nil {
		return err
	}
	if err := abi.Validate(t); err != nil {
		return err
	}

	if !opts.NoLock {
		if err := checkLock(cmdCtx, t, opts.AllowBreaking); err != nil {
			return err
		}
	}

	genOpts, err := cfg.GenOptions()
	if err != nil {
		return err
	}
	genOpts.Logger = cmdCtx.Logger

	artifacts, err := gen.Generate(t, genOpts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	results, err := gen.Write(cfg.OutputDir, artifacts)
	if err != nil {
		return err
	}

	result := output.GenerateOutput{
		Fingerprint: t.Fingerprint(),
		Count:       t.Len(),
		OutputDir:   cfg.OutputDir,
		Files:       make([]output.FileOutput, 0, len(results)),
	}
	for i, res := range results {
		result.Files = append(result.Files, output.FileOutput{
			Path:    res.Path,
			Side:    string(artifacts[i].Side),
			Changed: res.Changed,
		})
	}

	if !opts.NoLock {
		if err := writeLock(cfg.Lock, t); err != nil {
			return err
		}
		result.Lock = cfg.Lock
	}

	reportGenerate(r, result)
	return nil
}

// checkLock rejects tables that are not append-only against the lock.
func checkLock(cmdCtx *CommandContext, t *abi.Table, allowBreaking bool) error {
	base, err := cmdCtx.LoadLock()
	if err != nil || base == nil {
		return err
	}
	if err := abi.CheckAppendOnly(base, t); err != nil {
		if !allowBreaking {
			return fmt.Errorf("%w\nHint: Append new syscalls at the end, or pass --allow-breaking to replace %s", err, cmdCtx.Cfg.Lock)
		}
		cmdCtx.Renderer.Warning(err.Error())
		cmdCtx.Logger.Warn("accepting breaking ABI change", "lock", cmdCtx.Cfg.Lock, "error", err)
	}
	return nil
}

// writeLock stores the manifest of t as the lock file.
func writeLock(lock string, t *abi.Table) error {
	artifacts, err := gen.Generate(t, gen.Options{
		Backends:     []gen.Backend{gen.BackendManifest},
		ManifestName: filepath.Base(lock),
	})
	if err != nil {
		return err
	}
	if _, err := gen.Write(filepath.Dir(lock), artifacts); err != nil {
		return fmt.Errorf("failed to update lock: %w", err)
	}
	return nil
}

func reportGenerate(r *output.Renderer, result output.GenerateOutput) {
	changed := 0
	for _, f := range result.Files {
		if f.Changed {
			changed++
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		_ = r.JSON(result)
	case output.ModeText:
		s := r.Styles()
		for _, f := range result.Files {
			if f.Changed {
				r.Println(s.Success.Render("✓ wrote ") + f.Path)
			} else {
				r.Println(s.Muted.Render("  unchanged " + f.Path))
			}
		}
		r.Printf("%s %d syscalls, %d of %d files changed, fingerprint %s\n",
			s.Bold.Render("Generated"), result.Count, changed, len(result.Files), result.Fingerprint)
	default:
		r.Println(output.FormatHeader(1, "Generated"))
		r.Println("")
		r.Println(output.FormatKeyValue("Syscalls", fmt.Sprintf("%d", result.Count)))
		r.Println(output.FormatKeyValue("Fingerprint", result.Fingerprint))
		r.Println(output.FormatKeyValue("Changed", fmt.Sprintf("%d of %d", changed, len(result.Files))))
		r.Println("")
		for _, f := range result.Files {
			state := "unchanged"
			if f.Changed {
				state = "written"
			}
			r.Printf("- `%s` (%s, %s)\n", f.Path, f.Side, state)
		}
	}
}

func watchGenerate(ctx context.Context, cmdCtx *CommandContext, opts *GenerateOptions) error {
	if cmdCtx.Cfg.Table == "" {
		return fmt.Errorf("--watch needs a table file\nHint: Pass --table or set table in sysabi.yaml")
	}

	if err := runGenerate(cmdCtx, opts); err != nil {
		cmdCtx.Renderer.Warning(err.Error())
	}

	cmdCtx.Logger.Info("watching table", "file", cmdCtx.Cfg.Table)
	return watchFile(ctx, cmdCtx.Cfg.Table, watchDebounce, cmdCtx.Logger, func() {
		// Generation errors are reported and the watch goes on.
		if err := runGenerate(cmdCtx, opts); err != nil {
			cmdCtx.Renderer.Warning(err.Error())
		}
	})
}
