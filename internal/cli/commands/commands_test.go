package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sysabi/internal/cli/config"
	"github.com/leapstack-labs/sysabi/internal/cli/output"
	"github.com/leapstack-labs/sysabi/internal/cli/testutil"
	"github.com/leapstack-labs/sysabi/internal/gen"
	logutil "github.com/leapstack-labs/sysabi/internal/testutil"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// newTestContext returns a command context for a project in a temp dir,
// reading its table from syscalls.yaml.
func newTestContext(t *testing.T, tr *testutil.TestRenderer) (*CommandContext, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Table = testutil.WriteFile(t, dir, "syscalls.yaml", testutil.TableYAML)
	cfg.OutputDir = filepath.Join(dir, "gen")
	cfg.Lock = filepath.Join(dir, config.DefaultLock)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logutil.NewTestLogger(t),
		Renderer: tr.Renderer,
	}, dir
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		use string
		cmd func() string
	}{
		{use: "validate [table]", cmd: func() string { return NewValidateCommand().Use }},
		{use: "list", cmd: func() string { return NewListCommand().Use }},
		{use: "check", cmd: func() string { return NewCheckCommand().Use }},
		{use: "generate", cmd: func() string { return NewGenerateCommand().Use }},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.use, tt.cmd())
	}

	genCmd := NewGenerateCommand()
	assert.NotEmpty(t, genCmd.Example, "Example should not be empty")
	assert.Equal(t, []string{"gen"}, genCmd.Aliases)
	for _, flag := range []string{"table", "out", "backend", "lock", "watch", "allow-breaking", "no-lock"} {
		assert.NotNil(t, genCmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "d", genCmd.Flags().Lookup("out").Shorthand)

	checkCmd := NewCheckCommand()
	for _, flag := range []string{"table", "lock"} {
		assert.NotNil(t, checkCmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestLoadTable_BuiltIn(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	cmdCtx, _ := newTestContext(t, tr)
	cmdCtx.Cfg.Table = ""

	tbl, err := cmdCtx.LoadTable()
	require.NoError(t, err)
	assert.Equal(t, abi.Current().Fingerprint(), tbl.Fingerprint())
	assert.Equal(t, "built-in", cmdCtx.tableSource())
}

func TestLoadTable_Missing(t *testing.T) {
	cmdCtx, dir := newTestContext(t, testutil.NewTestRendererMarkdown())
	cmdCtx.Cfg.Table = filepath.Join(dir, "nope.yaml")

	_, err := cmdCtx.LoadTable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table file does not exist")
}

func TestRunValidate(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		cmdCtx, _ := newTestContext(t, tr)

		require.NoError(t, runValidate(cmdCtx))
		out := tr.Output()
		assert.Contains(t, out, "# Table is valid")
		assert.Contains(t, out, "- **Syscalls**: 2")
		testutil.AssertValidMarkdown(t, out)
		testutil.AssertNoANSI(t, out)
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		cmdCtx, _ := newTestContext(t, tr)

		require.NoError(t, runValidate(cmdCtx))
		assert.Contains(t, tr.Output(), "table is valid")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		cmdCtx, _ := newTestContext(t, tr)

		require.NoError(t, runValidate(cmdCtx))
		var got output.ValidateOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.True(t, got.Valid)
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, abi.New(abi.Returning("open"), abi.Void("close")).Fingerprint(), got.Fingerprint)
	})

	t.Run("duplicate name", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		cmdCtx, dir := newTestContext(t, tr)
		cmdCtx.Cfg.Table = testutil.WriteFile(t, dir, "dup.yaml",
			"syscalls:\n  - {name: a, returns: true}\n  - {name: a, returns: false}\n")

		err := runValidate(cmdCtx)
		require.ErrorIs(t, err, abi.ErrDuplicateName)

		var got output.ValidateOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.False(t, got.Valid)
		assert.Contains(t, got.Error, "positions 0 and 1")
	})
}

func TestList(t *testing.T) {
	tbl := abi.New(abi.Returning("open"), abi.Void("close"))

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		listMarkdown(tbl, tr.Renderer)

		out := tr.Output()
		assert.Contains(t, out, "# Syscalls (2 total)")
		assert.Contains(t, out, "| Number | Name | Returns |")
		assert.Contains(t, out, "| 0 | open | value |")
		assert.Contains(t, out, "| 1 | close | void |")
		testutil.AssertValidMarkdown(t, out)
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		listText(tbl, tr.Renderer)

		out := tr.Output()
		assert.Contains(t, out, "Syscalls (2 total)")
		assert.Contains(t, out, "open")
		assert.Contains(t, out, "close")
		assert.Contains(t, out, tbl.Fingerprint())
	})
}

func TestRunCheck(t *testing.T) {
	t.Run("no lock", func(t *testing.T) {
		cmdCtx, _ := newTestContext(t, testutil.NewTestRendererMarkdown())
		require.ErrorIs(t, runCheck(cmdCtx), ErrNoLock)
	})

	t.Run("append is compatible", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		cmdCtx, _ := newTestContext(t, tr)
		require.NoError(t, writeLock(cmdCtx.Cfg.Lock, abi.New(abi.Returning("open"))))

		require.NoError(t, runCheck(cmdCtx))
		var got output.CheckOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.True(t, got.Compatible)
		assert.Equal(t, 1, got.LockCount)
		assert.Equal(t, []string{"1 close"}, got.Added)
	})

	t.Run("removal is breaking", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		cmdCtx, _ := newTestContext(t, tr)
		locked := abi.New(abi.Returning("open"), abi.Void("close"), abi.Returning("read"))
		require.NoError(t, writeLock(cmdCtx.Cfg.Lock, locked))

		err := runCheck(cmdCtx)
		require.ErrorIs(t, err, abi.ErrBreakingChange)
		assert.Empty(t, tr.Output(), "failures go through the returned error")
	})

	t.Run("trait change is breaking", func(t *testing.T) {
		cmdCtx, _ := newTestContext(t, testutil.NewTestRendererMarkdown())
		require.NoError(t, writeLock(cmdCtx.Cfg.Lock, abi.New(abi.Returning("open"), abi.Returning("close"))))
		require.ErrorIs(t, runCheck(cmdCtx), abi.ErrBreakingChange)
	})
}

func TestRunGenerate(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	cmdCtx, _ := newTestContext(t, tr)
	opts := &GenerateOptions{}

	require.NoError(t, runGenerate(cmdCtx, opts))

	var got output.GenerateOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, cmdCtx.Cfg.Lock, got.Lock)
	require.Len(t, got.Files, 5, "c backend writes 3 files, go backend 2")
	for _, f := range got.Files {
		assert.True(t, f.Changed, f.Path)
		assert.FileExists(t, f.Path)
	}

	header, err := os.ReadFile(filepath.Join(cmdCtx.Cfg.OutputDir, filepath.FromSlash(gen.CNumbersPath)))
	require.NoError(t, err)
	assert.Contains(t, string(header), "syscall_open = 0")
	assert.Contains(t, string(header), "syscall_close = 1")

	lock, err := abi.LoadFile(cmdCtx.Cfg.Lock)
	require.NoError(t, err)
	assert.Equal(t, got.Fingerprint, lock.Fingerprint())

	// Second run changes nothing.
	tr.Reset()
	require.NoError(t, runGenerate(cmdCtx, opts))
	got = output.GenerateOutput{}
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	for _, f := range got.Files {
		assert.False(t, f.Changed, f.Path)
	}
}

func TestRunGenerate_AppendOnlyLock(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	cmdCtx, dir := newTestContext(t, tr)
	require.NoError(t, runGenerate(cmdCtx, &GenerateOptions{}))

	// Swapping the two entries renumbers both.
	cmdCtx.Cfg.Table = testutil.WriteFile(t, dir, "swapped.yaml",
		"syscalls:\n  - {name: close, returns: false}\n  - {name: open, returns: true}\n")
	before, err := os.ReadFile(filepath.Join(cmdCtx.Cfg.OutputDir, filepath.FromSlash(gen.CNumbersPath)))
	require.NoError(t, err)

	err = runGenerate(cmdCtx, &GenerateOptions{})
	require.ErrorIs(t, err, abi.ErrBreakingChange)
	assert.Contains(t, err.Error(), "--allow-breaking")

	after, err := os.ReadFile(filepath.Join(cmdCtx.Cfg.OutputDir, filepath.FromSlash(gen.CNumbersPath)))
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected tables must not touch outputs")

	tr.Reset()
	require.NoError(t, runGenerate(cmdCtx, &GenerateOptions{AllowBreaking: true}))
	assert.Contains(t, tr.ErrorOutput(), "Warning:")

	lock, err := abi.LoadFile(cmdCtx.Cfg.Lock)
	require.NoError(t, err)
	idx, err := lock.IndexOf("close")
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "lock follows the accepted table")
}

func TestRunGenerate_NoLock(t *testing.T) {
	cmdCtx, _ := newTestContext(t, testutil.NewTestRendererMarkdown())
	require.NoError(t, runGenerate(cmdCtx, &GenerateOptions{NoLock: true}))
	assert.NoFileExists(t, cmdCtx.Cfg.Lock)
}

func TestRunGenerate_InvalidTableWritesNothing(t *testing.T) {
	cmdCtx, dir := newTestContext(t, testutil.NewTestRendererMarkdown())
	cmdCtx.Cfg.Table = testutil.WriteFile(t, dir, "bad.yaml",
		"syscalls:\n  - {name: open, returns: true}\n  - {name: \"\", returns: true}\n")

	err := runGenerate(cmdCtx, &GenerateOptions{})
	require.ErrorIs(t, err, abi.ErrEmptyName)
	assert.NoDirExists(t, cmdCtx.Cfg.OutputDir)
	assert.NoFileExists(t, cmdCtx.Cfg.Lock)
}

func TestRunGenerate_UnknownBackend(t *testing.T) {
	cmdCtx, _ := newTestContext(t, testutil.NewTestRendererMarkdown())
	cmdCtx.Cfg.Backends = []string{"rust"}

	err := runGenerate(cmdCtx, &GenerateOptions{})
	require.ErrorIs(t, err, gen.ErrUnknownBackend)
	assert.NoDirExists(t, cmdCtx.Cfg.OutputDir)
}

func TestWatchGenerate_NeedsTable(t *testing.T) {
	cmdCtx, _ := newTestContext(t, testutil.NewTestRendererMarkdown())
	cmdCtx.Cfg.Table = ""
	require.Error(t, watchGenerate(context.Background(), cmdCtx, &GenerateOptions{Watch: true}))
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "syscalls.yaml", testutil.TableYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 10*time.Millisecond, logutil.NewTestLogger(t), func() {
			calls.Add(1)
		})
	}()

	// Keep editing until the debounced callback fires.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600)
		_ = os.WriteFile(path, []byte(testutil.TableYAML+"  - {name: read, returns: true}\n"), 0600)
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not stop after cancel")
	}
}

func TestWatchFile_MissingDir(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "missing", "t.yaml"), time.Millisecond,
		logutil.NewTestLogger(t), func() {})
	require.Error(t, err)
}
