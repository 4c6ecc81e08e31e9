package commands

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sysabi/internal/cli/output"
	"github.com/leapstack-labs/sysabi/pkg/abi"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List syscalls with their numbers",
		Long: `List every syscall of the table with its number and whether the
kernel writes a return value.

Output adapts to environment:
  - Terminal: table with colors
  - Piped/Scripted: markdown table
  - JSON: the manifest written by the manifest backend`,
		Example: `  # List the configured table
  sysabi list

  # List the built-in ABI as JSON
  sysabi list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)

			t, err := cmdCtx.LoadTable()
			if err != nil {
				return err
			}
			if err := abi.Validate(t); err != nil {
				return err
			}

			r := cmdCtx.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(t.Manifest())
			case output.ModeText:
				listText(t, r)
			default:
				listMarkdown(t, r)
			}
			return nil
		},
	}
	return cmd
}

var listColumns = []string{"number", "name", "returns"}

func returnsLabel(e abi.Entry) string {
	if e.HasReturnValue {
		return "value"
	}
	return "void"
}

func listText(t *abi.Table, r *output.Renderer) {
	s := r.Styles()
	title := cases.Title(language.English)

	tw := table.NewWriter()
	tw.SetOutputMirror(r.Writer())
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(listColumns))
	for i, col := range listColumns {
		header[i] = title.String(col)
	}
	tw.AppendHeader(header)

	for i, e := range t.Entries() {
		returns := returnsLabel(e)
		if !e.HasReturnValue {
			returns = s.Muted.Render(returns)
		}
		tw.AppendRow(table.Row{i, e.Name, returns})
	}

	r.Println(s.Header1.Render(fmt.Sprintf("Syscalls (%d total)", t.Len())))
	tw.Render()
	r.Println(s.Muted.Render("fingerprint " + t.Fingerprint()))
}

func listMarkdown(t *abi.Table, r *output.Renderer) {
	title := cases.Title(language.English)
	r.Println(output.FormatHeader(1, fmt.Sprintf("Syscalls (%d total)", t.Len())))
	r.Println("")

	header := make([]string, len(listColumns))
	rule := make([]string, len(listColumns))
	for i, col := range listColumns {
		header[i] = title.String(col)
		rule[i] = "---"
	}
	r.Println(output.FormatTableRow(header...))
	r.Println(output.FormatTableRow(rule...))
	for i, e := range t.Entries() {
		r.Println(output.FormatTableRow(strconv.Itoa(i), e.Name, returnsLabel(e)))
	}
	r.Println("")
	r.Println(output.FormatKeyValue("Fingerprint", t.Fingerprint()))
}
