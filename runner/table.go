package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	skipStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB86C"))
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

// RenderTable writes rows as a bordered table. Colors and rounded borders are
// used only when w is a terminal.
func RenderTable(w io.Writer, columns []string, rows []cyphergremlin.Row) error {
	_, err := fmt.Fprintln(w, renderTable(columns, rows, isTerminal(w)))

	return err
}

func renderTable(columns []string, rows []cyphergremlin.Row, color bool) string {
	if len(columns) == 0 && len(rows) > 0 {
		columns = rows[0].Keys()
	}

	if len(columns) == 0 {
		return "(no columns)"
	}

	t := table.New().Headers(columns...)

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row.Get(col); ok {
				cells[i] = cyphergremlin.FormatValue(v)
			}
		}

		t = t.Row(cells...)
	}

	if !color {
		return t.Border(lipgloss.NormalBorder()).String()
	}

	return t.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		String()
}

// TableFormatter prints each script's rows as a table once it finishes.
type TableFormatter struct {
	w     io.Writer
	color bool
	rows  map[string][]cyphergremlin.Row
}

// NewTableFormatter creates a table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{w: w, color: isTerminal(w), rows: make(map[string][]cyphergremlin.Row)}
}

func (f *TableFormatter) status(a Action) string {
	word := map[Action]string{
		ActionPass:  "PASS",
		ActionFail:  "FAIL",
		ActionSkip:  "SKIP",
		ActionError: "ERROR",
	}[a]

	if !f.color {
		return word
	}

	switch a {
	case ActionPass:
		return passStyle.Render(word)
	case ActionSkip:
		return skipStyle.Render(word)
	case ActionFail, ActionError:
		return failStyle.Render(word)
	case ActionRun, ActionRow:
	}

	return word
}

// Format buffers rows and renders them when the script ends.
func (f *TableFormatter) Format(event Event, _ *Result) error {
	id := event.ID()

	switch event.Action {
	case ActionRun:
		f.rows[id] = nil

		return nil
	case ActionRow:
		f.rows[id] = append(f.rows[id], event.Row)

		return nil
	case ActionPass, ActionFail, ActionSkip, ActionError:
	}

	rows := f.rows[id]
	delete(f.rows, id)

	_, _ = fmt.Fprintf(f.w, "%s %s (%s)\n", f.status(event.Action), label(event), event.Elapsed.Round(time.Millisecond))

	switch event.Action {
	case ActionFail:
		_, _ = fmt.Fprintf(f.w, "  expect: %s\n", event.Expect)
	case ActionError:
		_, _ = fmt.Fprintf(f.w, "  %v\n", event.Error)
	case ActionSkip:
		if event.Error != nil {
			_, _ = fmt.Fprintf(f.w, "  %v\n", event.Error)
		}
	case ActionPass, ActionRun, ActionRow:
	}

	if len(rows) > 0 {
		_, _ = fmt.Fprintln(f.w, renderTable(nil, rows, f.color))
	}

	return nil
}

// Summary prints the final counts.
func (f *TableFormatter) Summary(result *Result) error {
	word := statusWord(result)
	if f.color {
		if result.Ok() {
			word = passStyle.Render(word)
		} else {
			word = failStyle.Render(word)
		}
	}

	_, err := fmt.Fprintf(f.w, "\n%s %d scripts, %d passed, %d failed, %d errors, %d skipped in %s\n",
		word,
		result.Total,
		result.Passed,
		result.Failed,
		result.Errors,
		result.Skipped,
		result.Elapsed().Round(time.Millisecond),
	)

	return err
}
