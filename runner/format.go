package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

// Formatter renders script events and results.
type Formatter interface {
	Format(event Event, result *Result) error
	Summary(result *Result) error
}

// FormatHandler is a Handler that delegates to a Formatter.
type FormatHandler struct {
	formatter Formatter
	stderr    io.Writer
}

// NewFormatHandler creates a handler that formats events.
func NewFormatHandler(f Formatter, stderr io.Writer) *FormatHandler {
	return &FormatHandler{formatter: f, stderr: stderr}
}

// Event formats the event.
func (h *FormatHandler) Event(_ context.Context, event Event, result *Result) error {
	return h.formatter.Format(event, result)
}

// Err writes to stderr.
func (h *FormatHandler) Err(text string) error {
	_, err := h.stderr.Write([]byte(text + "\n"))

	return err
}

// Summary renders the final summary.
func (h *FormatHandler) Summary(result *Result) error {
	return h.formatter.Summary(result)
}

func location(file string, line int, name string) string {
	if file == "" {
		return name
	}

	if line > 0 {
		return file + ":" + strconv.Itoa(line)
	}

	return file
}

func label(e Event) string {
	if e.File == "" {
		return e.Name
	}

	return location(e.File, e.Line, "") + " " + e.Name
}

func statusWord(result *Result) string {
	if result.Ok() {
		return "PASS"
	}

	return "FAIL"
}

// -----------------------------------------------------------------------------
// Dots Formatter
// -----------------------------------------------------------------------------

// DotsFormatter is a minimal formatter that prints dots for progress.
type DotsFormatter struct {
	w     io.Writer
	count int
}

// NewDotsFormatter creates a dots formatter.
func NewDotsFormatter(w io.Writer) *DotsFormatter {
	return &DotsFormatter{w: w}
}

const lineWidth = 80

// Format prints a single character per terminal event.
func (d *DotsFormatter) Format(event Event, _ *Result) error {
	var char string

	switch event.Action {
	case ActionPass:
		char = "."
	case ActionFail:
		char = "F"
	case ActionSkip:
		char = "S"
	case ActionError:
		char = "E"
	case ActionRun, ActionRow:
		return nil
	}

	_, err := fmt.Fprint(d.w, char)
	d.count++

	if d.count%lineWidth == 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	return err
}

// Summary prints failures and the final counts.
func (d *DotsFormatter) Summary(result *Result) error {
	if d.count > 0 && d.count%lineWidth != 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	_, _ = fmt.Fprintln(d.w)

	for _, sr := range result.FailedScripts() {
		switch sr.Status {
		case ActionFail:
			_, _ = fmt.Fprintf(d.w, "FAIL %s %s\n", sr.Location(), sr.Name)
			_, _ = fmt.Fprintf(d.w, "  expect: %s\n", sr.Expect)
			_, _ = fmt.Fprintf(d.w, "  rows:   %v\n", sr.Actual)
		case ActionError:
			_, _ = fmt.Fprintf(d.w, "ERROR %s %s: %v\n", sr.Location(), sr.Name, sr.Error)
		case ActionPass, ActionSkip, ActionRun, ActionRow:
			// Not failures
		}

		_, _ = fmt.Fprintln(d.w)
	}

	_, _ = fmt.Fprintf(d.w, "%s %d scripts, %d passed, %d failed, %d errors, %d skipped in %s\n",
		statusWord(result),
		result.Total,
		result.Passed,
		result.Failed,
		result.Errors,
		result.Skipped,
		result.Elapsed().Round(time.Millisecond),
	)

	return nil
}

// -----------------------------------------------------------------------------
// Verbose Formatter
// -----------------------------------------------------------------------------

// VerboseFormatter prints every event, rows included.
type VerboseFormatter struct {
	w io.Writer
}

// NewVerboseFormatter creates a verbose formatter.
func NewVerboseFormatter(w io.Writer) *VerboseFormatter {
	return &VerboseFormatter{w: w}
}

// Format prints each event as it occurs.
func (v *VerboseFormatter) Format(event Event, _ *Result) error {
	name := label(event)

	switch event.Action {
	case ActionRun:
		_, _ = fmt.Fprintf(v.w, "=== RUN   %s\n", name)
	case ActionRow:
		_, _ = fmt.Fprintf(v.w, "    %s\n", event.Row)
	case ActionPass:
		_, _ = fmt.Fprintf(v.w, "--- PASS: %s (%s)\n", name, event.Elapsed)
	case ActionFail:
		_, _ = fmt.Fprintf(v.w, "--- FAIL: %s (%s)\n", name, event.Elapsed)
		_, _ = fmt.Fprintf(v.w, "    expect: %s\n", event.Expect)
		_, _ = fmt.Fprintf(v.w, "    rows:   %v\n", event.Actual)
	case ActionSkip:
		_, _ = fmt.Fprintf(v.w, "--- SKIP: %s (%s)\n", name, event.Elapsed)

		if event.Error != nil {
			_, _ = fmt.Fprintf(v.w, "    %v\n", event.Error)
		}
	case ActionError:
		_, _ = fmt.Fprintf(v.w, "--- ERROR: %s (%s)\n", name, event.Elapsed)
		_, _ = fmt.Fprintf(v.w, "    %v\n", event.Error)
	}

	return nil
}

// Summary prints the final results.
func (v *VerboseFormatter) Summary(result *Result) error {
	_, _ = fmt.Fprintln(v.w)
	_, _ = fmt.Fprintf(v.w, "%s\n", statusWord(result))
	_, _ = fmt.Fprintf(v.w, "  %d total, %d passed, %d failed, %d skipped, %d errors\n",
		result.Total,
		result.Passed,
		result.Failed,
		result.Skipped,
		result.Errors,
	)
	_, _ = fmt.Fprintf(v.w, "  elapsed: %s\n", result.Elapsed().Round(time.Millisecond))

	return nil
}

// -----------------------------------------------------------------------------
// JSON Formatter
// -----------------------------------------------------------------------------

// JSONFormatter outputs newline-delimited JSON events.
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{enc: json.NewEncoder(w)}
}

type jsonEvent struct {
	Time    string            `json:"time"`
	Action  string            `json:"action"`
	File    string            `json:"file,omitempty"`
	Line    int               `json:"line,omitempty"`
	Script  string            `json:"script"`
	Query   string            `json:"query,omitempty"`
	Elapsed float64           `json:"elapsed,omitempty"`
	Row     map[string]string `json:"row,omitempty"`
	Error   string            `json:"error,omitempty"`
	Expect  string            `json:"expect,omitempty"`
	Actual  any               `json:"actual,omitempty"`
}

// Format outputs a JSON event.
func (j *JSONFormatter) Format(event Event, _ *Result) error {
	je := jsonEvent{
		Time:   event.Time.Format(time.RFC3339Nano),
		Action: string(event.Action),
		File:   event.File,
		Line:   event.Line,
		Script: event.Name,
		Query:  event.Query,
	}

	if event.Action.IsTerminal() {
		je.Elapsed = event.Elapsed.Seconds()
	}

	if event.Action == ActionRow {
		je.Row = make(map[string]string, event.Row.Len())
		for i, k := range event.Row.Keys() {
			je.Row[k] = cyphergremlin.FormatValue(event.Row.Index(i))
		}
	}

	if event.Error != nil {
		je.Error = event.Error.Error()
	}

	if event.Action == ActionFail {
		je.Expect = event.Expect
		je.Actual = event.Actual
	}

	return j.enc.Encode(je)
}

type jsonSummary struct {
	Action  string  `json:"action"`
	Total   int     `json:"total"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Skipped int     `json:"skipped"`
	Errors  int     `json:"errors"`
	Elapsed float64 `json:"elapsed"`
	Ok      bool    `json:"ok"`
}

// Summary outputs the final JSON summary.
func (j *JSONFormatter) Summary(result *Result) error {
	return j.enc.Encode(jsonSummary{
		Action:  "summary",
		Total:   result.Total,
		Passed:  result.Passed,
		Failed:  result.Failed,
		Skipped: result.Skipped,
		Errors:  result.Errors,
		Elapsed: result.Elapsed().Seconds(),
		Ok:      result.Ok(),
	})
}

// Formatter names accepted by NewFormatter.
const (
	FormatTable   = "table"
	FormatDots    = "dots"
	FormatVerbose = "verbose"
	FormatJSON    = "json"
)

// NewFormatter creates a formatter by name. Unknown names get the table formatter.
func NewFormatter(name string, w io.Writer) Formatter { //nolint:ireturn
	switch name {
	case FormatDots:
		return NewDotsFormatter(w)
	case FormatVerbose:
		return NewVerboseFormatter(w)
	case FormatJSON:
		return NewJSONFormatter(w)
	default:
		return NewTableFormatter(w)
	}
}
