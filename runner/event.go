// Package runner executes Cypher scripts against a backend and checks the
// expectations written alongside them.
package runner

import (
	"time"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

// Action represents the type of script event.
type Action string

// Action constants for script events.
const (
	ActionRun   Action = "run"
	ActionRow   Action = "row"
	ActionPass  Action = "pass"
	ActionFail  Action = "fail"
	ActionSkip  Action = "skip"
	ActionError Action = "error"
)

// IsTerminal returns true if this action ends a script.
func (a Action) IsTerminal() bool {
	return a == ActionPass || a == ActionFail || a == ActionSkip || a == ActionError
}

// Event is emitted while a script runs.
type Event struct {
	Time    time.Time     // When the event occurred
	Action  Action        // What happened
	File    string        // Source file, empty for inline scripts
	Name    string        // Script name
	Line    int           // 1-based line of the statement in File
	Query   string        // Cypher text (ActionRun)
	Elapsed time.Duration // Time taken (terminal events)
	Error   error         // Error details (ActionFail, ActionError)

	// Row is the row received (ActionRow).
	Row cyphergremlin.Row

	// Expect is the expectation that failed, with its outcome (ActionFail).
	Expect string
	Actual any
}

// ID returns a unique identifier: "file::name".
func (e Event) ID() string {
	if e.File == "" {
		return e.Name
	}

	return e.File + "::" + e.Name
}
