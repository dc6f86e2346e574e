package runner

import (
	"sync"
	"time"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

// Result accumulates script results during execution.
type Result struct {
	mu sync.RWMutex

	StartTime time.Time
	EndTime   time.Time

	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int

	// Scripts indexed by event ID: "queries/modern.cypher::all names"
	Scripts map[string]*ScriptResult

	// Order preserves insertion order for display
	Order []string
}

// NewResult creates an initialized Result.
func NewResult() *Result {
	return &Result{
		StartTime: time.Now(),
		Scripts:   make(map[string]*ScriptResult),
	}
}

// Start registers a script when its run event arrives.
func (r *Result) Start(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := event.ID()
	if _, ok := r.Scripts[id]; ok {
		return
	}

	r.Scripts[id] = &ScriptResult{File: event.File, Name: event.Name, Line: event.Line, Query: event.Query}
	r.Order = append(r.Order, id)
}

// AddRow appends a received row to its script.
func (r *Result) AddRow(event Event) {
	if event.Action != ActionRow {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sr, ok := r.Scripts[event.ID()]; ok {
		sr.Rows = append(sr.Rows, event.Row)
	}
}

// Add records a terminal event in the result.
func (r *Result) Add(event Event) {
	if !event.Action.IsTerminal() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := event.ID()

	sr, ok := r.Scripts[id]
	if !ok {
		sr = &ScriptResult{File: event.File, Name: event.Name, Line: event.Line}
		r.Scripts[id] = sr
		r.Order = append(r.Order, id)
	}

	sr.Status = event.Action
	sr.Elapsed = event.Elapsed
	sr.Error = event.Error

	if event.Action == ActionFail {
		sr.Expect = event.Expect
		sr.Actual = event.Actual
	}

	r.Total++

	switch event.Action {
	case ActionPass:
		r.Passed++
	case ActionFail:
		r.Failed++
	case ActionSkip:
		r.Skipped++
	case ActionError:
		r.Errors++
	case ActionRun, ActionRow:
		// Not terminal actions
	}
}

// Finish marks the result as complete.
func (r *Result) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
}

// Elapsed returns the total execution time.
func (r *Result) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

// Ok returns true if no script failed or errored.
func (r *Result) Ok() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Failed == 0 && r.Errors == 0
}

// Get returns the result of the script with the given event ID.
func (r *Result) Get(id string) (*ScriptResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sr, ok := r.Scripts[id]

	return sr, ok
}

// FailedScripts returns all failed and errored script results, in run order.
func (r *Result) FailedScripts() []*ScriptResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var failed []*ScriptResult

	for _, id := range r.Order {
		sr := r.Scripts[id]
		if sr.Status == ActionFail || sr.Status == ActionError {
			failed = append(failed, sr)
		}
	}

	return failed
}

// ScriptResult holds the outcome of a single script.
type ScriptResult struct {
	File    string
	Name    string
	Line    int
	Query   string
	Status  Action
	Elapsed time.Duration
	Error   error
	Rows    []cyphergremlin.Row

	// Expectation failure details
	Expect string
	Actual any
}

// Location returns "file:line", or the script name for inline scripts.
func (sr *ScriptResult) Location() string {
	return location(sr.File, sr.Line, sr.Name)
}
