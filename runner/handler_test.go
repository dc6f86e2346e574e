//nolint:testpackage
package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestStop = errors.New("test: stop")

type recordingHandler struct {
	events []Action
	errs   []string
	fail   error
}

func (h *recordingHandler) Event(_ context.Context, event Event, _ *Result) error {
	h.events = append(h.events, event.Action)

	return h.fail
}

func (h *recordingHandler) Err(text string) error {
	h.errs = append(h.errs, text)

	return h.fail
}

func TestMultiHandler_StopsOnError(t *testing.T) {
	t.Parallel()

	first := &recordingHandler{fail: errTestStop}
	second := &recordingHandler{}

	m := NewMultiHandler(first, second)

	err := m.Event(context.Background(), Event{Action: ActionRun}, NewResult())
	require.ErrorIs(t, err, errTestStop)
	require.ErrorIs(t, m.Err("boom"), errTestStop)

	assert.Equal(t, []Action{ActionRun}, first.events)
	assert.Empty(t, second.events)
	assert.Empty(t, second.errs)
}

func TestResultHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := NewResultHandler()
	result := NewResult()

	events := []Event{
		{Action: ActionRun, File: "q.cypher", Name: "names", Line: 1, Query: "MATCH (n) RETURN n.name"},
		{Action: ActionRow, File: "q.cypher", Name: "names", Row: nameRow("marko", 29)},
		{Action: ActionRow, File: "q.cypher", Name: "names", Row: nameRow("josh", 32)},
		{Action: ActionPass, File: "q.cypher", Name: "names"},
		{Action: ActionRun, File: "q.cypher", Name: "broken"},
		{Action: ActionError, File: "q.cypher", Name: "broken", Error: errTestStop},
	}

	for _, ev := range events {
		require.NoError(t, h.Event(ctx, ev, result))
	}

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Errors)
	assert.False(t, result.Ok())
	assert.Equal(t, []string{"q.cypher::names", "q.cypher::broken"}, result.Order)

	sr, ok := result.Get("q.cypher::names")
	require.True(t, ok)
	assert.Equal(t, ActionPass, sr.Status)
	assert.Equal(t, "MATCH (n) RETURN n.name", sr.Query)
	assert.Len(t, sr.Rows, 2)
	assert.Equal(t, "q.cypher:1", sr.Location())

	failed := result.FailedScripts()
	require.Len(t, failed, 1)
	assert.Equal(t, "broken", failed[0].Name)
	require.ErrorIs(t, failed[0].Error, errTestStop)
}

func TestStopOnFailHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		maxFails int
		failed   int
		action   Action
		wantErr  bool
	}{
		{"disabled", 0, 5, ActionFail, false},
		{"below limit", 2, 1, ActionFail, false},
		{"at limit", 2, 2, ActionFail, true},
		{"errors count", 1, 1, ActionError, true},
		{"pass ignored", 1, 1, ActionPass, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := NewResult()
			result.Failed = tt.failed

			err := NewStopOnFailHandler(tt.maxFails).Event(context.Background(), Event{Action: tt.action}, result)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMaxFailures)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
