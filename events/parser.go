package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// Reporter lifecycle actions carried on the wire, one JSON object per line,
// emitted by the runner shim in callback order
const (
	ActionRunBegin  = "runBegin"
	ActionTestBegin = "testBegin"
	ActionTestEnd   = "testEnd"
	ActionRunEnd    = "runEnd"
)

// maxEventBytes bounds a single event line; step trees can get large
const maxEventBytes = 10 * 1024 * 1024

// Event represents a single line of the JSONL event stream
type Event struct {
	Time   time.Time          `json:"time"`
	Action string             `json:"action"`
	Total  int                `json:"total,omitempty"`  // runBegin: announced test count
	Status string             `json:"status,omitempty"` // runEnd: run-level aggregate, informational
	Test   *types.TestCase    `json:"test,omitempty"`
	Result *types.TestOutcome `json:"result,omitempty"`
}

// Handler consumes decoded events in stream order
type Handler interface {
	OnRunBegin(at time.Time, total int)
	OnTestStart(at time.Time, test *types.TestCase)
	OnTestEnd(test *types.TestCase, result *types.TestOutcome)
	OnRunEnd(at time.Time)
}

// Parse reads a JSONL event stream and replays it through the handler.
// Blank lines, malformed lines, unknown actions, and events missing their
// payload are skipped rather than failing the stream. The returned error is
// a read error, never a decode error.
func Parse(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		dispatch(ev, h)
	}
	return scanner.Err()
}

func dispatch(ev Event, h Handler) {
	switch ev.Action {
	case ActionRunBegin:
		h.OnRunBegin(ev.Time, ev.Total)
	case ActionTestBegin:
		if ev.Test != nil {
			h.OnTestStart(ev.Time, ev.Test)
		}
	case ActionTestEnd:
		if ev.Test != nil && ev.Result != nil {
			h.OnTestEnd(ev.Test, ev.Result)
		}
	case ActionRunEnd:
		h.OnRunEnd(ev.Time)
	}
}
