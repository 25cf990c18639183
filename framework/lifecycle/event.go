package lifecycle

import (
	"fmt"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Kind says which variant of Event this is.
type Kind int

const (
	KindStarted Kind = iota + 1
	KindFinished
	KindSuite
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindFinished:
		return "finished"
	case KindSuite:
		return "suite"
	case KindTest:
		return "test"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Scope tells whether a started/finished event belongs to a load or to a run.
type Scope string

const (
	ScopeLoad Scope = "load"
	ScopeRun  Scope = "run"
)

// Node states. A test's terminal state is whatever the host reported, so it is not limited to
// these values.
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StatePassed    = "passed"
	StateFailed    = "failed"
	StateErrored   = "errored"
)

// Decoration attaches a message to a line of the test's source file.
type Decoration struct {
	Line    int
	Message string
}

// Event is one message in the lifecycle stream.
//
// Started and Finished events use Scope. A load Finished event carries either Suite (the loaded
// tree) or ErrorMessage. A run Started event carries the requested Tests. Suite and Test events
// use ID and State; terminal test events also carry Message, Decorations and the Output captured
// while the test ran.
type Event struct {
	Kind         Kind
	Scope        Scope
	ID           string
	State        string
	Message      string
	Decorations  []Decoration
	Suite        *testmodel.Node
	ErrorMessage string
	Tests        []string
	RunID        string
	Output       framework.CapturedOutput
}

func LoadStarted() Event {
	return Event{Kind: KindStarted, Scope: ScopeLoad}
}

func LoadFinished(root *testmodel.Node) Event {
	return Event{Kind: KindFinished, Scope: ScopeLoad, Suite: root}
}

func LoadFailed(errorMessage string) Event {
	return Event{Kind: KindFinished, Scope: ScopeLoad, ErrorMessage: errorMessage}
}

func RunStarted(runID string, tests []string) Event {
	return Event{Kind: KindStarted, Scope: ScopeRun, RunID: runID, Tests: tests}
}

func RunFinished(runID string) Event {
	return Event{Kind: KindFinished, Scope: ScopeRun, RunID: runID}
}

func SuiteState(id, state string) Event {
	return Event{Kind: KindSuite, ID: id, State: state}
}

func TestState(id, state, message string) Event {
	return Event{Kind: KindTest, ID: id, State: state, Message: message}
}

// IsTerminal is true for a test event that ends the test.
func (e Event) IsTerminal() bool {
	return e.Kind == KindTest && e.State != StateRunning
}

// IsFailure is true for a terminal test event whose state is anything other than passed.
func (e Event) IsFailure() bool {
	return e.IsTerminal() && e.State != StatePassed
}

func (e Event) String() string {
	switch e.Kind {
	case KindStarted, KindFinished:
		if e.ErrorMessage != "" {
			return fmt.Sprintf("%s %s (%s)", e.Scope, e.Kind, e.ErrorMessage)
		}
		return fmt.Sprintf("%s %s", e.Scope, e.Kind)
	case KindSuite, KindTest:
		return fmt.Sprintf("%s %s %s", e.Kind, e.ID, e.State)
	default:
		return e.Kind.String()
	}
}

// WriteToJSONWriter encodes the event in the shape test explorer consumers expect: the node ID is
// written under "suite" or "test", and the loaded tree under "suite" for a load Finished event.
func (e Event) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("type").String(e.Kind.String())
	switch e.Kind {
	case KindStarted, KindFinished:
		obj.Name("scope").String(string(e.Scope))
		obj.Maybe("runId", e.RunID != "").String(e.RunID)
		if e.Kind == KindStarted && e.Scope == ScopeRun {
			tests := obj.Name("tests").Array()
			for _, id := range e.Tests {
				tests.String(id)
			}
			tests.End()
		}
		if e.Suite != nil {
			e.Suite.WriteToJSONWriter(obj.Name("suite"))
		}
		obj.Maybe("errorMessage", e.ErrorMessage != "").String(e.ErrorMessage)
	case KindSuite:
		obj.Name("suite").String(e.ID)
		obj.Name("state").String(e.State)
	case KindTest:
		obj.Name("test").String(e.ID)
		obj.Name("state").String(e.State)
		obj.Maybe("message", e.Message != "").String(e.Message)
		if len(e.Decorations) != 0 {
			decorations := obj.Name("decorations").Array()
			for _, d := range e.Decorations {
				dobj := decorations.Object()
				dobj.Name("line").Int(d.Line)
				dobj.Name("message").String(d.Message)
				dobj.End()
			}
			decorations.End()
		}
	}
	obj.End()
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	return jwriter.MarshalJSONWithWriter(e)
}
