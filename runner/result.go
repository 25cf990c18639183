package runner

import (
	"fmt"

	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/framework/opt"
	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
)

// PassedMessage is the message of every passed test.
const PassedMessage = "Passed"

// remoteResult is the JSON document the remote entry point returns for one test.
type remoteResult struct {
	state    string
	location string
	message  string
	line     opt.Maybe[int]
}

func parseRemoteResult(output string) (remoteResult, error) {
	result := remoteResult{state: lifecycle.StateErrored}
	r := jreader.NewReader([]byte(output))
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "state":
			if s, nonNull := r.StringOrNull(); nonNull && s != "" {
				result.state = s
			}
		case "location":
			result.location, _ = r.StringOrNull()
		case "message":
			result.message, _ = r.StringOrNull()
		case "line":
			if n, nonNull := r.Float64OrNull(); nonNull {
				result.line = opt.Some(int(n))
			}
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return remoteResult{}, err
	}
	if err := r.RequireEOF(); err != nil {
		return remoteResult{}, err
	}
	return result, nil
}

// NewTestResult converts the output of the remote entry point into the terminal event of a test.
//
// A passed test gets the message "Passed". Any other state is copied to the event, with a message
// naming the source location and the remote message. If both the test and the result have a line,
// the result line is an offset from the test's declaration and the event gets a decoration there.
func NewTestResult(node *testmodel.Node, output string) (lifecycle.Event, error) {
	result, err := parseRemoteResult(output)
	if err != nil {
		return lifecycle.Event{}, fmt.Errorf("malformed test result %q: %w", output, err)
	}
	if result.state == lifecycle.StatePassed {
		return lifecycle.TestState(node.ID, lifecycle.StatePassed, PassedMessage), nil
	}
	event := lifecycle.TestState(node.ID, result.state,
		"Source:  "+result.location+"\n"+"Message: "+result.message)
	if node.Line.OrElse(0) != 0 && result.line.OrElse(0) != 0 {
		event.Decorations = []lifecycle.Decoration{{
			Line:    node.Line.Value() + result.line.Value(),
			Message: result.message,
		}}
	}
	return event, nil
}
