package lifecycle

import (
	"strings"
	"sync"
)

// TestResult is the terminal outcome of one test.
type TestResult struct {
	ID      string
	State   string
	Message string
}

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// ResultsCollector is a Sink that accumulates the terminal test events of a run.
type ResultsCollector struct {
	results Results
	lock    sync.Mutex
}

func (c *ResultsCollector) Handle(e Event) {
	if !e.IsTerminal() {
		return
	}
	result := TestResult{ID: e.ID, State: e.State, Message: e.Message}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.results.Tests = append(c.results.Tests, result)
	if e.IsFailure() {
		c.results.Failures = append(c.results.Failures, result)
	}
}

func (c *ResultsCollector) Results() Results {
	c.lock.Lock()
	defer c.lock.Unlock()
	return Results{
		Tests:    append([]TestResult(nil), c.results.Tests...),
		Failures: append([]TestResult(nil), c.results.Failures...),
	}
}

// SuiteOfTest returns the suite part of a qualified test ID, or "" if the ID is not qualified.
func SuiteOfTest(id string) string {
	if i := strings.LastIndex(id, "^"); i >= 0 {
		return id[i+1:]
	}
	return ""
}

// describeTest returns "suite/test" for a qualified test ID, matching the label paths used by
// filters, or the ID unchanged if it is not qualified.
func describeTest(id string) string {
	if i := strings.LastIndex(id, "^"); i >= 0 {
		return id[i+1:] + "/" + id[:i]
	}
	return id
}
