package lifecycle

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/fatih/color"
)

var consoleTestErrorColor = color.New(color.FgYellow) //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)   //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)  //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)    //nolint:gochecknoglobals

// ConsoleSink prints a human-readable progress report.
type ConsoleSink struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleSink) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleSink) Handle(e Event) {
	w := c.out()
	switch e.Kind {
	case KindStarted:
		if e.Scope == ScopeLoad {
			_, _ = fmt.Fprintln(w, "Loading tests...")
		}
	case KindFinished:
		switch {
		case e.Scope == ScopeLoad && e.ErrorMessage != "":
			_, _ = consoleTestFailedColor.Fprintf(w, "Failed to load tests: %s\n", e.ErrorMessage)
		case e.Scope == ScopeLoad && e.Suite != nil:
			_, _ = fmt.Fprintf(w, "Loaded %s\n", DescribeCount(testmodel.CountTests(e.Suite)))
		}
	case KindSuite:
		if e.State == StateRunning && e.ID != testmodel.RootID {
			_, _ = fmt.Fprintf(w, "[%s]\n", e.ID)
		}
	case KindTest:
		if !e.IsTerminal() {
			return
		}
		failed := e.IsFailure()
		if failed {
			_, _ = consoleTestFailedColor.Fprintf(w, "  %s: %s\n", strings.ToUpper(e.State), describeTest(e.ID))
			for _, line := range strings.Split(e.Message, "\n") {
				_, _ = consoleTestErrorColor.Fprintf(w, "    %s\n", line)
			}
		} else {
			_, _ = fmt.Fprintf(w, "  ok: %s\n", describeTest(e.ID))
		}
		if len(e.Output) > 0 &&
			((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
			_, _ = consoleDebugOutputColor.Fprintln(w, e.Output.ToString("    DEBUG "))
		}
	}
}

// PrintResults writes a summary of a run.
func PrintResults(w io.Writer, results Results) {
	if results.OK() {
		_, _ = allTestsPassedColor.Fprintf(w, "All tests passed (%s)\n", DescribeCount(len(results.Tests)))
		return
	}
	_, _ = consoleTestFailedColor.Fprintf(w, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleTestFailedColor.Fprintf(w, "  * %s (%s)\n", describeTest(f.ID), f.State)
	}
}

// DescribeCount returns "1 test" or "N tests".
func DescribeCount(n int) string {
	if n == 1 {
		return "1 test"
	}
	return fmt.Sprintf("%d tests", n)
}
