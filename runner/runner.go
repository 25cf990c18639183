// Package runner executes a selection of the test tree on a host, test by test, and reports each
// step as a lifecycle event.
package runner

import (
	"context"
	"fmt"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/testmodel"
)

// TestExecutor runs a single test and returns its terminal event.
type TestExecutor interface {
	Execute(ctx context.Context, node *testmodel.Node) lifecycle.Event
}

// Runner walks a loaded tree. It never modifies the tree.
type Runner struct {
	root     *testmodel.Node
	executor TestExecutor
	sink     lifecycle.Sink
	logger   framework.Logger
}

func NewRunner(root *testmodel.Node, executor TestExecutor, sink lifecycle.Sink, logger framework.Logger) *Runner {
	if sink == nil {
		sink = lifecycle.NullSink()
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Runner{root: root, executor: executor, sink: sink, logger: logger}
}

// RunSelected runs each selected node in the given order. IDs that are not in the tree are
// skipped. A suite reports running, runs its children one after another, then reports completed.
//
// Once ctx is done no further node is started, but a suite that has reported running still
// reports completed. The context's error is then returned.
func (r *Runner) RunSelected(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		node := testmodel.Find(r.root, id)
		if node == nil {
			r.logger.Printf("Skipping %q: not in the loaded tree", id)
			continue
		}
		if err := r.runNode(ctx, node); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (r *Runner) runNode(ctx context.Context, node *testmodel.Node) error {
	switch node.Kind {
	case testmodel.KindSuite:
		r.sink.Handle(lifecycle.SuiteState(node.ID, lifecycle.StateRunning))
		var err error
		for _, child := range node.Children {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = r.runNode(ctx, child); err != nil {
				break
			}
		}
		r.sink.Handle(lifecycle.SuiteState(node.ID, lifecycle.StateCompleted))
		return err
	case testmodel.KindTest:
		r.sink.Handle(lifecycle.TestState(node.ID, lifecycle.StateRunning, ""))
		r.sink.Handle(r.executor.Execute(ctx, node))
		return nil
	default:
		return fmt.Errorf("node %s has unknown kind %s", node.ID, node.Kind)
	}
}
