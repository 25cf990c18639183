// Package adapter owns the test state of one workspace: it loads the test tree, runs selections of
// it, and publishes everything that happens as lifecycle events.
package adapter

import (
	"context"
	"sync"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/runner"
	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/google/uuid"
)

// Discoverer finds the test suites of a workspace.
type Discoverer interface {
	Discover(ctx context.Context, workspaceRoot string) ([]*testmodel.Node, error)
}

// Status is a snapshot of an Adapter's state.
type Status struct {
	Loading bool   `json:"loading"`
	Running bool   `json:"running"`
	Loaded  bool   `json:"loaded"`
	Tests   int    `json:"tests"`
	RunID   string `json:"runId,omitempty"`
}

// Adapter serializes loads and runs for one workspace. A load or run requested while another one
// is in progress is dropped, not queued.
type Adapter struct {
	workspaceRoot string
	discoverer    Discoverer
	executor      runner.TestExecutor
	logger        framework.Logger

	tests      *Emitter[lifecycle.Event]
	testStates *Emitter[lifecycle.Event]
	autorun    *Emitter[struct{}]

	loading   bool
	running   bool
	runID     string
	cancelRun context.CancelFunc
	tree      *testmodel.Node
	disposed  bool
	done      chan struct{}
	lock      sync.Mutex
}

func New(
	workspaceRoot string,
	discoverer Discoverer,
	executor runner.TestExecutor,
	logger framework.Logger,
) *Adapter {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Adapter{
		workspaceRoot: workspaceRoot,
		discoverer:    discoverer,
		executor:      executor,
		logger:        logger,
		tests:         NewEmitter[lifecycle.Event](),
		testStates:    NewEmitter[lifecycle.Event](),
		autorun:       NewEmitter[struct{}](),
		done:          make(chan struct{}),
	}
}

// Tests publishes load started/finished events.
func (a *Adapter) Tests() *Emitter[lifecycle.Event] { return a.tests }

// TestStates publishes run started/finished events and the suite and test events in between.
func (a *Adapter) TestStates() *Emitter[lifecycle.Event] { return a.testStates }

// Autorun fires after the watcher has reloaded the tests because procedures changed.
func (a *Adapter) Autorun() *Emitter[struct{}] { return a.autorun }

func (a *Adapter) WorkspaceRoot() string { return a.workspaceRoot }

// Tree returns the last successfully loaded tree, or nil.
func (a *Adapter) Tree() *testmodel.Node {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.tree
}

func (a *Adapter) Status() Status {
	a.lock.Lock()
	defer a.lock.Unlock()
	return Status{
		Loading: a.loading,
		Running: a.running,
		Loaded:  a.tree != nil,
		Tests:   testmodel.CountTests(a.tree),
		RunID:   a.runID,
	}
}

// Load discovers the tests and publishes the new tree. If discovery fails, the previous tree
// stays in effect and the error is published in the finished event, and also returned. If a load
// is already in progress, Load does nothing and returns nil.
func (a *Adapter) Load(ctx context.Context) error {
	a.lock.Lock()
	if a.disposed || a.loading {
		a.lock.Unlock()
		return nil
	}
	a.loading = true
	a.lock.Unlock()
	defer func() {
		a.lock.Lock()
		a.loading = false
		a.lock.Unlock()
	}()

	a.tests.Fire(lifecycle.LoadStarted())
	suites, err := a.discoverer.Discover(ctx, a.workspaceRoot)
	if err != nil {
		a.logger.Printf("Failed to load tests: %s", err)
		a.tests.Fire(lifecycle.LoadFailed(err.Error()))
		return err
	}

	root := testmodel.NewRoot(suites)
	a.lock.Lock()
	a.tree = root
	a.lock.Unlock()

	a.logger.Printf("%s found", lifecycle.DescribeCount(testmodel.CountTests(root)))
	a.tests.Fire(lifecycle.LoadFinished(root))
	return nil
}

// Run runs the selected node IDs against the last loaded tree and returns true once the run has
// finished. If a run is already in progress, or the adapter has been disposed, Run does nothing and
// returns false. Otherwise it always ends by publishing a run finished event.
func (a *Adapter) Run(ctx context.Context, ids []string) bool {
	run, ok := a.BeginRun(ctx, ids)
	if !ok {
		return false
	}
	run()
	return true
}

// BeginRun claims the adapter for a run of ids without starting it. It returns false if another run
// holds the adapter or the adapter has been disposed. On success the caller must call the returned
// function exactly once, typically on another goroutine; until it returns, Status reports the run
// as in progress and further runs are rejected.
func (a *Adapter) BeginRun(ctx context.Context, ids []string) (func(), bool) {
	a.lock.Lock()
	if a.disposed {
		a.lock.Unlock()
		a.logger.Printf("Ignoring run request: the adapter has been disposed")
		return nil, false
	}
	if a.running {
		a.lock.Unlock()
		a.logger.Printf("Ignoring run request: a run is already in progress")
		return nil, false
	}
	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()
	a.running = true
	a.runID = runID
	a.cancelRun = cancel
	tree := a.tree
	a.lock.Unlock()

	return func() {
		defer func() {
			cancel()
			a.lock.Lock()
			a.running = false
			a.runID = ""
			a.cancelRun = nil
			a.lock.Unlock()
		}()
		a.execute(runCtx, runID, tree, ids)
	}, true
}

func (a *Adapter) execute(ctx context.Context, runID string, tree *testmodel.Node, ids []string) {
	a.testStates.Fire(lifecycle.RunStarted(runID, ids))
	if tree == nil {
		a.logger.Printf("Cannot run tests: no tests have been loaded")
	} else {
		r := runner.NewRunner(tree, a.executor, lifecycle.SinkFunc(a.testStates.Fire),
			framework.LoggerWithPrefix(a.logger, "[runner] "))
		if err := r.RunSelected(ctx, ids); err != nil {
			a.logger.Printf("Run %s ended early: %s", runID, err)
		}
	}
	a.testStates.Fire(lifecycle.RunFinished(runID))
}

// Cancel asks the run in progress, if any, to stop. The host call in flight is aborted and no
// further tests are started.
func (a *Adapter) Cancel() {
	a.lock.Lock()
	cancel := a.cancelRun
	a.lock.Unlock()
	if cancel != nil {
		a.logger.Printf("Cancelling run")
		cancel()
	}
}

// Dispose cancels any run in progress and releases the emitters. It is safe to call more than once.
func (a *Adapter) Dispose() {
	a.lock.Lock()
	if a.disposed {
		a.lock.Unlock()
		return
	}
	a.disposed = true
	close(a.done)
	a.lock.Unlock()

	a.Cancel()
	a.tests.Dispose()
	a.testStates.Dispose()
	a.autorun.Dispose()
}
