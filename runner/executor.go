package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/pslkit/psl-test-adapter/environment"
	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/framework/remote"
	"github.com/pslkit/psl-test-adapter/testmodel"
)

const (
	// RemoteEntryPoint is the procedure every test is dispatched through. Its argument is the
	// qualified test ID.
	RemoteEntryPoint = "^ZTestRPC"

	// NoEnvironmentMessage is the message of a test whose file has no environment to run in.
	NoEnvironmentMessage = "No environment selected"
)

type EnvironmentResolver interface {
	ResolveEnvironments(ctx context.Context, path string) ([]environment.Config, error)
}

type Connector interface {
	Connect(ctx context.Context, env environment.Config) (remote.Connection, error)
}

// DocumentSaver makes the file on disk match what the user is editing.
type DocumentSaver interface {
	Save(ctx context.Context, path string) error
}

// Executor runs one test on a host and reports its outcome.
type Executor struct {
	environments EnvironmentResolver
	connector    Connector
	documents    DocumentSaver
	logger       framework.Logger
}

func NewExecutor(
	environments EnvironmentResolver,
	connector Connector,
	documents DocumentSaver,
	logger framework.Logger,
) *Executor {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Executor{
		environments: environments,
		connector:    connector,
		documents:    documents,
		logger:       logger,
	}
}

// Execute runs a test and returns its terminal event. Every failure, including transport errors
// and malformed results, becomes an errored event; the event's Output holds what was logged for
// the test.
func (e *Executor) Execute(ctx context.Context, node *testmodel.Node) lifecycle.Event {
	output := framework.NewCapturingLogger(e.logger)
	event := e.execute(ctx, node, output)
	event.Output = output.Output()
	return event
}

func (e *Executor) execute(ctx context.Context, node *testmodel.Node, logger framework.Logger) lifecycle.Event {
	envs, err := e.environments.ResolveEnvironments(ctx, node.File)
	if err != nil {
		logger.Printf("Cannot resolve environment for %s: %s", node.File, err)
	}
	if err != nil || len(envs) == 0 {
		return lifecycle.TestState(node.ID, lifecycle.StateErrored, NoEnvironmentMessage)
	}

	output, err := e.runRemote(ctx, node, envs[0], logger)
	if err != nil {
		logger.Printf("Test %s failed to run: %s", node.ID, err)
		return lifecycle.TestState(node.ID, lifecycle.StateErrored, err.Error())
	}

	event, err := NewTestResult(node, output)
	if err != nil {
		logger.Printf("%s", err)
		return lifecycle.TestState(node.ID, lifecycle.StateErrored, err.Error())
	}
	return event
}

func (e *Executor) runRemote(
	ctx context.Context,
	node *testmodel.Node,
	env environment.Config,
	logger framework.Logger,
) (string, error) {
	conn, err := e.connector.Connect(ctx, env)
	if err != nil {
		return "", fmt.Errorf("cannot connect to %s: %w", env.Name, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Printf("Closing connection to %s failed: %s", env.Name, err)
		}
	}()

	if err := e.documents.Save(ctx, node.File); err != nil {
		return "", err
	}
	output, err := conn.RunCustom(ctx, node.File, RemoteEntryPoint, node.ID)
	if err != nil {
		return "", fmt.Errorf("%s(%s) failed: %w", RemoteEntryPoint, node.ID, err)
	}
	logger.Println(strings.TrimSpace(output))
	return output, nil
}
