package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"time"

	"github.com/pslkit/psl-test-adapter/adapter"
	"github.com/pslkit/psl-test-adapter/discovery"
	"github.com/pslkit/psl-test-adapter/environment"
	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/framework/remote"
	"github.com/pslkit/psl-test-adapter/resultstore"
	"github.com/pslkit/psl-test-adapter/runner"
	"github.com/pslkit/psl-test-adapter/server"
	"github.com/pslkit/psl-test-adapter/testmodel"
	"github.com/pslkit/psl-test-adapter/workspace"
)

const (
	versionString        = "0.4.0"
	defaultStatusTimeout = time.Second * 10
	shutdownTimeout      = time.Second * 5
)

func main() {
	fmt.Printf("psl-test-adapter v%s\n", versionString)

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := run(ctx, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}

	if !results.OK() {
		stop()
		os.Exit(1)
	}
}

type components struct {
	adapter   *adapter.Adapter
	documents *workspace.Documents
	store     resultstore.Store
}

func run(ctx context.Context, params commandParams) (*lifecycle.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	c, err := build(ctx, params, mainDebugLogger)
	if err != nil {
		return nil, err
	}
	defer c.adapter.Dispose()
	if c.store != nil {
		defer func() { _ = c.store.Close() }()
	}

	consoleSink := lifecycle.ConsoleSink{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	c.adapter.Tests().Subscribe(consoleSink.Handle)

	if params.serve != "" {
		c.adapter.TestStates().Subscribe(consoleSink.Handle)
		return &lifecycle.Results{}, serve(ctx, params, c, mainDebugLogger)
	}

	collector := &lifecycle.ResultsCollector{}
	sinks := lifecycle.MultiSink{consoleSink, collector}
	var jUnitSink *lifecycle.JUnitSink
	if params.jUnitFile != "" {
		jUnitSink = lifecycle.NewJUnitSink(params.jUnitFile,
			map[string]string{"workspace": c.adapter.WorkspaceRoot()}, mainDebugLogger)
		sinks = append(sinks, jUnitSink)
	}
	c.adapter.TestStates().Subscribe(sinks.Handle)

	if err := c.adapter.Load(ctx); err != nil {
		return nil, err
	}
	ids := selectTests(c.adapter.Tree(), params)
	c.adapter.Run(ctx, ids)

	if params.watch {
		c.adapter.Autorun().Subscribe(func(struct{}) {
			go c.adapter.Run(ctx, selectTests(c.adapter.Tree(), params))
		})
		fmt.Println("Watching for changes to procedures; press Ctrl+C to stop")
		if err := c.adapter.Watch(ctx, adapter.DefaultDebounce); err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	results := collector.Results()
	fmt.Println()
	lifecycle.PrintResults(os.Stdout, results)

	if jUnitSink != nil {
		if err := jUnitSink.EndLog(); err != nil {
			return nil, fmt.Errorf("error writing log: %v", err)
		}
	}

	if params.recordFailures != "" {
		if err := recordFailures(params.recordFailures, c.adapter.Tree(), results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func build(ctx context.Context, params commandParams, logger framework.Logger) (components, error) {
	var c components
	discoverer := discovery.NewDiscoverer(
		discovery.WithWorkers(params.workers),
		discovery.WithExtraPatterns(params.patterns...),
		discovery.WithLogger(framework.LoggerWithPrefix(logger, "[discovery] ")),
	)
	resolver := environment.NewResolver(params.environments, framework.LoggerWithPrefix(logger, "[environment] "))
	connector, err := remote.NewConnector(
		remote.ConnectorStatusTimeout(params.statusTimeout),
		remote.ConnectorLogger(framework.LoggerWithPrefix(logger, "[remote] ")),
	)
	if err != nil {
		return c, err
	}
	c.documents = workspace.NewDocuments(framework.LoggerWithPrefix(logger, "[workspace] "))
	executor := runner.NewExecutor(resolver, connector, c.documents, framework.LoggerWithPrefix(logger, "[executor] "))
	c.adapter = adapter.New(params.workspace, discoverer, executor, logger)

	if params.results != "" {
		c.store, err = resultstore.Open(ctx, params.results)
		if err != nil {
			c.adapter.Dispose()
			return c, err
		}
		c.adapter.TestStates().Subscribe(
			resultstore.NewStoreSink(c.store, framework.LoggerWithPrefix(logger, "[results] ")).Handle)
	}
	return c, nil
}

// selectTests returns the IDs named on the command line, or else those chosen by -run and -skip.
func selectTests(tree *testmodel.Node, params commandParams) []string {
	if len(params.testIDs) != 0 {
		return params.testIDs
	}
	if params.filters.IsDefined() {
		lifecycle.PrintFilterDescription(os.Stdout, params.filters)
	}
	return lifecycle.SelectIDs(tree, params.filters)
}

func serve(ctx context.Context, params commandParams, c components, logger framework.Logger) error {
	s := server.NewServer(ctx, c.adapter, c.documents, c.store, framework.LoggerWithPrefix(logger, "[server] "))
	defer s.Close()

	if params.watch {
		c.adapter.Autorun().Subscribe(func(struct{}) {
			go c.adapter.Run(ctx, selectTests(c.adapter.Tree(), params))
		})
		go func() {
			if err := c.adapter.Watch(ctx, adapter.DefaultDebounce); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "Watcher stopped: %s\n", err)
			}
		}()
	}
	if err := c.adapter.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Initial load failed: %s\n", err)
	}

	httpServer := &http.Server{Addr: params.serve, Handler: s, ReadHeaderTimeout: time.Second * 10}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	fmt.Printf("Listening on %s\n", params.serve)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func recordFailures(path string, tree *testmodel.Node, results lifecycle.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create suppression file: %v", err)
	}
	for _, test := range results.Failures {
		if p := testmodel.TestPath(tree, test.ID); p != nil {
			fmt.Fprintln(f, strings.Join(p, "/"))
		}
	}
	return f.Close()
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// Ignore blank lines
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := regexp.QuoteMeta(line)
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
