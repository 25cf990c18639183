// Package discovery finds the unit tests in a workspace: it lists the test procedures, parses
// each one for test methods, and builds a suite per procedure.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/psl"
	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// ErrNoProcedureDirectory is returned when the workspace has no readable procedure directory.
var ErrNoProcedureDirectory = errors.New("discovery: procedure directory is not readable")

// Discoverer builds the suites of a workspace.
type Discoverer struct {
	parse         ParseFunc
	workers       int
	extraPatterns []string
	logger        framework.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithParser replaces the procedure parser.
func WithParser(parse ParseFunc) Option {
	return func(d *Discoverer) {
		if parse != nil {
			d.parse = parse
		}
	}
}

// WithWorkers limits how many files are parsed concurrently. Zero or negative values use
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(d *Discoverer) {
		d.workers = n
	}
}

// WithExtraPatterns adds doublestar patterns, relative to the workspace root, for procedure files
// kept outside the standard procedure directory (for example "custom/**/procedure/*.PROC").
// Matching files still have to be named like test suites.
func WithExtraPatterns(patterns ...string) Option {
	return func(d *Discoverer) {
		d.extraPatterns = append(d.extraPatterns, patterns...)
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger framework.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(opts ...Option) *Discoverer {
	d := &Discoverer{
		parse:  psl.ParseFile,
		logger: framework.NullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover returns one suite per test procedure that contains at least one test, ordered as the
// procedure directory lists them. Any listing or parsing failure fails the whole discovery.
func (d *Discoverer) Discover(ctx context.Context, workspaceRoot string) ([]*testmodel.Node, error) {
	paths, err := d.findSuiteFiles(workspaceRoot)
	if err != nil {
		return nil, err
	}
	d.logger.Printf("Found %d test procedure(s)", len(paths))

	workers := d.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	suites := make([]*testmodel.Node, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			suite, err := BuildSuite(gCtx, d.parse, path)
			if err != nil {
				return err
			}
			suites[i] = suite
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ret := make([]*testmodel.Node, 0, len(suites))
	for _, suite := range suites {
		if len(suite.Children) == 0 {
			d.logger.Printf("Skipping %s: no test methods", suite.ID)
			continue
		}
		ret = append(ret, suite)
	}
	return ret, nil
}

func (d *Discoverer) findSuiteFiles(workspaceRoot string) ([]string, error) {
	dir := filepath.Join(workspaceRoot, ProcedureDirectory)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoProcedureDirectory, dir, err)
	}

	var paths []string
	seenSuites := make(map[string]string)
	add := func(path string) {
		id := fileNameWithoutExtension(path)
		if previous, ok := seenSuites[id]; ok {
			if previous != path {
				d.logger.Printf("Ignoring %s: suite %s is already defined by %s", path, id, previous)
			}
			return
		}
		seenSuites[id] = path
		paths = append(paths, path)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsTestSuiteFile(entry.Name()) {
			continue
		}
		add(filepath.Join(dir, entry.Name()))
	}

	for _, pattern := range d.extraPatterns {
		matches, err := doublestar.Glob(os.DirFS(workspaceRoot), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid procedure pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if IsTestSuiteFile(filepath.Base(match)) {
				add(filepath.Join(workspaceRoot, filepath.FromSlash(match)))
			}
		}
	}
	return paths, nil
}
