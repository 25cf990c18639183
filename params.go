package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
)

type commandParams struct {
	workspace      string
	environments   string
	filters        lifecycle.RegexFilters
	patterns       stringList
	skipFile       string
	recordFailures string
	jUnitFile      string
	results        string
	serve          string
	watch          bool
	debug          bool
	debugAll       bool
	statusTimeout  time.Duration
	workers        int
	testIDs        []string
}

// stringList is a flag that can be given more than once.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.workspace, "workspace", ".", "workspace root containing dataqwik/procedure")
	fs.StringVar(&c.environments, "environments", "", "JSON or YAML file defining the host environments")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.Var(&c.patterns, "pattern", "extra glob pattern(s), relative to the workspace, for procedure files")
	fs.StringVar(&c.skipFile, "skip-from", "", "file listing tests not to run, one suite/test path per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the paths of failed tests to the specified file")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.results, "results", "", "result store DSN (memory:, redis://, consul://, dynamodb://)")
	fs.StringVar(&c.serve, "serve", "", "serve the adapter over HTTP on this address instead of running once")
	fs.BoolVar(&c.watch, "watch", false, "reload and rerun the tests when procedure files change")
	fs.BoolVar(&c.debug, "debug", false, "show host output for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging and show host output for all tests")
	fs.DurationVar(&c.statusTimeout, "status-timeout", defaultStatusTimeout, "how long to wait for a host to answer")
	fs.IntVar(&c.workers, "workers", 0, "number of procedure files parsed in parallel (default GOMAXPROCS)")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.environments == "" {
		fmt.Fprintln(os.Stderr, "-environments is required")
		fs.Usage()
		return false
	}
	if c.statusTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "-status-timeout must be positive")
		fs.Usage()
		return false
	}
	c.testIDs = fs.Args()
	return true
}
