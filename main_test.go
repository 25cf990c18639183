package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree() *testmodel.Node {
	return testmodel.NewRoot([]*testmodel.Node{
		testmodel.NewSuite("ZTestA", "ZTestA", "/ws/ZTestA.PROC",
			testmodel.NewTest("t1^ZTestA", "t1", "/ws/ZTestA.PROC", 3),
			testmodel.NewTest("t2^ZTestA", "t2", "/ws/ZTestA.PROC", 9),
		),
		testmodel.NewSuite("ZTestB", "ZTestB", "/ws/ZTestB.PROC",
			testmodel.NewTest("t1^ZTestB", "t1", "/ws/ZTestB.PROC", 2),
		),
	})
}

func TestReadParams(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"psl-test-adapter",
		"-workspace", "/ws", "-environments", "envs.yaml", "-run", "ZTestA", "-pattern", "a/*.PROC",
		"-pattern", "b/*.PROC", "-status-timeout", "3s", "t1^ZTestA", "ZTestB"}))
	assert.Equal(t, "/ws", p.workspace)
	assert.Equal(t, "envs.yaml", p.environments)
	assert.True(t, p.filters.MustMatch.IsDefined())
	assert.Equal(t, stringList{"a/*.PROC", "b/*.PROC"}, p.patterns)
	assert.Equal(t, time.Second*3, p.statusTimeout)
	assert.Equal(t, []string{"t1^ZTestA", "ZTestB"}, p.testIDs)
}

func TestReadParamsRequiresEnvironments(t *testing.T) {
	var p commandParams
	assert.False(t, p.Read([]string{"psl-test-adapter", "-workspace", "/ws"}))
}

func TestSelectTests(t *testing.T) {
	tree := makeTree()

	assert.Equal(t, []string{testmodel.RootID}, selectTests(tree, commandParams{}))
	assert.Equal(t, []string{"x", "y"}, selectTests(tree, commandParams{testIDs: []string{"x", "y"}}))

	var p commandParams
	require.NoError(t, p.filters.MustNotMatch.Set("ZTestA/t2"))
	assert.Equal(t, []string{"t1^ZTestA", "ZTestB"}, selectTests(tree, p))
}

func TestRecordedFailuresCanBeSkipped(t *testing.T) {
	tree := makeTree()
	path := filepath.Join(t.TempDir(), "failures.txt")
	results := lifecycle.Results{Failures: []lifecycle.TestResult{
		{ID: "t2^ZTestA", State: lifecycle.StateFailed},
		{ID: "t1^ZTestB", State: lifecycle.StateErrored},
	}}
	require.NoError(t, recordFailures(path, tree, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ZTestA/t2\nZTestB/t1\n", string(data))

	p := commandParams{skipFile: path}
	require.NoError(t, loadSuppressions(&p))
	assert.Equal(t, []string{"t1^ZTestA"}, lifecycle.SelectIDs(tree, p.filters))
}

func TestLoadSuppressionsMissingFile(t *testing.T) {
	p := commandParams{skipFile: filepath.Join(t.TempDir(), "none.txt")}
	assert.Error(t, loadSuppressions(&p))
}
