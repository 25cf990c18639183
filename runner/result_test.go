package runner

import (
	"testing"

	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(line int) *testmodel.Node {
	return testmodel.NewTest("testOne^ZTestA", "testOne", "/ws/ZTestA.PROC", line)
}

func TestNewTestResultPassed(t *testing.T) {
	e, err := NewTestResult(testNode(10), `{"state":"passed","message":"ignored","line":3}`)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.KindTest, e.Kind)
	assert.Equal(t, "testOne^ZTestA", e.ID)
	assert.Equal(t, lifecycle.StatePassed, e.State)
	assert.Equal(t, "Passed", e.Message)
	assert.Len(t, e.Decorations, 0)
}

func TestNewTestResultFailedWithLine(t *testing.T) {
	e, err := NewTestResult(testNode(10), `{"state":"failed","location":"L1","message":"M1","line":3}`)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateFailed, e.State)
	assert.Equal(t, "Source:  L1\nMessage: M1", e.Message)
	assert.Equal(t, []lifecycle.Decoration{{Line: 13, Message: "M1"}}, e.Decorations)
}

func TestNewTestResultWithoutPayloadLine(t *testing.T) {
	e, err := NewTestResult(testNode(10), `{"state":"failed","location":"L1","message":"M1"}`)
	require.NoError(t, err)
	assert.Len(t, e.Decorations, 0)
}

func TestNewTestResultWithZeroLine(t *testing.T) {
	e, err := NewTestResult(testNode(10), `{"state":"failed","message":"M1","line":0}`)
	require.NoError(t, err)
	assert.Len(t, e.Decorations, 0)
}

func TestNewTestResultForNodeWithoutLine(t *testing.T) {
	node := &testmodel.Node{Kind: testmodel.KindTest, ID: "testOne^ZTestA"}
	e, err := NewTestResult(node, `{"state":"failed","message":"M1","line":3}`)
	require.NoError(t, err)
	assert.Len(t, e.Decorations, 0)
}

func TestNewTestResultCopiesOtherStates(t *testing.T) {
	e, err := NewTestResult(testNode(10), `{"state":"skipped","location":"L","message":"M","extra":{"a":[1]}}`)
	require.NoError(t, err)
	assert.Equal(t, "skipped", e.State)
	assert.Equal(t, "Source:  L\nMessage: M", e.Message)
}

func TestNewTestResultWithoutStateIsErrored(t *testing.T) {
	e, err := NewTestResult(testNode(10), `{"message":"M"}`)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateErrored, e.State)
	assert.Equal(t, "Source:  \nMessage: M", e.Message)
}

func TestNewTestResultMalformed(t *testing.T) {
	for _, output := range []string{
		"",
		"not json",
		`{"state":`,
		`["passed"]`,
		`{"state":3}`,
		`{"state":"passed"} trailing`,
		`{"state":"passed"}{"state":"failed"}`,
	} {
		t.Run(output, func(t *testing.T) {
			_, err := NewTestResult(testNode(10), output)
			assert.Error(t, err)
		})
	}
}

func TestNewTestResultAllowsTrailingWhitespace(t *testing.T) {
	event, err := NewTestResult(testNode(10), "{\"state\":\"passed\"}\r\n")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatePassed, event.State)
}
