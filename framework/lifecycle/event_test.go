package lifecycle

import (
	"encoding/json"
	"testing"

	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, e Event) string {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return string(data)
}

func TestEventJSON(t *testing.T) {
	t.Run("load started", func(t *testing.T) {
		assert.JSONEq(t, `{"type":"started","scope":"load"}`, marshal(t, LoadStarted()))
	})

	t.Run("load finished with tree", func(t *testing.T) {
		root := testmodel.NewRoot([]*testmodel.Node{
			testmodel.NewSuite("ZTestA", "ZTestA", "/ws/ZTestA.PROC",
				testmodel.NewTest("testOne^ZTestA", "testOne", "/ws/ZTestA.PROC", 3)),
		})
		assert.JSONEq(t, `{"type":"finished","scope":"load","suite":{
			"type":"suite","id":"root","label":"PSL","children":[
				{"type":"suite","id":"ZTestA","label":"ZTestA","file":"/ws/ZTestA.PROC","children":[
					{"type":"test","id":"testOne^ZTestA","label":"testOne","file":"/ws/ZTestA.PROC","line":3}
				]}
			]}}`, marshal(t, LoadFinished(root)))
	})

	t.Run("load failed", func(t *testing.T) {
		assert.JSONEq(t, `{"type":"finished","scope":"load","errorMessage":"boom"}`, marshal(t, LoadFailed("boom")))
	})

	t.Run("run started", func(t *testing.T) {
		assert.JSONEq(t, `{"type":"started","scope":"run","runId":"r1","tests":["ZTestA"]}`,
			marshal(t, RunStarted("r1", []string{"ZTestA"})))
	})

	t.Run("run finished", func(t *testing.T) {
		assert.JSONEq(t, `{"type":"finished","scope":"run","runId":"r1"}`, marshal(t, RunFinished("r1")))
	})

	t.Run("suite", func(t *testing.T) {
		assert.JSONEq(t, `{"type":"suite","suite":"ZTestA","state":"running"}`,
			marshal(t, SuiteState("ZTestA", StateRunning)))
	})

	t.Run("test with decoration", func(t *testing.T) {
		e := TestState("testOne^ZTestA", StateFailed, "Source:  L1\nMessage: M1")
		e.Decorations = []Decoration{{Line: 13, Message: "M1"}}
		assert.JSONEq(t, `{"type":"test","test":"testOne^ZTestA","state":"failed",
			"message":"Source:  L1\nMessage: M1","decorations":[{"line":13,"message":"M1"}]}`, marshal(t, e))
	})
}

func TestEventPredicates(t *testing.T) {
	assert.False(t, TestState("t", StateRunning, "").IsTerminal())
	assert.True(t, TestState("t", StatePassed, "").IsTerminal())
	assert.False(t, TestState("t", StatePassed, "").IsFailure())
	assert.True(t, TestState("t", StateErrored, "").IsFailure())
	assert.True(t, TestState("t", "skipped", "").IsFailure())
	assert.False(t, SuiteState("s", StateCompleted).IsTerminal())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "load started", LoadStarted().String())
	assert.Equal(t, "load finished (boom)", LoadFailed("boom").String())
	assert.Equal(t, "test t passed", TestState("t", StatePassed, "").String())
}
