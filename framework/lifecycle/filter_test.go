package lifecycle

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pslkit/psl-test-adapter/testmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regexFilterTestParams struct {
	run         []string
	skip        []string
	path        TestPath
	shouldMatch bool
}

func makeFilters(t *testing.T, run, skip []string) RegexFilters {
	var r RegexFilters
	for _, s := range run {
		require.NoError(t, r.MustMatch.Set(s))
	}
	for _, s := range skip {
		require.NoError(t, r.MustNotMatch.Set(s))
	}
	return r
}

func TestRegexFilters(t *testing.T) {
	allParams := []regexFilterTestParams{
		// matches everything by default
		{nil, nil, TestPath(nil), true},
		{nil, nil, TestPath{"ZTestA"}, true},
		{nil, nil, TestPath{"ZTestA", "testOne"}, true},

		// -run with one component
		{[]string{"ZTestA"}, nil, TestPath{"ZTestA"}, true},
		{[]string{"ZTestA"}, nil, TestPath{"ZTestB"}, false},
		{[]string{"^ZTestA$"}, nil, TestPath{"ZTestAB"}, false},
		{[]string{"ZTestA"}, nil, TestPath{"ZTestA", "testOne"}, true},

		// -run with two components
		{[]string{"ZTestA/testOne"}, nil, TestPath{"ZTestA"}, true},
		{[]string{"ZTestA/testOne"}, nil, TestPath{"ZTestA", "testOne"}, true},
		{[]string{"ZTestA/testOne"}, nil, TestPath{"ZTestA", "testTwo"}, false},

		// -skip
		{nil, []string{"ZTestA"}, TestPath{"ZTestA", "testOne"}, false},
		{nil, []string{"ZTestA/testOne"}, TestPath{"ZTestA"}, true},
		{nil, []string{"ZTestA/testOne"}, TestPath{"ZTestA", "testOne"}, false},
		{nil, []string{"ZTestA/testOne"}, TestPath{"ZTestA", "testTwo"}, true},

		// -skip overrides -run
		{[]string{"ZTest"}, []string{"Slow"}, TestPath{"ZTestFast"}, true},
		{[]string{"ZTest"}, []string{"Slow"}, TestPath{"ZTestSlow"}, false},
	}
	for _, params := range allParams {
		r := makeFilters(t, params.run, params.skip)
		t.Run(fmt.Sprintf("run=%s, skip=%s, path=%s", r.MustMatch, r.MustNotMatch, params.path), func(t *testing.T) {
			assert.Equal(t, params.shouldMatch, r.Match(params.path))
		})
	}
}

func TestParseTestPathPatternRejectsBadRegex(t *testing.T) {
	_, err := ParseTestPathPattern("ZTestA/(")
	assert.Error(t, err)
}

func makeTree() *testmodel.Node {
	return testmodel.NewRoot([]*testmodel.Node{
		testmodel.NewSuite("ZTestA", "ZTestA", "/ws/ZTestA.PROC",
			testmodel.NewTest("testOne^ZTestA", "testOne", "/ws/ZTestA.PROC", 3),
			testmodel.NewTest("testTwo^ZTestA", "testTwo", "/ws/ZTestA.PROC", 9),
		),
		testmodel.NewSuite("ZTestB", "ZTestB", "/ws/ZTestB.PROC",
			testmodel.NewTest("testOne^ZTestB", "testOne", "/ws/ZTestB.PROC", 1),
		),
	})
}

func TestSelectIDs(t *testing.T) {
	root := makeTree()

	t.Run("no filters selects root", func(t *testing.T) {
		assert.Equal(t, []string{testmodel.RootID}, SelectIDs(root, RegexFilters{}))
	})

	t.Run("whole suite", func(t *testing.T) {
		assert.Equal(t, []string{"ZTestA"}, SelectIDs(root, makeFilters(t, []string{"ZTestA"}, nil)))
	})

	t.Run("individual tests", func(t *testing.T) {
		assert.Equal(t, []string{"testOne^ZTestA", "ZTestB"},
			SelectIDs(root, makeFilters(t, []string{"/testOne"}, nil)))
	})

	t.Run("skip", func(t *testing.T) {
		assert.Equal(t, []string{"testOne^ZTestA"},
			SelectIDs(root, makeFilters(t, nil, []string{"ZTestA/testTwo", "ZTestB"})))
	})

	t.Run("nothing matches", func(t *testing.T) {
		assert.Len(t, SelectIDs(root, makeFilters(t, []string{"nope"}, nil)), 0)
	})

	t.Run("no tree", func(t *testing.T) {
		assert.Nil(t, SelectIDs(nil, RegexFilters{}))
	})
}

func TestPrintFilterDescription(t *testing.T) {
	var buf bytes.Buffer
	PrintFilterDescription(&buf, makeFilters(t, []string{"ZTestA"}, []string{"Slow"}))
	assert.Contains(t, buf.String(), `skip any not matching "ZTestA"`)
	assert.Contains(t, buf.String(), `skip any matching "Slow"`)

	buf.Reset()
	PrintFilterDescription(&buf, RegexFilters{})
	assert.Empty(t, buf.String())
}
