package lifecycle

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pslkit/psl-test-adapter/testmodel"
)

// TestPath is the label path of a node below the root: {suite} or {suite, test}.
type TestPath []string

func (p TestPath) String() string {
	return strings.Join(p, "/")
}

// RegexFilters selects tests by their label paths. MustMatch is the -run flag, MustNotMatch
// the -skip flag.
type RegexFilters struct {
	MustMatch    TestPathPatternList
	MustNotMatch TestPathPatternList
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

func (r RegexFilters) Match(path TestPath) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(path, true)) &&
		!r.MustNotMatch.AnyMatch(path, false)
}

// TestPathPattern has one regex per path component, written "suiteRegex/testRegex".
type TestPathPattern []*regexp.Regexp

func (p TestPathPattern) Match(path TestPath, includeParents bool) bool {
	min := len(p)
	if min > len(path) {
		if !includeParents {
			return false
		}
		min = len(path)
	}
	for i := 0; i < min; i++ {
		if !p[i].MatchString(path[i]) {
			return false
		}
	}
	return true
}

func (p TestPathPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

func ParseTestPathPattern(s string) (TestPathPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(TestPathPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

type TestPathPatternList []TestPathPattern

func (l TestPathPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (l *TestPathPatternList) Set(value string) error {
	p, err := ParseTestPathPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l TestPathPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestPathPatternList) AnyMatch(path TestPath, includeParents bool) bool {
	for _, p := range l {
		if p.Match(path, includeParents) {
			return true
		}
	}
	return false
}

// SelectIDs returns the node IDs to run for the given filters. With no filters the whole tree is
// selected through the root. Otherwise a suite is selected as a whole when all of its tests match,
// and matching tests are selected individually when only some of them do.
func SelectIDs(root *testmodel.Node, filters RegexFilters) []string {
	if root == nil {
		return nil
	}
	if !filters.IsDefined() {
		return []string{root.ID}
	}
	var ret []string
	for _, suite := range root.Children {
		ret = append(ret, selectInSuite(suite, TestPath{suite.Label}, filters)...)
	}
	return ret
}

func selectInSuite(node *testmodel.Node, path TestPath, filters RegexFilters) []string {
	switch node.Kind {
	case testmodel.KindTest:
		if filters.Match(path) {
			return []string{node.ID}
		}
		return nil
	case testmodel.KindSuite:
		var matched []string
		all := len(node.Children) != 0
		for _, child := range node.Children {
			childPath := append(append(TestPath(nil), path...), child.Label)
			ids := selectInSuite(child, childPath, filters)
			if len(ids) != 1 || ids[0] != child.ID {
				all = false
			}
			matched = append(matched, ids...)
		}
		if all {
			return []string{node.ID}
		}
		return matched
	}
	return nil
}

// PrintFilterDescription explains which tests the filters leave out.
func PrintFilterDescription(w io.Writer, filters RegexFilters) {
	if !filters.IsDefined() {
		return
	}
	_, _ = fmt.Fprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
	if filters.MustMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any matching %s\n", filters.MustNotMatch)
	}
	_, _ = fmt.Fprintln(w)
}
