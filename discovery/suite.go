package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pslkit/psl-test-adapter/psl"
	"github.com/pslkit/psl-test-adapter/testmodel"
)

// ParseFunc reads a procedure file and returns its method declarations.
type ParseFunc func(path string) (*psl.Document, error)

// BuildSuite parses one procedure file and returns a suite containing one test per test method,
// in declaration order. The suite may have no children; callers decide whether to keep it.
func BuildSuite(ctx context.Context, parse ParseFunc, path string) (*testmodel.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	suiteID := fileNameWithoutExtension(path)
	suite := testmodel.NewSuite(suiteID, suiteID, path)

	doc, err := parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, method := range doc.Methods {
		if !IsTestMethod(method) {
			continue
		}
		name := method.ID.Value
		suite.Children = append(suite.Children,
			testmodel.NewTest(testmodel.QualifiedID(name, suiteID), name, path, method.Line))
	}
	return suite, nil
}

// fileNameWithoutExtension strips the last "."-delimited segment of the base name, unless the
// only "." is the first character.
func fileNameWithoutExtension(path string) string {
	base := filepath.Base(path)
	if lastPeriod := strings.LastIndex(base, "."); lastPeriod > 0 {
		return base[:lastPeriod]
	}
	return base
}
