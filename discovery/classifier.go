package discovery

import (
	"strings"

	"github.com/pslkit/psl-test-adapter/psl"
)

const (
	// ProcedureDirectory is where test procedures live, relative to the workspace root.
	ProcedureDirectory = "dataqwik/procedure/"

	// DriverFileName hosts the remote dispatch entry point. It never contains tests.
	DriverFileName = "ZTestRPC.PROC"

	suiteFilePrefix  = "ZTest"
	procedureSuffix  = ".PROC"
	testMethodPrefix = "test"
)

// IsTestMethod reports whether a method is a unit test, which is true when its name starts with
// "test" (case-sensitive).
func IsTestMethod(method psl.Method) bool {
	return strings.HasPrefix(method.ID.Value, testMethodPrefix)
}

// IsTestSuiteFile reports whether a procedure file name denotes a test suite.
func IsTestSuiteFile(fileName string) bool {
	if fileName == DriverFileName {
		return false
	}
	return strings.HasPrefix(fileName, suiteFilePrefix) && strings.HasSuffix(fileName, procedureSuffix)
}
