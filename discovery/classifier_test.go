package discovery

import (
	"testing"

	"github.com/pslkit/psl-test-adapter/psl"

	"github.com/stretchr/testify/assert"
)

func TestIsTestMethod(t *testing.T) {
	for name, expected := range map[string]bool{
		"testAdd":   true,
		"test":      true,
		"testing":   true,
		"Test":      false,
		"TESTAdd":   false,
		"helper":    false,
		"myTestAdd": false,
		"":          false,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, IsTestMethod(psl.Method{ID: psl.Identifier{Value: name}}))
		})
	}
}

func TestIsTestSuiteFile(t *testing.T) {
	for name, expected := range map[string]bool{
		"ZTestMath.PROC":     true,
		"ZTest.PROC":         true,
		"ZTestRPC.PROC":      false,
		"ZTestRPC2.PROC":     true,
		"ZMath.PROC":         false,
		"ZTestMath.proc":     false,
		"ztestMath.PROC":     false,
		"ZTestMath.PROC.bak": false,
		"ZTestMath.TBL":      false,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, IsTestSuiteFile(name))
		})
	}
}
