package psl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProcedure = `#PACKAGE custom.test
#OPTION ResultClass ON
	// ZTestSample - unit tests for the sample procedure

public void testAdd()
	type Number x = 1 + 1
	quit

/*
 * helper used by the tests below
 */
private static String helper(Number a, // first
		Number b)
	quit a_b

testNoModifiers
	quit

	/* indented
helperInsideComment()
	*/
public testLast() // trailing comment
	quit
`

func methodNames(doc *Document) []string {
	var names []string
	for _, m := range doc.Methods {
		names = append(names, m.ID.Value)
	}
	return names
}

func TestParseEnumeratesMethodsInOrder(t *testing.T) {
	doc, err := ParseText(sampleProcedure)
	require.NoError(t, err)
	assert.Equal(t, []string{"testAdd", "helper", "testNoModifiers", "testLast"}, methodNames(doc))
}

func TestParseRecordsDeclarationLines(t *testing.T) {
	doc, err := ParseText(sampleProcedure)
	require.NoError(t, err)
	require.Len(t, doc.Methods, 4)
	assert.Equal(t, 5, doc.Methods[0].Line)
	assert.Equal(t, 12, doc.Methods[1].Line)
	assert.Equal(t, 16, doc.Methods[2].Line)
	assert.Equal(t, 22, doc.Methods[3].Line)
}

func TestParseRecordsModifiers(t *testing.T) {
	doc, err := ParseText(sampleProcedure)
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "void"}, doc.Methods[0].Modifiers)
	assert.Equal(t, []string{"private", "static", "String"}, doc.Methods[1].Modifiers)
	assert.Empty(t, doc.Methods[2].Modifiers)
}

func TestParseIgnoresCommentMarkersInsideStrings(t *testing.T) {
	doc, err := ParseText("public testUrl()\n\tset x = \"http://host/*\"\n\tquit\ntestNext\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"testUrl", "testNext"}, methodNames(doc))
}

func TestParseDeclarationsAfterComments(t *testing.T) {
	doc, err := ParseText("/* doc */ testA()\n\tquit\n/*\n*/testB()\n\tquit\ntestC()\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"testA", "testB", "testC"}, methodNames(doc))
	assert.Equal(t, 1, doc.Methods[0].Line)
	assert.Equal(t, 4, doc.Methods[1].Line)
	assert.Equal(t, 6, doc.Methods[2].Line)
}

func TestParseCommentOnlyLinesInFirstColumn(t *testing.T) {
	doc, err := ParseText("/* header */\n// note\n/* a */ /* b */\n/* x */ #OPTION ResultClass ON\ntestOnly\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"testOnly"}, methodNames(doc))
	assert.Equal(t, 5, doc.Methods[0].Line)
}

func TestParseEmptyFile(t *testing.T) {
	doc, err := ParseText("")
	require.NoError(t, err)
	assert.Empty(t, doc.Methods)
}

func TestParseUnterminatedBlockComment(t *testing.T) {
	_, err := ParseText("testA\n\tquit\n/* never closed\ntestB\n")
	require.Error(t, err)
	var pe ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, pe.Error(), "unterminated block comment")
}

func TestParseInvalidMethodName(t *testing.T) {
	_, err := ParseText("public 9lives()\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid method name "9lives"`)
}

func TestParseFileAddsPathToErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ZTestBad.PROC")
	require.NoError(t, os.WriteFile(path, []byte("/* oops\n"), 0o600))
	_, err := ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path+":1:")
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.PROC"))
	assert.True(t, os.IsNotExist(err))
}
