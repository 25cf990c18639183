// Package psl reads just enough of a PSL procedure file to enumerate its method declarations.
//
// A method declaration is a line that starts in the first column, optionally preceded by
// modifiers and a return type, for example:
//
//	public void testSomething()
//	private static String helper(Number a)
//	testPlain
//
// Lines that start with whitespace belong to a method body. Pragma lines (#PACKAGE, #OPTION, ...)
// and comments are ignored. A comment in the first column does not hide a declaration that
// follows it on the same line, as in "/* doc */ testA()" or a "*/testB()" that ends a block comment.
package psl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Identifier is a name token in a procedure file.
type Identifier struct {
	Value string
}

// Method is one method declaration.
type Method struct {
	ID        Identifier
	Modifiers []string
	// Line is the 1-based line number of the declaration.
	Line int
}

// Document is the parsed form of a procedure file.
type Document struct {
	Methods []Method
}

// ParseError describes a syntax problem that prevents the file from being read.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// ParseFile reads and parses a procedure file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(bytes.NewReader(data))
	if pe, ok := err.(ParseError); ok {
		pe.Path = path
		return nil, pe
	}
	return doc, err
}

// ParseText parses procedure source held in memory.
func ParseText(text string) (*Document, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads procedure source and returns its method declarations in file order.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inBlockComment := false
	blockCommentStart := 0
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")

		wasInComment := inBlockComment
		code, stillInComment := stripComments(line, inBlockComment)
		if !wasInComment && stillInComment {
			blockCommentStart = lineNumber
		}
		inBlockComment = stillInComment

		// whether a line declares a method depends on its first column, even when that column
		// belongs to a comment that precedes the declaration on the same line
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
			continue
		}
		code = strings.TrimLeft(code, " \t")
		if code == "" || code[0] == '#' {
			continue
		}
		method, err := parseDeclaration(code)
		if err != nil {
			return nil, ParseError{Line: lineNumber, Message: err.Error()}
		}
		method.Line = lineNumber
		doc.Methods = append(doc.Methods, method)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inBlockComment {
		return nil, ParseError{Line: blockCommentStart, Message: "unterminated block comment"}
	}
	return doc, nil
}

// stripComments removes comment text from a line, returning the remaining code (with trailing
// whitespace removed) and whether a block comment is still open at the end of the line.
func stripComments(line string, inBlockComment bool) (string, bool) {
	var out strings.Builder
	inString := false
	for i := 0; i < len(line); i++ {
		if inBlockComment {
			if strings.HasPrefix(line[i:], "*/") {
				inBlockComment = false
				i++
			}
			continue
		}
		c := line[i]
		if c == '"' {
			inString = !inString
		}
		if !inString {
			if strings.HasPrefix(line[i:], "//") {
				break
			}
			if strings.HasPrefix(line[i:], "/*") {
				inBlockComment = true
				i++
				continue
			}
		}
		out.WriteByte(c)
	}
	return strings.TrimRight(out.String(), " \t"), inBlockComment
}

func parseDeclaration(code string) (Method, error) {
	// the parameter list may continue on following lines, so only the text before it matters
	header := code
	if paren := strings.IndexByte(header, '('); paren >= 0 {
		header = header[:paren]
	}
	words := strings.Fields(header)
	if len(words) == 0 {
		return Method{}, fmt.Errorf("missing method name in %q", code)
	}
	name := words[len(words)-1]
	if !isIdentifier(name) {
		return Method{}, fmt.Errorf("invalid method name %q", name)
	}
	return Method{ID: Identifier{Value: name}, Modifiers: words[:len(words)-1]}, nil
}

func isIdentifier(s string) bool {
	for i, c := range s {
		switch {
		case c == '%' && i == 0:
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != "" && s != "%"
}
