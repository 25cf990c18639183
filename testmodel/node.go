// Package testmodel defines the tree of discovered tests: a synthetic root suite, one suite per
// test procedure, and one test per qualifying method.
package testmodel

import (
	"fmt"

	"github.com/pslkit/psl-test-adapter/framework/opt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// RootID and RootLabel identify the synthetic suite that aggregates every discovered suite.
const (
	RootID    = "root"
	RootLabel = "PSL"
)

// Kind distinguishes the two variants of Node.
type Kind int

const (
	KindSuite Kind = iota + 1
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindSuite:
		return "suite"
	case KindTest:
		return "test"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one element of the test tree. It is a tagged union: Kind says which variant it is.
// Suites own Children; tests have a Line and never have children.
//
// A tree is immutable once it has been published by a load; consumers only read it.
type Node struct {
	Kind     Kind
	ID       string
	Label    string
	File     string
	Line     opt.Maybe[int]
	Children []*Node
}

// NewSuite creates a suite node.
func NewSuite(id, label, file string, children ...*Node) *Node {
	return &Node{Kind: KindSuite, ID: id, Label: label, File: file, Children: children}
}

// NewTest creates a test node. The line is the 1-based line where the test method is declared.
func NewTest(id, label, file string, line int) *Node {
	return &Node{Kind: KindTest, ID: id, Label: label, File: file, Line: opt.Some(line)}
}

// NewRoot creates the synthetic root suite. It is the only suite allowed to have no children.
func NewRoot(suites []*Node) *Node {
	return NewSuite(RootID, RootLabel, "", suites...)
}

// QualifiedID returns the identifier of a test method within a suite, which is also the argument
// passed to the remote dispatch procedure.
func QualifiedID(methodName, suiteID string) string {
	return methodName + "^" + suiteID
}

// Find searches the tree depth-first (the node itself, then each child in order) and returns
// the first node with the given ID, or nil.
func Find(node *Node, id string) *Node {
	if node == nil {
		return nil
	}
	if node.ID == id {
		return node
	}
	switch node.Kind {
	case KindSuite:
		for _, child := range node.Children {
			if found := Find(child, id); found != nil {
				return found
			}
		}
	case KindTest:
	}
	return nil
}

// Walk calls fn for every node in pre-order. The path argument holds the labels of the node's
// ancestors below the root, followed by the node's own label.
func Walk(node *Node, fn func(n *Node, path []string)) {
	walk(node, nil, fn)
}

func walk(node *Node, parent []string, fn func(*Node, []string)) {
	if node == nil {
		return
	}
	path := parent
	if node.ID != RootID {
		path = append(append([]string(nil), parent...), node.Label)
	}
	fn(node, path)
	switch node.Kind {
	case KindSuite:
		for _, child := range node.Children {
			walk(child, path, fn)
		}
	case KindTest:
	}
}

// TestPath returns the label path of the first node with the given ID (see Walk), or nil if
// there is no such node.
func TestPath(root *Node, id string) []string {
	var ret []string
	found := false
	Walk(root, func(n *Node, path []string) {
		if !found && n.ID == id {
			ret, found = path, true
		}
	})
	return ret
}

// CountTests returns the number of test nodes in the tree.
func CountTests(node *Node) int {
	count := 0
	Walk(node, func(n *Node, _ []string) {
		if n.Kind == KindTest {
			count++
		}
	})
	return count
}

// WriteToJSONWriter encodes the node in the shape test explorer consumers expect.
func (n *Node) WriteToJSONWriter(w *jwriter.Writer) {
	if n == nil {
		w.Null()
		return
	}
	obj := w.Object()
	n.writeFields(&obj)
	obj.End()
}

func (n *Node) writeFields(obj *jwriter.ObjectState) {
	obj.Name("type").String(n.Kind.String())
	obj.Name("id").String(n.ID)
	obj.Name("label").String(n.Label)
	obj.Maybe("file", n.File != "").String(n.File)
	switch n.Kind {
	case KindSuite:
		children := obj.Name("children").Array()
		for _, c := range n.Children {
			childObj := children.Object()
			c.writeFields(&childObj)
			childObj.End()
		}
		children.End()
	case KindTest:
		obj.Maybe("line", n.Line.IsDefined()).Int(n.Line.Value())
	}
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return jwriter.MarshalJSONWithWriter(n)
}
