// Package flat turns a tree AST into a flat sequence of stack operations.
//
// Sequences are in execution order: a machine that runs the nodes front to
// back sees every operand pushed before the operation that consumes it.
// Control flow stays structured as NodeIf and NodeWhile, whose fields are
// themselves flat sequences.
package flat

import "github.com/Master-Bw3/hexerhai/tree"

// NodeKind represents the kind of a flat node.
type NodeKind string

const (
	// Ops
	NodeCall  NodeKind = "NodeCall"  // apply operator or function Name
	NodeStore NodeKind = "NodeStore" // pop into variable Name
	NodePush  NodeKind = "NodePush"  // push variable Name

	// Literals
	NodeNumber  NodeKind = "NodeNumber"
	NodeBoolean NodeKind = "NodeBoolean"
	NodeString  NodeKind = "NodeString"
	NodeDynamic NodeKind = "NodeDynamic"
	NodeUnit    NodeKind = "NodeUnit"

	// Blocks
	NodeIf    NodeKind = "NodeIf"
	NodeWhile NodeKind = "NodeWhile"
)

// Names of calls the flattener introduces itself.
const (
	CallListFromStack = "last_n_list"
	CallToString      = "string/iota"
	CallConcat        = "string/add"
	CallNot           = "!"
	CallNegate        = "neg"
)

// Node is one element of a flat sequence.
type Node struct {
	Kind NodeKind
	Pos  tree.Position

	// NodeCall, NodeStore, NodePush:
	Name string
	// NodeNumber:
	Number float64
	// NodeBoolean:
	Bool bool
	// NodeString:
	String string
	// NodeDynamic: the constant exactly as the front end supplied it.
	Const any

	// NodeIf, NodeWhile:
	Condition []*Node
	// NodeIf:
	Succeed []*Node
	Fail    []*Node
	HasFail bool
	// NodeWhile:
	DoWhile bool
	Block   []*Node
}
