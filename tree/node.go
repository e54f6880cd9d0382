// Package tree defines the parser-agnostic tree AST consumed by the flattener.
//
// Front ends adapt their own syntax trees to *Node. Every node carries the
// Kind tag so that shapes the pipeline does not support can be reported
// instead of mis-compiled.
package tree

import "fmt"

// Position is a source location, 1-based.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NodeKind represents different types of AST nodes
type NodeKind string

// Statements
const (
	NodeLet    NodeKind = "NodeLet"
	NodeAssign NodeKind = "NodeAssign"
	NodeIf     NodeKind = "NodeIf"
	NodeWhile  NodeKind = "NodeWhile"
	NodeDo     NodeKind = "NodeDo"
	NodeBlock  NodeKind = "NodeBlock"

	NodeSwitch   NodeKind = "NodeSwitch"
	NodeFor      NodeKind = "NodeFor"
	NodeLoop     NodeKind = "NodeLoop"
	NodeTry      NodeKind = "NodeTry"
	NodeReturn   NodeKind = "NodeReturn"
	NodeBreak    NodeKind = "NodeBreak"
	NodeContinue NodeKind = "NodeContinue"
	NodeImport   NodeKind = "NodeImport"
	NodeExport   NodeKind = "NodeExport"
	NodeFunc     NodeKind = "NodeFunc"
)

// Expressions
const (
	NodeIdent   NodeKind = "NodeIdent"
	NodeInteger NodeKind = "NodeInteger"
	NodeFloat   NodeKind = "NodeFloat"
	NodeBool    NodeKind = "NodeBool"
	NodeChar    NodeKind = "NodeChar"
	NodeString  NodeKind = "NodeString"
	NodeUnit    NodeKind = "NodeUnit"
	NodeConst   NodeKind = "NodeConst"
	NodeArray   NodeKind = "NodeArray"
	NodeInterp  NodeKind = "NodeInterp"
	NodeCall    NodeKind = "NodeCall"

	NodeMap      NodeKind = "NodeMap"
	NodeIndex    NodeKind = "NodeIndex"
	NodeDot      NodeKind = "NodeDot"
	NodeMethod   NodeKind = "NodeMethod"
	NodeAnd      NodeKind = "NodeAnd"
	NodeOr       NodeKind = "NodeOr"
	NodeCoalesce NodeKind = "NodeCoalesce"
	NodeThis     NodeKind = "NodeThis"
)

// Node represents a node in the tree AST.
type Node struct {
	Kind NodeKind
	Pos  Position

	// NodeIdent, NodeLet, NodeCall:
	Name string
	// NodeAssign: "=" or a compound operator such as "+=".
	Op string
	// NodeString:
	String string
	// NodeChar:
	Char rune
	// NodeInteger:
	Integer int64
	// NodeFloat:
	Float float64
	// NodeBool:
	Bool bool
	// NodeConst: a value folded upstream, see Char and Unit.
	Const any
	// NodeDo: the loop ends once the condition holds.
	Until bool

	// NodeLet: [init]
	// NodeAssign: [target, value]
	// NodeIf: [cond, then, else?]
	// NodeWhile: [cond, body]
	// NodeDo: [body, cond]
	// NodeBlock: statements
	// NodeCall: args; NodeArray: elements; NodeInterp: parts
	Children []*Node
}

// Char is a character constant inside a NodeConst value.
type Char rune

// Unit is the "no value" constant inside a NodeConst value.
type Unit struct{}

// Describe names the construct for diagnostics, e.g. "switch statement".
func (k NodeKind) Describe() string {
	switch k {
	case NodeSwitch:
		return "switch statement"
	case NodeFor:
		return "for loop"
	case NodeLoop:
		return "loop statement"
	case NodeTry:
		return "try/catch"
	case NodeReturn:
		return "return statement"
	case NodeBreak:
		return "break statement"
	case NodeContinue:
		return "continue statement"
	case NodeImport:
		return "import"
	case NodeExport:
		return "export"
	case NodeFunc:
		return "function definition"
	case NodeMap:
		return "map literal"
	case NodeIndex:
		return "indexing"
	case NodeDot:
		return "member access"
	case NodeMethod:
		return "method call"
	case NodeAnd:
		return "short-circuit &&"
	case NodeOr:
		return "short-circuit ||"
	case NodeCoalesce:
		return "null coalescing ??"
	case NodeThis:
		return "this"
	case NodeBlock:
		return "nested block"
	default:
		return string(k)
	}
}
