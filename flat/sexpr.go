package flat

import (
	"strconv"
	"strings"

	"github.com/Master-Bw3/hexerhai/sexy"
	"github.com/Master-Bw3/hexerhai/tree"
)

// ToSExpr renders a flat sequence, one top-level node per line.
func ToSExpr(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.SExpr()
	}
	return strings.Join(parts, "\n")
}

// SExpr renders a single node.
func (n *Node) SExpr() string {
	switch n.Kind {
	case NodeCall:
		return "(call " + sexy.Quote(n.Name) + ")"
	case NodeStore:
		return "(store " + sexy.Quote(n.Name) + ")"
	case NodePush:
		return "(push " + sexy.Quote(n.Name) + ")"
	case NodeNumber:
		return "(number " + strconv.FormatFloat(n.Number, 'f', -1, 64) + ")"
	case NodeBoolean:
		return "(bool " + strconv.FormatBool(n.Bool) + ")"
	case NodeString:
		return "(string " + sexy.Quote(n.String) + ")"
	case NodeUnit:
		return "(unit)"
	case NodeDynamic:
		return "(const " + tree.FormatConst(n.Const) + ")"
	case NodeIf:
		s := "(if " + section("cond", n.Condition) + " " + section("then", n.Succeed)
		if n.HasFail {
			s += " " + section("else", n.Fail)
		}
		return s + ")"
	case NodeWhile:
		head := "while"
		if n.DoWhile {
			head = "do-while"
		}
		return "(" + head + " " + section("cond", n.Condition) + " " + section("body", n.Block) + ")"
	default:
		return "(" + string(n.Kind) + ")"
	}
}

func section(head string, nodes []*Node) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(head)
	for _, n := range nodes {
		sb.WriteString(" ")
		sb.WriteString(n.SExpr())
	}
	sb.WriteString(")")
	return sb.String()
}
