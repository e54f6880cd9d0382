package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Master-Bw3/hexerhai/sexy"
)

// ParseSexy reads a program written as S-expressions, one statement per
// top-level datum.
func ParseSexy(src string) ([]*Node, error) {
	data, err := sexy.ParseAll(src)
	if err != nil {
		return nil, err
	}
	stmts := make([]*Node, 0, len(data))
	for _, d := range data {
		stmt, err := FromSexy(d)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// unsupportedForms are parsed so that the flattener, not the reader,
// rejects them with a position.
var unsupportedForms = map[string]NodeKind{
	"switch":   NodeSwitch,
	"for":      NodeFor,
	"loop":     NodeLoop,
	"try":      NodeTry,
	"return":   NodeReturn,
	"break":    NodeBreak,
	"continue": NodeContinue,
	"import":   NodeImport,
	"export":   NodeExport,
	"fn":       NodeFunc,
	"map":      NodeMap,
	"index":    NodeIndex,
	"dot":      NodeDot,
	"method":   NodeMethod,
	"and":      NodeAnd,
	"or":       NodeOr,
	"coalesce": NodeCoalesce,
}

// FromSexy converts one datum into a tree node.
func FromSexy(d *sexy.Node) (*Node, error) {
	pos := Position{Line: d.Line, Column: d.Column}

	switch d.Type {
	case sexy.NodeInteger:
		n, err := strconv.ParseInt(d.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", pos, d.Text)
		}
		return &Node{Kind: NodeInteger, Pos: pos, Integer: n}, nil
	case sexy.NodeFloat:
		f, err := strconv.ParseFloat(d.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid float %q", pos, d.Text)
		}
		return &Node{Kind: NodeFloat, Pos: pos, Float: f}, nil
	case sexy.NodeString:
		return &Node{Kind: NodeString, Pos: pos, String: d.Text}, nil
	case sexy.NodeSymbol:
		switch d.Text {
		case "true", "false":
			return &Node{Kind: NodeBool, Pos: pos, Bool: d.Text == "true"}, nil
		case "unit":
			return &Node{Kind: NodeUnit, Pos: pos}, nil
		case "this":
			return &Node{Kind: NodeThis, Pos: pos}, nil
		}
		return nil, fmt.Errorf("%s: unknown symbol %q", pos, d.Text)
	case sexy.NodeArray:
		children, err := fromSexyAll(d.Items)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeArray, Pos: pos, Children: children}, nil
	}

	head := d.Head()
	if head == "" {
		return nil, fmt.Errorf("%s: expected a form, got %s", pos, d)
	}
	args := d.Items[1:]

	if kind, ok := unsupportedForms[head]; ok {
		children, err := fromSexyAll(args)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: kind, Pos: pos, Children: children}, nil
	}

	switch head {
	case "let":
		if len(args) != 2 {
			return nil, arityError(pos, head, 2)
		}
		name, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		init, err := FromSexy(args[1])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeLet, Pos: pos, Name: name, Children: []*Node{init}}, nil

	case "assign":
		if len(args) != 3 {
			return nil, arityError(pos, head, 3)
		}
		op, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		children, err := fromSexyAll(args[1:])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeAssign, Pos: pos, Op: op, Children: children}, nil

	case "var", "char":
		if len(args) != 1 {
			return nil, arityError(pos, head, 1)
		}
		text, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		if head == "var" {
			return &Node{Kind: NodeIdent, Pos: pos, Name: text}, nil
		}
		r := []rune(text)
		if len(r) != 1 {
			return nil, fmt.Errorf("%s: char literal must hold exactly one character", pos)
		}
		return &Node{Kind: NodeChar, Pos: pos, Char: r[0]}, nil

	case "call":
		if len(args) < 1 {
			return nil, arityError(pos, head, 1)
		}
		name, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		children, err := fromSexyAll(args[1:])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeCall, Pos: pos, Name: name, Children: children}, nil

	case "interp", "block":
		children, err := fromSexyAll(args)
		if err != nil {
			return nil, err
		}
		kind := NodeInterp
		if head == "block" {
			kind = NodeBlock
		}
		return &Node{Kind: kind, Pos: pos, Children: children}, nil

	case "if":
		if len(args) != 2 && len(args) != 3 {
			return nil, fmt.Errorf("%s: if takes a condition and one or two blocks", pos)
		}
		children, err := fromSexyAll(args)
		if err != nil {
			return nil, err
		}
		for _, b := range children[1:] {
			if b.Kind != NodeBlock {
				return nil, fmt.Errorf("%s: if branches must be blocks", b.Pos)
			}
		}
		return &Node{Kind: NodeIf, Pos: pos, Children: children}, nil

	case "while", "do-while", "do-until":
		if len(args) != 2 {
			return nil, arityError(pos, head, 2)
		}
		children, err := fromSexyAll(args)
		if err != nil {
			return nil, err
		}
		if head == "while" {
			if children[1].Kind != NodeBlock {
				return nil, fmt.Errorf("%s: while body must be a block", children[1].Pos)
			}
			return &Node{Kind: NodeWhile, Pos: pos, Children: children}, nil
		}
		if children[0].Kind != NodeBlock {
			return nil, fmt.Errorf("%s: do body must be a block", children[0].Pos)
		}
		return &Node{Kind: NodeDo, Pos: pos, Until: head == "do-until", Children: children}, nil

	case "const":
		if len(args) != 1 {
			return nil, arityError(pos, head, 1)
		}
		v, err := constFromSexy(args[0])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeConst, Pos: pos, Const: v}, nil
	}

	return nil, fmt.Errorf("%s: unknown form %q", pos, head)
}

func fromSexyAll(data []*sexy.Node) ([]*Node, error) {
	nodes := make([]*Node, 0, len(data))
	for _, d := range data {
		n, err := FromSexy(d)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// constFromSexy builds the Go value an upstream constant folder would hand
// over: int64, float64, string, bool, Char, nil for unit, []any for lists.
func constFromSexy(d *sexy.Node) (any, error) {
	switch d.Type {
	case sexy.NodeInteger:
		return strconv.ParseInt(d.Text, 10, 64)
	case sexy.NodeFloat:
		return strconv.ParseFloat(d.Text, 64)
	case sexy.NodeString:
		return d.Text, nil
	case sexy.NodeArray:
		items := make([]any, 0, len(d.Items))
		for _, item := range d.Items {
			v, err := constFromSexy(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case sexy.NodeSymbol:
		switch d.Text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "unit":
			return nil, nil
		}
	case sexy.NodeList:
		if d.Head() == "char" && len(d.Items) == 2 {
			if r := []rune(d.Items[1].Text); d.Items[1].Type == sexy.NodeString && len(r) == 1 {
				return Char(r[0]), nil
			}
		}
	}
	return nil, fmt.Errorf("%s: unsupported constant %s", d.Pos(), d)
}

func stringArg(d *sexy.Node) (string, error) {
	if d.Type != sexy.NodeString {
		return "", fmt.Errorf("%s: expected a string, got %s", d.Pos(), d)
	}
	return d.Text, nil
}

func arityError(pos Position, form string, n int) error {
	return fmt.Errorf("%s: %s takes %d argument(s)", pos, form, n)
}

// ToSExpr converts statements back to the S-expression form ParseSexy reads.
func ToSExpr(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = toSExpr(n)
	}
	return strings.Join(parts, "\n")
}

func toSExpr(node *Node) string {
	switch node.Kind {
	case NodeIdent:
		return "(var " + sexy.Quote(node.Name) + ")"
	case NodeInteger:
		return strconv.FormatInt(node.Integer, 10)
	case NodeFloat:
		s := strconv.FormatFloat(node.Float, 'f', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case NodeBool:
		return strconv.FormatBool(node.Bool)
	case NodeChar:
		return "(char " + sexy.Quote(string(node.Char)) + ")"
	case NodeString:
		return sexy.Quote(node.String)
	case NodeUnit:
		return "unit"
	case NodeThis:
		return "this"
	case NodeConst:
		return "(const " + FormatConst(node.Const) + ")"
	case NodeArray:
		return "[" + joinSExpr(node.Children) + "]"
	case NodeLet:
		return "(let " + sexy.Quote(node.Name) + " " + toSExpr(node.Children[0]) + ")"
	case NodeAssign:
		return "(assign " + sexy.Quote(node.Op) + " " + joinSExpr(node.Children) + ")"
	case NodeCall:
		if len(node.Children) == 0 {
			return "(call " + sexy.Quote(node.Name) + ")"
		}
		return "(call " + sexy.Quote(node.Name) + " " + joinSExpr(node.Children) + ")"
	case NodeDo:
		if node.Until {
			return form("do-until", node.Children)
		}
		return form("do-while", node.Children)
	}

	for head, kind := range unsupportedForms {
		if kind == node.Kind {
			return form(head, node.Children)
		}
	}
	heads := map[NodeKind]string{
		NodeInterp: "interp",
		NodeBlock:  "block",
		NodeIf:     "if",
		NodeWhile:  "while",
	}
	if head, ok := heads[node.Kind]; ok {
		return form(head, node.Children)
	}
	return "(" + string(node.Kind) + ")"
}

func form(head string, children []*Node) string {
	if len(children) == 0 {
		return "(" + head + ")"
	}
	return "(" + head + " " + joinSExpr(children) + ")"
}

func joinSExpr(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = toSExpr(n)
	}
	return strings.Join(parts, " ")
}

// FormatConst renders a NodeConst value in S-expression form.
func FormatConst(v any) string {
	switch v := v.(type) {
	case nil:
		return "unit"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case string:
		return sexy.Quote(v)
	case Char:
		return "(char " + sexy.Quote(string(v)) + ")"
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatConst(item)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
