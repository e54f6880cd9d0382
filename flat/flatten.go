package flat

import "github.com/Master-Bw3/hexerhai/tree"

// Flatten lowers a statement list to a flat sequence in execution order.
// It returns the first error encountered and no partial output.
func Flatten(stmts []*tree.Node) ([]*Node, error) {
	b := &builder{out: []*Node{}}
	for _, stmt := range stmts {
		if err := b.statement(stmt); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}

// FlattenExpression lowers a single expression.
func FlattenExpression(expr *tree.Node) ([]*Node, error) {
	b := &builder{out: []*Node{}}
	if err := b.expression(expr); err != nil {
		return nil, err
	}
	return b.out, nil
}

// builder appends nodes in their final order. Operands are emitted before
// the operation that consumes them, so no sequence is ever reversed.
type builder struct {
	out []*Node
}

func (b *builder) emit(n *Node) {
	b.out = append(b.out, n)
}

func (b *builder) statement(stmt *tree.Node) error {
	switch stmt.Kind {
	case tree.NodeLet:
		if len(stmt.Children) != 1 {
			return malformed(stmt)
		}
		if err := b.expression(stmt.Children[0]); err != nil {
			return err
		}
		b.emit(&Node{Kind: NodeStore, Pos: stmt.Pos, Name: stmt.Name})
		return nil

	case tree.NodeAssign:
		return b.assign(stmt)

	case tree.NodeCall:
		return b.expression(stmt)

	case tree.NodeIf:
		return b.ifStatement(stmt)

	case tree.NodeWhile, tree.NodeDo:
		return b.loop(stmt)
	}

	kind := stmt.Kind.Describe()
	if isValueKind(stmt.Kind) {
		kind = "expression statement"
	}
	return &tree.UnsupportedError{Kind: kind, Pos: stmt.Pos}
}

// compoundOps maps compound assignment operators to the operator they apply.
var compoundOps = map[string]string{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"/=":  "/",
	"%=":  "%",
	"**=": "**",
	"^=":  "^",
	"&=":  "&",
	"|=":  "|",
	"<<=": "<<",
	">>=": ">>",
}

// assign handles `x = E` and compound forms such as `x += E`, which read x,
// apply the operator with E and store the result back.
func (b *builder) assign(stmt *tree.Node) error {
	if len(stmt.Children) != 2 {
		return malformed(stmt)
	}
	target, value := stmt.Children[0], stmt.Children[1]
	if target.Kind != tree.NodeIdent {
		return &tree.AssignTargetError{Pos: target.Pos}
	}

	if stmt.Op == "" || stmt.Op == "=" {
		if err := b.expression(value); err != nil {
			return err
		}
		b.emit(&Node{Kind: NodeStore, Pos: target.Pos, Name: target.Name})
		return nil
	}

	op, ok := compoundOps[stmt.Op]
	if !ok {
		return &tree.UnsupportedError{Kind: "assignment operator " + stmt.Op, Pos: stmt.Pos}
	}
	b.emit(&Node{Kind: NodePush, Pos: target.Pos, Name: target.Name})
	if err := b.expression(value); err != nil {
		return err
	}
	b.emit(&Node{Kind: NodeCall, Pos: stmt.Pos, Name: op})
	b.emit(&Node{Kind: NodeStore, Pos: target.Pos, Name: target.Name})
	return nil
}

func (b *builder) ifStatement(stmt *tree.Node) error {
	if len(stmt.Children) != 2 && len(stmt.Children) != 3 {
		return malformed(stmt)
	}
	for _, branch := range stmt.Children[1:] {
		if branch.Kind != tree.NodeBlock {
			return malformed(stmt)
		}
	}
	condition, err := FlattenExpression(stmt.Children[0])
	if err != nil {
		return err
	}
	succeed, err := Flatten(stmt.Children[1].Children)
	if err != nil {
		return err
	}

	node := &Node{Kind: NodeIf, Pos: stmt.Pos, Condition: condition, Succeed: succeed}
	if len(stmt.Children) == 3 {
		node.Fail, err = Flatten(stmt.Children[2].Children)
		if err != nil {
			return err
		}
		node.HasFail = true
	}
	b.emit(node)
	return nil
}

func (b *builder) loop(stmt *tree.Node) error {
	if len(stmt.Children) != 2 {
		return malformed(stmt)
	}
	cond, body := stmt.Children[0], stmt.Children[1]
	if stmt.Kind == tree.NodeDo {
		cond, body = body, cond
	}
	if body.Kind != tree.NodeBlock {
		return malformed(stmt)
	}

	condition, err := FlattenExpression(cond)
	if err != nil {
		return err
	}
	if stmt.Until {
		condition = append(condition, &Node{Kind: NodeCall, Pos: cond.Pos, Name: CallNot})
	}
	block, err := Flatten(body.Children)
	if err != nil {
		return err
	}

	b.emit(&Node{
		Kind:      NodeWhile,
		Pos:       stmt.Pos,
		DoWhile:   stmt.Kind == tree.NodeDo,
		Condition: condition,
		Block:     block,
	})
	return nil
}

// work is a pending expression to expand or a finished node to emit.
type work struct {
	expr *tree.Node
	node *Node
}

// expression flattens with an explicit work stack so that deeply nested
// expressions do not grow the Go call stack. Items are pushed in reverse of
// the order they must be emitted.
func (b *builder) expression(root *tree.Node) error {
	stack := []work{{expr: root}}

	pushAll := func(items []work) {
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, items[i])
		}
	}

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if w.node != nil {
			b.emit(w.node)
			continue
		}

		e := w.expr
		switch e.Kind {
		case tree.NodeIdent:
			b.emit(&Node{Kind: NodePush, Pos: e.Pos, Name: e.Name})
		case tree.NodeInteger:
			b.emit(&Node{Kind: NodeNumber, Pos: e.Pos, Number: float64(e.Integer)})
		case tree.NodeFloat:
			b.emit(&Node{Kind: NodeNumber, Pos: e.Pos, Number: e.Float})
		case tree.NodeBool:
			b.emit(&Node{Kind: NodeBoolean, Pos: e.Pos, Bool: e.Bool})
		case tree.NodeChar:
			b.emit(&Node{Kind: NodeString, Pos: e.Pos, String: string(e.Char)})
		case tree.NodeString:
			b.emit(&Node{Kind: NodeString, Pos: e.Pos, String: e.String})
		case tree.NodeUnit:
			b.emit(&Node{Kind: NodeUnit, Pos: e.Pos})
		case tree.NodeConst:
			b.emit(&Node{Kind: NodeDynamic, Pos: e.Pos, Const: e.Const})

		case tree.NodeCall:
			name := e.Name
			if len(e.Children) == 1 {
				switch name {
				case "+":
					stack = append(stack, work{expr: e.Children[0]})
					continue
				case "-":
					name = CallNegate
				}
			}
			items := make([]work, 0, len(e.Children)+1)
			for _, arg := range e.Children {
				items = append(items, work{expr: arg})
			}
			items = append(items, work{node: &Node{Kind: NodeCall, Pos: e.Pos, Name: name}})
			pushAll(items)

		case tree.NodeArray:
			// The target has no list literal: push every element, then the
			// count, then gather that many values into a list.
			items := make([]work, 0, len(e.Children)+2)
			for _, elem := range e.Children {
				items = append(items, work{expr: elem})
			}
			items = append(items,
				work{node: &Node{Kind: NodeNumber, Pos: e.Pos, Number: float64(len(e.Children))}},
				work{node: &Node{Kind: NodeCall, Pos: e.Pos, Name: CallListFromStack}},
			)
			pushAll(items)

		case tree.NodeInterp:
			pushAll(interpolation(e))

		default:
			return &tree.UnsupportedError{Kind: e.Kind.Describe(), Pos: e.Pos}
		}
	}
	return nil
}

// interpolation folds the parts of an interpolated string into
// left-associative concatenation: p0, p1, add, p2, add, ...
// Parts that are not string literals are converted to text first.
func interpolation(e *tree.Node) []work {
	if len(e.Children) == 0 {
		return []work{{node: &Node{Kind: NodeString, Pos: e.Pos}}}
	}
	items := make([]work, 0, 3*len(e.Children))
	for i, part := range e.Children {
		items = append(items, work{expr: part})
		if i == 0 {
			continue
		}
		if part.Kind != tree.NodeString && part.Kind != tree.NodeChar {
			items = append(items, work{node: &Node{Kind: NodeCall, Pos: e.Pos, Name: CallToString}})
		}
		items = append(items, work{node: &Node{Kind: NodeCall, Pos: e.Pos, Name: CallConcat}})
	}
	return items
}

func isValueKind(k tree.NodeKind) bool {
	switch k {
	case tree.NodeIdent, tree.NodeInteger, tree.NodeFloat, tree.NodeBool,
		tree.NodeChar, tree.NodeString, tree.NodeUnit, tree.NodeConst,
		tree.NodeArray, tree.NodeInterp:
		return true
	}
	return false
}

func malformed(stmt *tree.Node) error {
	return &tree.UnsupportedError{Kind: "malformed " + stmt.Kind.Describe(), Pos: stmt.Pos}
}
