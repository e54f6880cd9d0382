package flat

import (
	"errors"
	"testing"

	"github.com/Master-Bw3/hexerhai/tree"
	"github.com/nalgeon/be"
)

func flatten(t *testing.T, src string) string {
	t.Helper()
	stmts, err := tree.ParseSexy(src)
	be.Err(t, err, nil)
	nodes, err := Flatten(stmts)
	be.Err(t, err, nil)
	return ToSExpr(nodes)
}

func TestFlattenLet(t *testing.T) {
	got := flatten(t, `(let "x" (call "+" 1 (call "*" 2 3)))`)
	be.Equal(t, got, `(number 1)
(number 2)
(number 3)
(call "*")
(call "+")
(store "x")`)
}

func TestFlattenOperandOrder(t *testing.T) {
	// (a - b) - c: left operand first, operator last
	got := flatten(t, `(let "r" (call "-" (call "-" (var "a") (var "b")) (var "c")))`)
	be.Equal(t, got, `(push "a")
(push "b")
(call "-")
(push "c")
(call "-")
(store "r")`)
}

func TestFlattenAssign(t *testing.T) {
	be.Equal(t, flatten(t, `(assign "=" (var "x") 5)`), "(number 5)\n(store \"x\")")
	be.Equal(t, flatten(t, `(assign "+=" (var "x") 1)`), `(push "x")
(number 1)
(call "+")
(store "x")`)
	be.Equal(t, flatten(t, `(assign "**=" (var "x") 2)`), `(push "x")
(number 2)
(call "**")
(store "x")`)
}

func TestFlattenUnary(t *testing.T) {
	be.Equal(t, flatten(t, `(let "n" (call "-" (var "x")))`), "(push \"x\")\n(call \"neg\")\n(store \"n\")")
	be.Equal(t, flatten(t, `(let "p" (call "+" (var "x")))`), "(push \"x\")\n(store \"p\")")
	be.Equal(t, flatten(t, `(let "b" (call "!" true))`), "(bool true)\n(call \"!\")\n(store \"b\")")
}

func TestFlattenLiterals(t *testing.T) {
	got := flatten(t, `(call "f" 1.5 "s" (char "c") unit false (const [1 (char "z")]))`)
	be.Equal(t, got, `(number 1.5)
(string "s")
(string "c")
(unit)
(bool false)
(const [1 (char "z")])
(call "f")`)
}

func TestFlattenArray(t *testing.T) {
	be.Equal(t, flatten(t, `(let "a" [1 (var "x") 3])`), `(number 1)
(push "x")
(number 3)
(number 3)
(call "last_n_list")
(store "a")`)
	be.Equal(t, flatten(t, `(let "e" [])`), "(number 0)\n(call \"last_n_list\")\n(store \"e\")")
}

func TestFlattenInterpolation(t *testing.T) {
	got := flatten(t, `(let "s" (interp "n=" (var "n") "!" (char "?")))`)
	be.Equal(t, got, `(string "n=")
(push "n")
(call "string/iota")
(call "string/add")
(string "!")
(call "string/add")
(string "?")
(call "string/add")
(store "s")`)

	be.Equal(t, flatten(t, `(let "s" (interp))`), "(string \"\")\n(store \"s\")")
	be.Equal(t, flatten(t, `(let "s" (interp (var "n")))`), "(push \"n\")\n(store \"s\")")
}

func TestFlattenIf(t *testing.T) {
	got := flatten(t, `(if (call ">" (var "x") 0) (block (call "print" 1)) (block (call "print" 2)))`)
	be.Equal(t, got, `(if (cond (push "x") (number 0) (call ">")) (then (number 1) (call "print")) (else (number 2) (call "print")))`)

	got = flatten(t, `(if true (block))`)
	be.Equal(t, got, `(if (cond (bool true)) (then))`)
}

func TestFlattenLoops(t *testing.T) {
	got := flatten(t, `(while (call "<" (var "i") 3) (block (assign "+=" (var "i") 1)))`)
	be.Equal(t, got, `(while (cond (push "i") (number 3) (call "<")) (body (push "i") (number 1) (call "+") (store "i")))`)

	got = flatten(t, `(do-while (block (call "print" 1)) false)`)
	be.Equal(t, got, `(do-while (cond (bool false)) (body (number 1) (call "print")))`)

	got = flatten(t, `(do-until (block) (var "done"))`)
	be.Equal(t, got, `(do-while (cond (push "done") (call "!")) (body))`)
}

func TestFlattenPositions(t *testing.T) {
	stmts, err := tree.ParseSexy("(let \"x\"\n  (call \"+\" 1 2))")
	be.Err(t, err, nil)
	nodes, err := Flatten(stmts)
	be.Err(t, err, nil)
	be.Equal(t, nodes[0].Pos, tree.Position{Line: 2, Column: 13})
	be.Equal(t, nodes[2].Pos, tree.Position{Line: 2, Column: 3})
	be.Equal(t, nodes[3].Pos, tree.Position{Line: 1, Column: 1})
}

func TestFlattenUnsupported(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(switch (var "x"))`, "1:1: unsupported construct: switch statement"},
		{`(let "y" (index (var "a") 0))`, "1:10: unsupported construct: indexing"},
		{`(let "y" (and true false))`, "1:10: unsupported construct: short-circuit &&"},
		{`(let "y" this)`, "1:10: unsupported construct: this"},
		{`(block)`, "1:1: unsupported construct: nested block"},
		{`(var "x")`, "1:1: unsupported construct: expression statement"},
		{`(assign "=" (index (var "a") 0) 1)`, "1:13: assignment target must be a variable"},
		{`(if true (block (return)))`, "1:17: unsupported construct: return statement"},
		{`(let "y" [1 (map)])`, "1:13: unsupported construct: map literal"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts, err := tree.ParseSexy(tt.src)
			be.Err(t, err, nil)
			nodes, err := Flatten(stmts)
			be.True(t, nodes == nil)
			be.Equal(t, err.Error(), tt.want)
		})
	}
}

func TestFlattenFirstErrorWins(t *testing.T) {
	src := `(let "a" 1)
(let "b" (index (var "a") 0))
(switch (var "a"))
(let "c" 2)`
	stmts, err := tree.ParseSexy(src)
	be.Err(t, err, nil)

	nodes, err := Flatten(stmts)
	be.True(t, nodes == nil)

	var unsupported *tree.UnsupportedError
	be.True(t, errors.As(err, &unsupported))
	be.Equal(t, unsupported.Kind, "indexing")
	be.Equal(t, unsupported.Pos, tree.Position{Line: 2, Column: 10})
}

func TestFlattenAssignTargetError(t *testing.T) {
	stmts := []*tree.Node{{
		Kind: tree.NodeAssign,
		Op:   "+=",
		Children: []*tree.Node{
			{Kind: tree.NodeInteger, Pos: tree.Position{Line: 4, Column: 2}, Integer: 1},
			{Kind: tree.NodeInteger, Integer: 2},
		},
	}}
	_, err := Flatten(stmts)

	var target *tree.AssignTargetError
	be.True(t, errors.As(err, &target))
	be.Equal(t, target.Pos, tree.Position{Line: 4, Column: 2})
}

func TestFlattenBadAssignOperator(t *testing.T) {
	for _, op := range []string{"+", "<=", ">=", "==", "!="} {
		t.Run(op, func(t *testing.T) {
			stmts, err := tree.ParseSexy(`(assign "` + op + `" (var "x") 1)`)
			be.Err(t, err, nil)
			nodes, err := Flatten(stmts)
			be.True(t, nodes == nil)
			be.Err(t, err, "1:1: unsupported construct: assignment operator "+op)
		})
	}
}

func TestFlattenCompoundOperators(t *testing.T) {
	tests := []struct {
		op   string
		call string
	}{
		{"**=", "**"},
		{"<<=", "<<"},
		{"|=", "|"},
		{"%=", "%"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got := flatten(t, `(assign "`+tt.op+`" (var "x") 2)`)
			be.Equal(t, got, "(push \"x\")\n(number 2)\n(call \""+tt.call+"\")\n(store \"x\")")
		})
	}
}

func TestFlattenBranchMustBeBlock(t *testing.T) {
	call := func(name string, args ...*tree.Node) *tree.Node {
		return &tree.Node{Kind: tree.NodeCall, Name: name, Children: args}
	}
	cond := &tree.Node{Kind: tree.NodeBool, Bool: true}
	block := &tree.Node{Kind: tree.NodeBlock}
	at := tree.Position{Line: 3, Column: 5}

	tests := []struct {
		name string
		stmt *tree.Node
		want string
	}{
		{"if then", &tree.Node{Kind: tree.NodeIf, Pos: at, Children: []*tree.Node{
			cond, call("print", call("f")),
		}}, "malformed NodeIf"},
		{"if else", &tree.Node{Kind: tree.NodeIf, Pos: at, Children: []*tree.Node{
			cond, block, call("f"),
		}}, "malformed NodeIf"},
		{"while body", &tree.Node{Kind: tree.NodeWhile, Pos: at, Children: []*tree.Node{
			cond, call("f"),
		}}, "malformed NodeWhile"},
		{"do body", &tree.Node{Kind: tree.NodeDo, Pos: at, Children: []*tree.Node{
			call("f"), cond,
		}}, "malformed NodeDo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := Flatten([]*tree.Node{tt.stmt})
			be.True(t, nodes == nil)

			var unsupported *tree.UnsupportedError
			be.True(t, errors.As(err, &unsupported))
			be.Equal(t, unsupported.Kind, tt.want)
			be.Equal(t, unsupported.Pos, at)
		})
	}
}

func TestFlattenDeepExpression(t *testing.T) {
	// a long chain of nested additions must not depend on Go stack depth
	expr := &tree.Node{Kind: tree.NodeInteger, Integer: 0}
	const depth = 100000
	for i := 0; i < depth; i++ {
		expr = &tree.Node{
			Kind:     tree.NodeCall,
			Name:     "+",
			Children: []*tree.Node{expr, {Kind: tree.NodeInteger, Integer: 1}},
		}
	}
	nodes, err := FlattenExpression(expr)
	be.Err(t, err, nil)
	be.Equal(t, len(nodes), 2*depth+1)
	be.Equal(t, nodes[0].Kind, NodeNumber)
	be.Equal(t, nodes[len(nodes)-1].Name, "+")
}

func TestFlattenEmpty(t *testing.T) {
	nodes, err := Flatten(nil)
	be.Err(t, err, nil)
	be.True(t, nodes != nil)
	be.Equal(t, len(nodes), 0)
}
