package tree

import (
	"testing"

	"github.com/nalgeon/be"
)

func parseOne(t *testing.T, src string) *Node {
	t.Helper()
	stmts, err := ParseSexy(src)
	be.Err(t, err, nil)
	be.Equal(t, len(stmts), 1)
	return stmts[0]
}

func TestParseLet(t *testing.T) {
	stmt := parseOne(t, `(let "x" (call "+" 1 2.5))`)
	be.Equal(t, stmt.Kind, NodeLet)
	be.Equal(t, stmt.Name, "x")
	be.Equal(t, stmt.Pos, Position{Line: 1, Column: 1})

	call := stmt.Children[0]
	be.Equal(t, call.Kind, NodeCall)
	be.Equal(t, call.Name, "+")
	be.Equal(t, len(call.Children), 2)
	be.Equal(t, call.Children[0].Integer, int64(1))
	be.Equal(t, call.Children[1].Float, 2.5)
	be.Equal(t, call.Children[1].Pos, Position{Line: 1, Column: 22})
}

func TestParseAtoms(t *testing.T) {
	tests := []struct {
		src  string
		kind NodeKind
	}{
		{`(call "f" 1)`, NodeCall},
		{`(call "f" 1.0)`, NodeCall},
		{`(call "f" "s")`, NodeCall},
		{`(call "f" true)`, NodeCall},
		{`(call "f" unit)`, NodeCall},
		{`(call "f" (char "c"))`, NodeCall},
		{`(call "f" [1 2])`, NodeCall},
	}
	want := []NodeKind{NodeInteger, NodeFloat, NodeString, NodeBool, NodeUnit, NodeChar, NodeArray}

	for i, tt := range tests {
		stmt := parseOne(t, tt.src)
		be.Equal(t, stmt.Kind, tt.kind)
		be.Equal(t, stmt.Children[0].Kind, want[i])
	}
}

func TestParseAssign(t *testing.T) {
	stmt := parseOne(t, `(assign "+=" (var "x") 1)`)
	be.Equal(t, stmt.Kind, NodeAssign)
	be.Equal(t, stmt.Op, "+=")
	be.Equal(t, stmt.Children[0].Kind, NodeIdent)
	be.Equal(t, stmt.Children[0].Name, "x")
}

func TestParseControlFlow(t *testing.T) {
	stmt := parseOne(t, `(if true (block (call "print" 1)) (block))`)
	be.Equal(t, stmt.Kind, NodeIf)
	be.Equal(t, len(stmt.Children), 3)
	be.Equal(t, stmt.Children[1].Kind, NodeBlock)

	stmt = parseOne(t, `(while (call "<" (var "i") 3) (block))`)
	be.Equal(t, stmt.Kind, NodeWhile)

	stmt = parseOne(t, `(do-until (block) (var "done"))`)
	be.Equal(t, stmt.Kind, NodeDo)
	be.True(t, stmt.Until)

	stmt = parseOne(t, `(do-while (block) (var "more"))`)
	be.Equal(t, stmt.Kind, NodeDo)
	be.True(t, !stmt.Until)
}

func TestParseConst(t *testing.T) {
	stmt := parseOne(t, `(let "c" (const [1 "a" true (char "z") unit 2.5]))`)
	c := stmt.Children[0]
	be.Equal(t, c.Kind, NodeConst)
	be.Equal(t, c.Const, any([]any{int64(1), "a", true, Char('z'), nil, 2.5}))
}

func TestParseUnsupportedForms(t *testing.T) {
	stmt := parseOne(t, `(switch (var "x"))`)
	be.Equal(t, stmt.Kind, NodeSwitch)

	stmt = parseOne(t, `(let "y" (index (var "a") 0))`)
	be.Equal(t, stmt.Children[0].Kind, NodeIndex)

	stmt = parseOne(t, `(let "z" this)`)
	be.Equal(t, stmt.Children[0].Kind, NodeThis)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(frob 1)`, `1:1: unknown form "frob"`},
		{`(let "x")`, "1:1: let takes 2 argument(s)"},
		{`(let x 1)`, "1:6"},
		{`(if true 1)`, "1:10: if branches must be blocks"},
		{`(while true 1)`, "1:13: while body must be a block"},
		{`(call "f" (char "ab"))`, "exactly one character"},
		{`(call "f" nope)`, `unknown symbol "nope"`},
		{`(let "x"`, "expected"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := ParseSexy(tt.src)
			be.Err(t, err, tt.want)
		})
	}
}

func TestToSExprRoundTrip(t *testing.T) {
	src := `(let "x" (call "+" 1 2.0))
(assign "*=" (var "x") (call "-" (var "x")))
(if (call "==" (var "x") 3) (block (call "print" (interp "x=" (var "x")))) (block))
(while false (block))
(do-until (block (call "print" [1 (char "c") "s"])) true)
(let "c" (const [1 "a"]))
(switch unit)`

	stmts, err := ParseSexy(src)
	be.Err(t, err, nil)
	be.Equal(t, ToSExpr(stmts), src)
}

func TestDescribe(t *testing.T) {
	be.Equal(t, NodeSwitch.Describe(), "switch statement")
	be.Equal(t, NodeIndex.Describe(), "indexing")
	be.Equal(t, NodeBlock.Describe(), "nested block")
	be.Equal(t, NodeLet.Describe(), "NodeLet")
}

func TestErrorMessages(t *testing.T) {
	err := &UnsupportedError{Kind: "switch statement", Pos: Position{Line: 3, Column: 7}}
	be.Equal(t, err.Error(), "3:7: unsupported construct: switch statement")

	target := &AssignTargetError{Pos: Position{Line: 1, Column: 2}}
	be.Equal(t, target.Error(), "1:2: assignment target must be a variable")
}
