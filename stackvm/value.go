package stackvm

import (
	"strconv"
	"strings"

	"github.com/Master-Bw3/hexerhai/sexy"
	"github.com/Master-Bw3/hexerhai/target"
)

// Kind represents the kind of a runtime value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindList
	KindPattern // a quoted instruction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Value is anything that can sit on the stack.
type Value struct {
	Kind    Kind
	Bool    bool
	Number  float64
	Text    string
	List    []Value
	Pattern *target.Node
}

func Null() Value            { return Value{Kind: KindNull} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func Text(s string) Value    { return Value{Kind: KindText, Text: s} }

func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindList, List: items}
}

func pattern(n *target.Node) Value {
	return Value{Kind: KindPattern, Pattern: n}
}

// FromConstant converts an embedded constant to a runtime value.
func FromConstant(c target.Value) Value {
	switch c.Kind {
	case target.ValueBool:
		return Bool(c.Bool)
	case target.ValueNumber:
		return Number(c.Number)
	case target.ValueText:
		return Text(c.Text)
	case target.ValueList:
		items := make([]Value, len(c.List))
		for i, item := range c.List {
			items[i] = FromConstant(item)
		}
		return List(items...)
	default:
		return Null()
	}
}

// Equal reports structural equality. Values of different kinds are never
// equal; patterns are equal when they are the same instruction.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Number == o.Number
	case KindText:
		return v.Text == o.Text
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindPattern:
		return v.Pattern == o.Pattern
	}
	return false
}

// Display is how print and string conversion render a value.
func (v Value) Display() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindPattern:
		return v.Pattern.SExpr()
	default:
		return "null"
	}
}

// SExpr renders v so that it reads back with the sexy package: text is
// quoted and list items are separated by spaces.
func (v Value) SExpr() string {
	switch v.Kind {
	case KindText:
		return sexy.Quote(v.Text)
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.SExpr()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return v.Display()
	}
}
