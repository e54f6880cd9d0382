package stackvm

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Master-Bw3/hexerhai/target"
)

func (vm *VM) action(n *target.Node) error {
	switch n.Name {
	case "number":
		if n.Value == nil {
			return typeError(n, "missing immediate")
		}
		vm.push(FromConstant(*n.Value))
		return nil
	case "mask":
		return vm.mask(n)

	case "const/true":
		vm.push(Bool(true))
		return nil
	case "const/false":
		vm.push(Bool(false))
		return nil
	case "const/null":
		vm.push(Null())
		return nil
	case "empty_list":
		vm.push(List())
		return nil

	case "duplicate":
		return vm.shuffle(n, 1, func(a []Value) []Value { return []Value{a[0], a[0]} })
	case "over":
		return vm.shuffle(n, 2, func(a []Value) []Value { return []Value{a[0], a[1], a[0]} })
	case "swap":
		return vm.shuffle(n, 2, func(a []Value) []Value { return []Value{a[1], a[0]} })
	case "rotate":
		return vm.shuffle(n, 3, func(a []Value) []Value { return []Value{a[1], a[2], a[0]} })
	case "rotate_reverse":
		return vm.shuffle(n, 3, func(a []Value) []Value { return []Value{a[2], a[0], a[1]} })
	case "duplicate_n":
		return vm.duplicateN(n)

	case "equals":
		return vm.binary(n, func(a, b Value) (Value, error) { return Bool(a.Equal(b)), nil })
	case "not_equals":
		return vm.binary(n, func(a, b Value) (Value, error) { return Bool(!a.Equal(b)), nil })
	case "greater":
		return vm.compare(n, func(a, b float64) bool { return a > b })
	case "less":
		return vm.compare(n, func(a, b float64) bool { return a < b })
	case "greater_eq":
		return vm.compare(n, func(a, b float64) bool { return a >= b })
	case "less_eq":
		return vm.compare(n, func(a, b float64) bool { return a <= b })

	case "add":
		return vm.binary(n, func(a, b Value) (Value, error) { return add(n, a, b) })
	case "subtract":
		return vm.arith(n, func(a, b float64) (float64, error) { return a - b, nil })
	case "mul_dot":
		return vm.arith(n, func(a, b float64) (float64, error) { return a * b, nil })
	case "div_cross":
		return vm.arith(n, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("%s: %s: division by zero: %w", n.Location, n.Name, ErrDomain)
			}
			return a / b, nil
		})
	case "modulo":
		return vm.arith(n, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("%s: %s: modulo by zero: %w", n.Location, n.Name, ErrDomain)
			}
			return math.Mod(a, b), nil
		})
	case "pow_proj":
		return vm.arith(n, func(a, b float64) (float64, error) { return math.Pow(a, b), nil })
	case "negate":
		return vm.unary(n, func(a Value) (Value, error) {
			if a.Kind != KindNumber {
				return Value{}, typeError(n, "expected number, got %s", a.Kind)
			}
			return Number(-a.Number), nil
		})

	case "not":
		return vm.unary(n, func(a Value) (Value, error) {
			if a.Kind != KindBool {
				return Value{}, typeError(n, "expected bool, got %s", a.Kind)
			}
			return Bool(!a.Bool), nil
		})
	case "and":
		return vm.logic(n, func(a, b bool) bool { return a && b })
	case "or":
		return vm.logic(n, func(a, b bool) bool { return a || b })
	case "and_bit":
		return vm.bitwise(n, func(a, b int64) int64 { return a & b })
	case "or_bit":
		return vm.bitwise(n, func(a, b int64) int64 { return a | b })
	case "xor_bit":
		return vm.bitwise(n, func(a, b int64) int64 { return a ^ b })

	case "splat":
		v, err := vm.pop(n)
		if err != nil {
			return err
		}
		if v.Kind != KindList {
			return typeError(n, "expected list, got %s", v.Kind)
		}
		vm.push(v.List...)
		return nil
	case "if":
		args, err := vm.popN(n, 3)
		if err != nil {
			return err
		}
		if args[0].Kind != KindBool {
			return typeError(n, "condition must be a bool, got %s", args[0].Kind)
		}
		if args[0].Bool {
			vm.push(args[1])
		} else {
			vm.push(args[2])
		}
		return nil
	case "eval":
		v, err := vm.pop(n)
		if err != nil {
			return err
		}
		if v.Kind == KindList {
			return vm.execValues(v.List)
		}
		return vm.execValues([]Value{v})
	case "close_paren":
		return fmt.Errorf("%s: %w", n.Location, ErrUnbalanced)

	case "index_of":
		return vm.binary(n, func(coll, x Value) (Value, error) { return indexOf(n, coll, x) })
	case "list_size":
		return vm.unary(n, func(a Value) (Value, error) {
			switch a.Kind {
			case KindList:
				return Number(float64(len(a.List))), nil
			case KindText:
				return Number(float64(utf8.RuneCountInString(a.Text))), nil
			}
			return Value{}, typeError(n, "expected list or text, got %s", a.Kind)
		})
	case "append":
		return vm.binary(n, func(list, x Value) (Value, error) {
			if list.Kind != KindList {
				return Value{}, typeError(n, "expected list, got %s", list.Kind)
			}
			items := make([]Value, len(list.List), len(list.List)+1)
			copy(items, list.List)
			return List(append(items, x)...), nil
		})
	case "singleton":
		return vm.unary(n, func(a Value) (Value, error) { return List(a), nil })
	case "last_n_list":
		count, err := vm.popCount(n)
		if err != nil {
			return err
		}
		items, err := vm.popN(n, count)
		if err != nil {
			return err
		}
		vm.push(List(items...))
		return nil

	case "print":
		if len(vm.Stack) == 0 {
			return fmt.Errorf("%s: %s: %w", n.Location, n.Name, ErrStackUnderflow)
		}
		if vm.Out != nil {
			fmt.Fprintln(vm.Out, vm.Stack[len(vm.Stack)-1].Display())
		}
		return nil
	case "string/iota":
		return vm.unary(n, func(a Value) (Value, error) { return Text(a.Display()), nil })
	case "string/add":
		return vm.binary(n, func(a, b Value) (Value, error) { return Text(a.Display() + b.Display()), nil })
	}

	return fmt.Errorf("%s: %w: %s", n.Location, ErrUnknownAction, n.Name)
}

// shuffle pops count values and pushes whatever rearrange returns.
func (vm *VM) shuffle(n *target.Node, count int, rearrange func([]Value) []Value) error {
	args, err := vm.popN(n, count)
	if err != nil {
		return err
	}
	vm.push(rearrange(args)...)
	return nil
}

func (vm *VM) unary(n *target.Node, f func(Value) (Value, error)) error {
	a, err := vm.pop(n)
	if err != nil {
		return err
	}
	result, err := f(a)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) binary(n *target.Node, f func(a, b Value) (Value, error)) error {
	args, err := vm.popN(n, 2)
	if err != nil {
		return err
	}
	result, err := f(args[0], args[1])
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) arith(n *target.Node, f func(a, b float64) (float64, error)) error {
	return vm.binary(n, func(a, b Value) (Value, error) {
		if a.Kind != KindNumber || b.Kind != KindNumber {
			return Value{}, typeError(n, "expected numbers, got %s and %s", a.Kind, b.Kind)
		}
		r, err := f(a.Number, b.Number)
		if err != nil {
			return Value{}, err
		}
		return Number(r), nil
	})
}

func (vm *VM) compare(n *target.Node, f func(a, b float64) bool) error {
	return vm.binary(n, func(a, b Value) (Value, error) {
		if a.Kind != KindNumber || b.Kind != KindNumber {
			return Value{}, typeError(n, "expected numbers, got %s and %s", a.Kind, b.Kind)
		}
		return Bool(f(a.Number, b.Number)), nil
	})
}

func (vm *VM) logic(n *target.Node, f func(a, b bool) bool) error {
	return vm.binary(n, func(a, b Value) (Value, error) {
		if a.Kind != KindBool || b.Kind != KindBool {
			return Value{}, typeError(n, "expected bools, got %s and %s", a.Kind, b.Kind)
		}
		return Bool(f(a.Bool, b.Bool)), nil
	})
}

func (vm *VM) bitwise(n *target.Node, f func(a, b int64) int64) error {
	return vm.binary(n, func(a, b Value) (Value, error) {
		if n.Name == "xor_bit" && a.Kind == KindBool && b.Kind == KindBool {
			return Bool(a.Bool != b.Bool), nil
		}
		x, err := integer(n, a)
		if err != nil {
			return Value{}, err
		}
		y, err := integer(n, b)
		if err != nil {
			return Value{}, err
		}
		return Number(float64(f(x, y))), nil
	})
}

// integer reads v as a whole number; booleans count as 0 and 1.
func integer(n *target.Node, v Value) (int64, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindNumber:
		if v.Number != math.Trunc(v.Number) || math.IsInf(v.Number, 0) {
			return 0, typeError(n, "expected integer, got %v", v.Number)
		}
		if math.Abs(v.Number) >= 1<<63 {
			return 0, fmt.Errorf("%s: %s: %v out of integer range: %w", n.Location, n.Name, v.Number, ErrDomain)
		}
		return int64(v.Number), nil
	}
	return 0, typeError(n, "expected integer, got %s", v.Kind)
}

// popCount pops a non-negative whole number.
func (vm *VM) popCount(n *target.Node) (int, error) {
	v, err := vm.pop(n)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, typeError(n, "expected count, got %s", v.Kind)
	}
	count, err := integer(n, v)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, fmt.Errorf("%s: %s: negative count %d: %w", n.Location, n.Name, count, ErrDomain)
	}
	return int(count), nil
}

func (vm *VM) duplicateN(n *target.Node) error {
	v, err := vm.pop(n)
	if err != nil {
		return err
	}
	if v.Kind != KindNumber {
		return typeError(n, "expected count, got %s", v.Kind)
	}
	count, err := integer(n, v)
	if err != nil {
		return err
	}
	x, err := vm.pop(n)
	if err != nil {
		return err
	}
	if err := vm.charge(n, count); err != nil {
		return err
	}
	for i := int64(0); i < count; i++ {
		vm.push(x)
	}
	return nil
}

func (vm *VM) mask(n *target.Node) error {
	args, err := vm.popN(n, len(n.Mask))
	if err != nil {
		return err
	}
	for i, c := range []byte(n.Mask) {
		switch c {
		case '-':
			vm.push(args[i])
		case 'v':
		default:
			return fmt.Errorf("%s: %s: bad mask character %q: %w", n.Location, n.Name, c, ErrDomain)
		}
	}
	return nil
}

func add(n *target.Node, a, b Value) (Value, error) {
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return Number(a.Number + b.Number), nil
	case a.Kind == KindText && b.Kind == KindText:
		return Text(a.Text + b.Text), nil
	case a.Kind == KindList && b.Kind == KindList:
		items := make([]Value, 0, len(a.List)+len(b.List))
		items = append(items, a.List...)
		return List(append(items, b.List...)...), nil
	}
	return Value{}, typeError(n, "cannot add %s and %s", a.Kind, b.Kind)
}

func indexOf(n *target.Node, coll, x Value) (Value, error) {
	switch coll.Kind {
	case KindList:
		for i, item := range coll.List {
			if item.Equal(x) {
				return Number(float64(i)), nil
			}
		}
		return Number(-1), nil
	case KindText:
		if x.Kind != KindText {
			return Value{}, typeError(n, "expected text to search for, got %s", x.Kind)
		}
		i := strings.Index(coll.Text, x.Text)
		if i < 0 {
			return Number(-1), nil
		}
		return Number(float64(utf8.RuneCountInString(coll.Text[:i]))), nil
	}
	return Value{}, typeError(n, "expected list or text, got %s", coll.Kind)
}
