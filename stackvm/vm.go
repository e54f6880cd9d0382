// Package stackvm is a reference interpreter for target instruction
// sequences. It defines what each instruction does to the stack and is used
// to check that lowered programs compute what their source means.
package stackvm

import (
	"errors"
	"fmt"
	"io"

	"github.com/Master-Bw3/hexerhai/target"
)

var (
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrType              = errors.New("type mismatch")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrStepLimit         = errors.New("step limit exceeded")
	ErrUnbalanced        = errors.New("unbalanced parentheses")
	ErrDomain            = errors.New("invalid operand")
)

// DefaultMaxSteps bounds a run so that a non-terminating loop fails.
const DefaultMaxSteps = 1_000_000

// VM executes target instructions against a single stack.
type VM struct {
	Stack []Value
	Vars  map[string]Value
	Out   io.Writer

	// MaxSteps limits executed instructions; zero means no limit.
	MaxSteps int
	steps    int
}

// New creates a VM that prints to out.
func New(out io.Writer) *VM {
	return &VM{
		Stack:    []Value{},
		Vars:     map[string]Value{},
		Out:      out,
		MaxSteps: DefaultMaxSteps,
	}
}

// Run executes nodes in order. The stack and variables persist between runs.
func (vm *VM) Run(nodes []*target.Node) error {
	vm.steps = 0
	return vm.exec(nodes)
}

// Steps reports how many instructions the last Run executed.
func (vm *VM) Steps() int {
	return vm.steps
}

func (vm *VM) exec(nodes []*target.Node) error {
	values := make([]Value, len(nodes))
	for i, n := range nodes {
		values[i] = pattern(n)
	}
	return vm.execValues(values)
}

// execValues runs a sequence of patterns. An open_paren quotes everything
// up to its matching close_paren into a list instead of running it.
// Non-pattern values are pushed as they are.
func (vm *VM) execValues(values []Value) error {
	for i := 0; i < len(values); i++ {
		v := values[i]
		if v.Kind != KindPattern {
			vm.push(v)
			continue
		}
		if isAction(v.Pattern, "open_paren") {
			end, err := matchParen(values, i)
			if err != nil {
				return err
			}
			quoted := make([]Value, end-i-1)
			copy(quoted, values[i+1:end])
			vm.push(List(quoted...))
			i = end
			continue
		}
		if err := vm.step(v.Pattern); err != nil {
			return err
		}
	}
	return nil
}

func matchParen(values []Value, open int) (int, error) {
	depth := 0
	for i := open; i < len(values); i++ {
		if values[i].Kind != KindPattern {
			continue
		}
		switch {
		case isAction(values[i].Pattern, "open_paren"):
			depth++
		case isAction(values[i].Pattern, "close_paren"):
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%s: %w", values[open].Pattern.Location, ErrUnbalanced)
}

func isAction(n *target.Node, name string) bool {
	return n.Kind == target.NodeAction && n.Name == name
}

func (vm *VM) step(n *target.Node) error {
	vm.steps++
	if vm.MaxSteps > 0 && vm.steps > vm.MaxSteps {
		return fmt.Errorf("%s: %w", n.Location, ErrStepLimit)
	}

	switch n.Kind {
	case target.NodeOp:
		return vm.op(n)
	case target.NodeAction:
		return vm.action(n)
	case target.NodeBlock:
		return vm.exec(n.Nodes)

	case target.NodeIf:
		cond, err := vm.condition(n, n.Condition)
		if err != nil {
			return err
		}
		if cond {
			return vm.exec(n.Succeed.Nodes)
		}
		if n.Fail != nil {
			return vm.exec(n.Fail.Nodes)
		}
		return nil

	case target.NodeWhile:
		if n.DoWhile {
			if err := vm.exec(n.Body.Nodes); err != nil {
				return err
			}
		}
		for {
			cond, err := vm.condition(n, n.Condition)
			if err != nil {
				return err
			}
			if !cond {
				return nil
			}
			if err := vm.exec(n.Body.Nodes); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s: %w: node kind %s", n.Location, ErrUnknownAction, n.Kind)
}

// condition runs a condition block and pops the boolean it leaves.
func (vm *VM) condition(n *target.Node, block *target.Node) (bool, error) {
	if err := vm.exec(block.Nodes); err != nil {
		return false, err
	}
	v, err := vm.pop(n)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBool {
		return false, typeError(n, "condition must be a bool, got %s", v.Kind)
	}
	return v.Bool, nil
}

func (vm *VM) op(n *target.Node) error {
	switch n.Name {
	case target.OpEmbed:
		vm.push(FromConstant(*n.Value))
		return nil
	case target.OpStore:
		v, err := vm.pop(n)
		if err != nil {
			return err
		}
		vm.Vars[n.Var] = v
		return nil
	case target.OpPush:
		v, ok := vm.Vars[n.Var]
		if !ok {
			return fmt.Errorf("%s: %w: %s", n.Location, ErrUndefinedVariable, n.Var)
		}
		vm.push(v)
		return nil
	}
	return fmt.Errorf("%s: %w: op %s", n.Location, ErrUnknownAction, n.Name)
}

// charge counts extra work done by a single instruction against MaxSteps.
func (vm *VM) charge(n *target.Node, count int64) error {
	if count <= 0 {
		return nil
	}
	if vm.MaxSteps > 0 && count > int64(vm.MaxSteps-vm.steps) {
		vm.steps = vm.MaxSteps + 1
		return fmt.Errorf("%s: %w", n.Location, ErrStepLimit)
	}
	vm.steps += int(count)
	return nil
}

func (vm *VM) push(values ...Value) {
	vm.Stack = append(vm.Stack, values...)
}

func (vm *VM) pop(n *target.Node) (Value, error) {
	values, err := vm.popN(n, 1)
	if err != nil {
		return Value{}, err
	}
	return values[0], nil
}

// popN removes count values and returns them deepest first.
func (vm *VM) popN(n *target.Node, count int) ([]Value, error) {
	if count > len(vm.Stack) {
		return nil, fmt.Errorf("%s: %s: %w", n.Location, n.Name, ErrStackUnderflow)
	}
	start := len(vm.Stack) - count
	values := make([]Value, count)
	copy(values, vm.Stack[start:])
	vm.Stack = vm.Stack[:start]
	return values, nil
}

func typeError(n *target.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %s: %w", n.Location, n.Name, fmt.Sprintf(format, args...), ErrType)
}
