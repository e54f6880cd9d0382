package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/Master-Bw3/hexerhai/flat"
	"github.com/Master-Bw3/hexerhai/stackvm"
	"github.com/Master-Bw3/hexerhai/target"
	"github.com/Master-Bw3/hexerhai/tree"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// unit is one compilation unit: a source file or an inline program.
type unit struct {
	ID     ulid.ULID
	Name   string
	Source string

	Tree   []*tree.Node
	Flat   []*flat.Node
	Target []*target.Node
}

func newUnit(name, source string) *unit {
	return &unit{ID: ulid.Make(), Name: name, Source: source}
}

// compileUnit runs the whole pipeline over u, filling in each stage.
// It stops at the first error.
func compileUnit(u *unit, verbose bool) error {
	if verbose {
		fmt.Printf("[%s] compiling %s\n", u.ID, u.Name)
	}

	stmts, err := tree.ParseSexy(u.Source)
	if err != nil {
		return fmt.Errorf("parsing errors:\n%w", err)
	}
	u.Tree = stmts
	if verbose {
		fmt.Printf("[%s] AST: %s\n", u.ID, tree.ToSExpr(stmts))
	}

	flattened, err := flat.Flatten(stmts)
	if err != nil {
		return err
	}
	u.Flat = flattened
	if verbose {
		fmt.Printf("[%s] flattened to %d nodes\n", u.ID, len(flattened))
	}

	lowered, err := target.Lower(flattened)
	if err != nil {
		return err
	}
	u.Target = lowered
	if verbose {
		fmt.Printf("[%s] lowered to %d instructions\n", u.ID, len(lowered))
	}
	return nil
}

// compileFiles reads and compiles files concurrently. Units come back in
// argument order; the first failure cancels the rest.
func compileFiles(ctx context.Context, filenames []string, verbose bool) ([]*unit, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	units := make([]*unit, len(filenames))
	for i, filename := range filenames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sourceBytes, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("error reading file %s: %w", filename, err)
			}
			u := newUnit(filename, string(sourceBytes))
			if err := compileUnit(u, verbose); err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			units[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// execute runs a compiled unit, printing to out.
func execute(u *unit, out io.Writer, maxSteps int, verbose bool) (*stackvm.VM, error) {
	vm := stackvm.New(out)
	vm.MaxSteps = maxSteps
	err := vm.Run(u.Target)
	if verbose {
		fmt.Printf("[%s] executed %d steps\n", u.ID, vm.Steps())
	}
	return vm, err
}

// formatStack renders the values left on the stack, bottom first.
func formatStack(stack []stackvm.Value) string {
	parts := make([]string, len(stack))
	for i, v := range stack {
		parts[i] = v.SExpr()
	}
	return strings.Join(parts, " ")
}
