package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Master-Bw3/hexerhai/flat"
	"github.com/Master-Bw3/hexerhai/stackvm"
	"github.com/Master-Bw3/hexerhai/target"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `hexer - lowers programs to stack-machine instructions

Usage:
    hexer <command> [arguments]

Commands:
    flatten <file>...  Print the flat IR of .hex files
    lower <file>...    Lower .hex files to target instructions
    run <file>         Compile and execute a .hex file
    eval <code>        Evaluate an inline program
    check <file>...    Compile .hex files and report errors only
    repl               Start an interactive session
    help               Show this help message

Examples:
    hexer run examples/sum.hex
    hexer lower -o sum.target sum.hex
    hexer eval '(call "print" (call "+" 1 2))'
    hexer check a.hex b.hex

Use "hexer <command> -h" for more information about a command.
`)
}

func flattenCommand(args []string) {
	fs := flag.NewFlagSet("flatten", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexer flatten [-v] <file>...\n")
		fmt.Fprintf(os.Stderr, "Print the flat IR of .hex files\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	units, err := compileFiles(context.Background(), fs.Args(), *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	for _, u := range units {
		if len(units) > 1 {
			fmt.Printf("; %s\n", u.Name)
		}
		fmt.Println(flat.ToSExpr(u.Flat))
	}
}

func lowerCommand(args []string) {
	fs := flag.NewFlagSet("lower", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.target, - for stdout)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexer lower [-o output] [-v] <file>...\n")
		fmt.Fprintf(os.Stderr, "Lower .hex files to target instructions\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	if *output != "" && *output != "-" && fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: -o needs exactly one input file\n")
		os.Exit(1)
	}

	units, err := compileFiles(context.Background(), fs.Args(), *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	for _, u := range units {
		text := target.ToSExpr(u.Target) + "\n"
		if *output == "-" {
			fmt.Print(text)
			continue
		}

		outputFile := *output
		if outputFile == "" {
			outputFile = strings.TrimSuffix(u.Name, ".hex") + ".target"
		}
		if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s (%d instructions)\n", outputFile, len(u.Target))
	}
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	steps := fs.Int("steps", stackvm.DefaultMaxSteps, "Maximum instructions to execute (0 for no limit)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexer run [-v] [-steps n] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile and execute a .hex file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	units, err := compileFiles(context.Background(), fs.Args(), *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Executing...\n")
	}
	if _, err := execute(units[0], os.Stdout, *steps, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
}

func evalCommand(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	steps := fs.Int("steps", stackvm.DefaultMaxSteps, "Maximum instructions to execute (0 for no limit)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexer eval [-v] [-steps n] <code>\n")
		fmt.Fprintf(os.Stderr, "Evaluate an inline program and show what it leaves on the stack\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one code argument\n")
		fs.Usage()
		os.Exit(1)
	}

	code := fs.Arg(0)

	if *verbose {
		fmt.Printf("Evaluating: %s\n", code)
	}

	u := newUnit("<eval>", code)
	if err := compileUnit(u, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	vm, err := execute(u, os.Stdout, *steps, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
	if len(vm.Stack) > 0 {
		fmt.Printf("stack: %s\n", formatStack(vm.Stack))
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexer check [-v] <file>...\n")
		fmt.Fprintf(os.Stderr, "Compile .hex files and report errors only\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	units, err := compileFiles(context.Background(), fs.Args(), *verbose)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	for _, u := range units {
		fmt.Printf("%s: no errors found\n", u.Name)
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "flatten":
		flattenCommand(args)
	case "lower":
		lowerCommand(args)
	case "run":
		runCommand(args)
	case "eval":
		evalCommand(args)
	case "check":
		checkCommand(args)
	case "repl":
		replCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
