package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/Master-Bw3/hexerhai/sexy"
	"github.com/Master-Bw3/hexerhai/stackvm"
	"github.com/Master-Bw3/hexerhai/target"
	"github.com/peterh/liner"
)

const (
	historyFile = ".hexer_history"
	promptMain  = "hex> "
	promptCont  = "...> "
)

// session is the state a REPL keeps between inputs. Variables and the
// stack carry over from one input to the next.
type session struct {
	vm         *stackvm.VM
	out        io.Writer
	showTarget bool
	verbose    bool
}

func newSession(out io.Writer, maxSteps int, verbose bool) *session {
	vm := stackvm.New(out)
	vm.MaxSteps = maxSteps
	return &session{vm: vm, out: out, verbose: verbose}
}

// eval compiles and runs one input. Errors are reported to out and leave the
// session usable.
func (s *session) eval(code string) {
	u := newUnit("<repl>", code)
	if err := compileUnit(u, s.verbose); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if s.showTarget {
		fmt.Fprintln(s.out, target.ToSExpr(u.Target))
	}
	if err := s.vm.Run(u.Target); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if len(s.vm.Stack) > 0 {
		fmt.Fprintf(s.out, "stack: %s\n", formatStack(s.vm.Stack))
	}
}

// command handles a ":" line. It reports false when the session should end.
func (s *session) command(line string) bool {
	switch strings.TrimSpace(strings.ToLower(line)) {
	case ":quit", ":q":
		return false
	case ":stack":
		fmt.Fprintf(s.out, "stack: %s\n", formatStack(s.vm.Stack))
	case ":vars":
		names := make([]string, 0, len(s.vm.Vars))
		for name := range s.vm.Vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "%s = %s\n", name, s.vm.Vars[name].SExpr())
		}
	case ":clear":
		s.vm.Stack = s.vm.Stack[:0]
	case ":target":
		s.showTarget = !s.showTarget
		fmt.Fprintf(s.out, "show target: %v\n", s.showTarget)
	default:
		fmt.Fprintf(s.out, "unknown command. Try :stack, :vars, :clear, :target or :quit.\n")
	}
	return true
}

func replCommand(args []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	steps := fs.Int("steps", stackvm.DefaultMaxSteps, "Maximum instructions per input (0 for no limit)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexer repl [-v] [-steps n]\n")
		fmt.Fprintf(os.Stderr, "Start an interactive session\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	fmt.Println("hexer repl. Enter statements as S-expressions, :quit to exit.")

	s := newSession(os.Stdout, *steps, *verbose)
	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if !s.command(code) {
				return
			}
			continue
		}
		s.eval(code)
	}
}

// readInput keeps prompting while the text so far ends inside a form.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			// io.EOF on ^D, liner.ErrPromptAborted on ^C
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := sexy.ParseAll(src); errors.Is(err, sexy.ErrIncomplete) {
			continue
		}
		return src, true
	}
}
