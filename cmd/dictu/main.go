// Command dictu runs Dictu source files and hosts an interactive REPL
// (SPEC_FULL.md §6.4).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/dictu-lang/dictu-go/internal/compiler"
	"github.com/dictu-lang/dictu-go/internal/gc"
	"github.com/dictu-lang/dictu-go/internal/vm"

	_ "github.com/dictu-lang/dictu-go/internal/natives/corelib"
	_ "github.com/dictu-lang/dictu-go/internal/natives/datetimemod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/envmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/filemod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/httpmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/jsonmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/mathmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/pathmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/randmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/socketmod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/sqlitemod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/sysmod"
)

const (
	exitOK      = 0
	exitCompile = 65
	exitRuntime = 70
	exitIO      = 74
)

func styled(s string, color termenv.Color) string {
	return termenv.String(s).Foreground(color).String()
}

// colorWriter colorizes every write it receives, used as the VM's ErrOut so
// the VM's own runtime-error output (traces included) comes out in color
// (red for script files, yellow in the REPL) without the CLI having to
// reparse or duplicate it.
type colorWriter struct {
	w     *os.File
	color termenv.Color
}

func (c colorWriter) Write(p []byte) (int, error) {
	fmt.Fprint(c.w, styled(string(p), c.color))
	return len(p), nil
}

func main() {
	switch len(os.Args) {
	case 1:
		repl()
	case 2:
		os.Exit(runFile(os.Args[1]))
	default:
		fmt.Fprintln(os.Stderr, "usage: dictu [script]")
		os.Exit(exitIO)
	}
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, styled(err.Error(), termenv.ANSIRed))
		return exitIO
	}

	collector := gc.New()
	fn, err := compiler.Compile(string(src), collector)
	if err != nil {
		fmt.Fprintln(os.Stderr, styled(err.Error(), termenv.ANSIRed))
		return exitCompile
	}

	machine := vm.New(collector, os.Stdout, colorWriter{os.Stderr, termenv.ANSIRed})
	if err := machine.Interpret(fn); err != nil {
		return exitRuntime
	}
	return exitOK
}

func repl() {
	collector := gc.New()
	machine := vm.New(collector, os.Stdout, colorWriter{os.Stderr, termenv.ANSIYellow})
	machine.Repl = true

	scanner := bufio.NewScanner(os.Stdin)
	prompt := styled(">>> ", termenv.ANSIBrightCyan)

	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fn, err := compiler.Compile(line, collector)
		if err != nil {
			fmt.Fprintln(os.Stderr, styled(err.Error(), termenv.ANSIRed))
			continue
		}
		machine.Interpret(fn)
	}
}
