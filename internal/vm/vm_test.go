package vm_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dictu-lang/dictu-go/internal/compiler"
	"github.com/dictu-lang/dictu-go/internal/gc"
	"github.com/dictu-lang/dictu-go/internal/vm"

	_ "github.com/dictu-lang/dictu-go/internal/natives/corelib"
	_ "github.com/dictu-lang/dictu-go/internal/natives/filemod"
	_ "github.com/dictu-lang/dictu-go/internal/natives/mathmod"
)

// run compiles and interprets src in REPL mode so that expression
// statements print their values, giving tests something to assert on
// without a dedicated print native (spec.md §4.5's only output channel
// besides file/network natives is OP_POP_REPL).
func run(t *testing.T, src string) string {
	t.Helper()
	collector := gc.New()
	fn, err := compiler.Compile(src, collector)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out, errOut bytes.Buffer
	machine := vm.New(collector, &out, &errOut)
	machine.Repl = true
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v\nstderr: %s", err, errOut.String())
	}
	return out.String()
}

// runErr is like run but expects a runtime error and returns stderr
// instead of failing the test.
func runErr(t *testing.T, src string) string {
	t.Helper()
	collector := gc.New()
	fn, err := compiler.Compile(src, collector)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out, errOut bytes.Buffer
	machine := vm.New(collector, &out, &errOut)
	machine.Repl = true
	if err := machine.Interpret(fn); err == nil {
		t.Fatalf("expected runtime error, got none (stdout: %s)", out.String())
	}
	return errOut.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}

func TestArithmeticAndPrecedence(t *testing.T) {
	out := run(t, `1 + 2 * 3;`)
	if lastLine(out) != "7" {
		t.Fatalf("expected 7, got %q", out)
	}
}

func TestStringConcatenationInterning(t *testing.T) {
	out := run(t, `
var a = "foo" + "bar";
var b = "foobar";
a == b;
`)
	if lastLine(out) != "true" {
		t.Fatalf("expected interned strings to compare equal, got %q", out)
	}
}

func TestStringEscapes(t *testing.T) {
	out := run(t, `"line1\nline2";`)
	if !strings.Contains(out, "line1\nline2") {
		t.Fatalf("expected escape sequences decoded, got %q", out)
	}
}

func TestClosureCapturesByReference(t *testing.T) {
	out := run(t, `
def makeCounter() {
    var count = 0;
    def increment() {
        count = count + 1;
        return count;
    }
    return increment;
}

var counter = makeCounter();
counter();
counter();
counter();
`)
	if lastLine(out) != "3" {
		t.Fatalf("expected closure to keep shared state across calls, got %q", out)
	}
}

func TestOptionalParameterDefaults(t *testing.T) {
	out := run(t, `
def greet(name, greeting = "hello") {
    return greeting + " " + name;
}

greet("world");
greet("world", "hi");
`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 printed lines, got %q", out)
	}
	if lines[0] != "'hello world'" && lines[0] != "hello world" {
		t.Fatalf("expected default greeting used, got %q", lines[0])
	}
	if lines[1] != "'hi world'" && lines[1] != "hi world" {
		t.Fatalf("expected supplied greeting used, got %q", lines[1])
	}
}

func TestBreakAndContinueInLoop(t *testing.T) {
	out := run(t, `
var total = 0;
for (var i = 0; i < 10; i = i + 1) {
    if (i == 5) {
        break;
    }
    if (i == 2) {
        continue;
    }
    total = total + i;
}
total;
`)
	// 0 + 1 + 3 + 4 = 8 (2 skipped via continue, loop breaks before 5 is added)
	if lastLine(out) != "8" {
		t.Fatalf("expected 8, got %q", out)
	}
}

func TestClassInheritanceAndSuperOverride(t *testing.T) {
	out := run(t, `
class Animal {
    speak() {
        return "...";
    }

    describe() {
        return "An animal says " + this.speak();
    }
}

class Dog < Animal {
    speak() {
        return "woof";
    }

    describe() {
        return super.describe() + "!";
    }
}

var d = Dog();
d.describe();
`)
	want := "An animal says woof!"
	if !strings.Contains(out, want) {
		t.Fatalf("expected %q in output, got %q", want, out)
	}
}

func TestTraitComposition(t *testing.T) {
	out := run(t, `
trait Greetable {
    greet() {
        return "hi, " + this.name();
    }
}

class Person {
    use Greetable;

    init(n) {
        this.personName = n;
    }

    name() {
        return this.personName;
    }
}

var p = Person("Ada");
p.greet();
`)
	want := "hi, Ada"
	if !strings.Contains(out, want) {
		t.Fatalf("expected %q in output, got %q", want, out)
	}
}

func TestMethodResolutionOrderInstanceFieldBeforeClassMethod(t *testing.T) {
	out := run(t, `
class Box {
    value() {
        return "class value";
    }
}

var b = Box();
b.value();
b.value = def() { return "field value"; };
b.value();
`)
	if !strings.Contains(out, "class value") {
		t.Fatalf("expected class method result, got %q", out)
	}
	if lastLine(out) != "field value" {
		t.Fatalf("expected the instance field to be called before the class method, got %q", out)
	}
}

func TestDictVsBlockDisambiguation(t *testing.T) {
	out := run(t, `
var d = {"a": 1, "b": 2};
d["a"] + d["b"];
`)
	if lastLine(out) != "3" {
		t.Fatalf("expected dict literal parsed correctly, got %q", out)
	}
}

func TestEmptyBraceIsEmptyDict(t *testing.T) {
	out := run(t, `
var d = {};
d["x"] = 10;
d["x"];
`)
	if lastLine(out) != "10" {
		t.Fatalf("expected {} to parse as an empty dict, got %q", out)
	}
}

func TestListIndexingAndSlicing(t *testing.T) {
	out := run(t, `
var l = [10, 20, 30, 40, 50];
l[1:3];
`)
	if !strings.Contains(out, "20") || !strings.Contains(out, "30") {
		t.Fatalf("expected slice to contain 20 and 30, got %q", out)
	}
}

func TestNegativeIndexWraparound(t *testing.T) {
	out := run(t, `
var l = [1, 2, 3];
l[-1];
`)
	if lastLine(out) != "3" {
		t.Fatalf("expected negative index to wrap to last element, got %q", out)
	}
}

func TestRuntimeErrorResetsStacksForRepl(t *testing.T) {
	collector := gc.New()
	var out, errOut bytes.Buffer
	machine := vm.New(collector, &out, &errOut)
	machine.Repl = true

	fn1, err := compiler.Compile(`var x = nil; x();`, collector)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if err := machine.Interpret(fn1); err == nil {
		t.Fatalf("expected a runtime error calling nil")
	}

	fn2, err := compiler.Compile(`1 + 1;`, collector)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	out.Reset()
	if err := machine.Interpret(fn2); err != nil {
		t.Fatalf("expected VM to recover after a runtime error, got: %v", err)
	}
	if lastLine(out.String()) != "2" {
		t.Fatalf("expected VM to keep working after reset, got %q", out.String())
	}
}

func TestWithStatementClosesFileOnEarlyReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "with.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	src := `
var leaked = nil;
def readFirstLine(path) {
    with (path, "r") {
        leaked = file;
        return file.readLine();
    }
}

var path = "` + path + `";
readFirstLine(path);
`
	out := run(t, src)
	if lastLine(out) != "first" {
		t.Fatalf("expected the first line to be returned, got %q", out)
	}
	// The handle escaped via a global: after the early return it must be closed.
	stderr := runErr(t, src+"leaked.readLine();\n")
	if !strings.Contains(stderr, "is closed") {
		t.Fatalf("expected the file to be closed after return, got %q", stderr)
	}
}

func TestModuleFunctionCallTakesNoImplicitReceiver(t *testing.T) {
	out := run(t, `
import Math;
Math.sqrt(16);
`)
	if lastLine(out) != "4" {
		t.Fatalf("expected Math.sqrt(16) == 4, got %q", out)
	}
}

func TestModuleConstantAccessDoesNotInvoke(t *testing.T) {
	out := run(t, `
import Math;
Math.pi > 3.14;
`)
	if lastLine(out) != "true" {
		t.Fatalf("expected Math.pi to compare as a plain value, got %q", out)
	}
}

func TestNestedImportDoesNotUninternOuterGlobalsUnderGCStress(t *testing.T) {
	// importStatement only accepts an Identifier as the module name
	// (compiler.go's importStatement), and importFile reads that literal
	// as a relative path -- so a file-based import target must be a
	// bare, extension-less filename in the current working directory.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "helper"), []byte(`var helperValue = 1;`), 0o644); err != nil {
		t.Fatalf("could not write helper module: %v", err)
	}
	prevDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("could not chdir into temp dir: %v", err)
	}
	defer os.Chdir(prevDir)

	collector := gc.New()
	collector.Stress = true
	src := `
var outer = "a" + "b";
import helper;
outer == "ab";
`
	fn, err := compiler.Compile(src, collector)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out, errOut bytes.Buffer
	machine := vm.New(collector, &out, &errOut)
	machine.Repl = true
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v\nstderr: %s", err, errOut.String())
	}
	if lastLine(out.String()) != "true" {
		t.Fatalf("expected outer's interned string identity to survive a GC-stressed nested import, got %q", out.String())
	}
}

func TestGCStressDoesNotCorruptLiveState(t *testing.T) {
	collector := gc.New()
	collector.Stress = true
	fn, err := compiler.Compile(`
def build(n) {
    var items = [];
    for (var i = 0; i < n; i = i + 1) {
        items.push(i * 2);
    }
    return items;
}

var result = build(50);
result[49];
`, collector)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out, errOut bytes.Buffer
	machine := vm.New(collector, &out, &errOut)
	machine.Repl = true
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error under GC stress: %v\n%s", err, errOut.String())
	}
	if lastLine(out.String()) != "98" {
		t.Fatalf("expected 98 (49*2), got %q", out.String())
	}
}
