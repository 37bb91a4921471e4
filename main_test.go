package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dr8co/jackc/asm"
	"github.com/dr8co/jackc/driver"
	"github.com/dr8co/jackc/vmtranslate"
)

// TestEndToEndPipeline compiles a small multi-class Jack program, pipes it
// through the VM translator and the assembler, and asserts the resulting
// .hack output is well-formed: every line is exactly 16 characters of 0/1.
func TestEndToEndPipeline(t *testing.T) {
	dir := t.TempDir()

	mainSrc := `class Main {
		function void main() {
			var Adder a;
			let a = Adder.new();
			do Output.printInt(a.sum(2, 3));
			return;
		}
	}`
	adderSrc := `class Adder {
		field int total;

		constructor Adder new() {
			let total = 0;
			return this;
		}

		method int sum(int a, int b) {
			let total = a + b;
			return total;
		}
	}`

	mainPath := filepath.Join(dir, "Main.jack")
	adderPath := filepath.Join(dir, "Adder.jack")
	if err := os.WriteFile(mainPath, []byte(mainSrc), 0o644); err != nil {
		t.Fatalf("failed to write Main.jack: %v", err)
	}
	if err := os.WriteFile(adderPath, []byte(adderSrc), 0o644); err != nil {
		t.Fatalf("failed to write Adder.jack: %v", err)
	}

	paths, err := driver.CollectJackFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error collecting files: %v", err)
	}
	results := driver.CompileDir(paths, 2)
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected compile error for %s: %v", r.Path, r.Err)
		}
	}

	var vmFiles []vmtranslate.NamedSource
	for _, p := range paths {
		vmPath := strings.TrimSuffix(p, ".jack") + ".vm"
		f, err := os.Open(vmPath)
		if err != nil {
			t.Fatalf("expected VM output at %s: %v", vmPath, err)
		}
		defer f.Close()
		vmFiles = append(vmFiles, vmtranslate.NamedSource{Name: vmPath, R: f})
	}

	var asmOut strings.Builder
	if err := vmtranslate.TranslateDir(vmFiles, &asmOut); err != nil {
		t.Fatalf("unexpected translation error: %v", err)
	}

	var hackOut strings.Builder
	if err := asm.Assemble("program.asm", strings.NewReader(asmOut.String()), &hackOut); err != nil {
		t.Fatalf("unexpected assembly error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(hackOut.String(), "\n"), "\n")
	if len(lines) == 0 {
		t.Fatal("expected at least one instruction in the .hack output")
	}
	for i, line := range lines {
		if len(line) != 16 {
			t.Fatalf("line %d: expected 16 characters, got %d (%q)", i, len(line), line)
		}
		for _, ch := range line {
			if ch != '0' && ch != '1' {
				t.Fatalf("line %d: expected only 0/1, got %q", i, line)
			}
		}
	}
}
