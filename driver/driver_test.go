package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempJack(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

const minimalClass = `class Main {
	function void main() {
		do Output.printInt(1);
		return;
	}
}`

func TestCollectJackFilesSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJack(t, dir, "Main.jack", minimalClass)

	paths, err := CollectJackFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != path {
		t.Fatalf("expected [%s], got %v", path, paths)
	}
}

func TestCollectJackFilesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTempJack(t, dir, "A.jack", minimalClass)
	writeTempJack(t, dir, "B.jack", minimalClass)
	writeTempJack(t, dir, "notes.txt", "ignore me")

	paths, err := CollectJackFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 .jack files, got %v", paths)
	}
}

func TestCompileFileProducesVMOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJack(t, dir, "Main.jack", minimalClass)

	if err := CompileFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vmPath := strings.TrimSuffix(path, ".jack") + ".vm"
	data, err := os.ReadFile(vmPath)
	if err != nil {
		t.Fatalf("expected a .vm file to be written: %v", err)
	}
	if !strings.Contains(string(data), "function Main.main 0") {
		t.Fatalf("expected compiled VM output, got:\n%s", data)
	}
}

func TestCompileDirReportsPerFileResults(t *testing.T) {
	dir := t.TempDir()
	good := writeTempJack(t, dir, "Good.jack", minimalClass)
	bad := writeTempJack(t, dir, "Bad.jack", "class { broken")

	results := CompileDir([]string{good, bad}, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("expected Good.jack to compile, got error: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("expected Bad.jack to fail to compile")
	}
}
