// Package driver discovers Jack source files and compiles them to VM code,
// reporting one result per file.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dr8co/jackc/compiler"
	"github.com/dr8co/jackc/vmcode"
)

// Result is the outcome of compiling a single Jack source file.
type Result struct {
	Path string
	Err  error
}

// CollectJackFiles returns the .jack files to compile for path. If path is
// itself a .jack file, it is the sole entry. If path is a directory, its
// immediate *.jack children are returned (non-recursive), sorted by name.
func CollectJackFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !strings.HasSuffix(path, ".jack") {
			return nil, fmt.Errorf("%s: not a .jack file", path)
		}
		return []string{path}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.jack"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// CompileFile compiles a single .jack file, writing its VM code alongside
// the source with a .vm extension.
func CompileFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	outPath := strings.TrimSuffix(path, ".jack") + ".vm"
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := vmcode.New(out)
	eng := compiler.New(string(src), w)
	if err := eng.CompileClass(); err != nil {
		return err
	}
	return w.Close()
}

// CompileDir compiles every file in paths concurrently, bounded by a
// worker pool, since each compilation unit owns private state and writes
// to its own output path. Results are returned in the same order as paths.
func CompileDir(paths []string, workers int) []Result {
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = Result{Path: paths[idx], Err: CompileFile(paths[idx])}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// PrintResults writes one line per result to standard output: "Compiled: <name>" on
// success, "Error in <name>: <message>" on failure. The caller always
// exits 0 regardless of per-file errors.
func PrintResults(results []Result) {
	for _, r := range results {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			fmt.Printf("Error in %s: %s\n", name, r.Err)
			continue
		}
		fmt.Printf("Compiled: %s\n", name)
	}
}
