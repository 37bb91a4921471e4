// jackc compiles Jack source files into Hack VM code.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/dr8co/jackc/driver"
)

const version = "0.1.0"

// printUsage displays custom usage information
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `Jack Compiler v%s

USAGE:
    %s [OPTIONS] <path>

DESCRIPTION:
    jackc compiles Jack source files into Hack VM code. <path> may be a
    single .jack file or a directory containing .jack files.

OPTIONS:
    -f, --file <path>   Path to a .jack file or a directory of .jack files
    -tui                Show an interactive compile-progress view
    -v, --version       Show version information
    -h, --help          Show this help message

EXAMPLES:
    %s Main.jack
    %s -f ./Square
    %s -tui ./Square

`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	flag.Usage = printUsage

	fileFlag := flag.String("file", "", "Path to a .jack file or a directory of .jack files")
	tuiFlag := flag.Bool("tui", false, "Show an interactive compile-progress view")
	versionFlag := flag.Bool("version", false, "Show version information")

	flag.StringVar(fileFlag, "f", "", "Path to a .jack file or a directory of .jack files")
	flag.BoolVar(versionFlag, "v", false, "Show version information")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("Jack Compiler v%s\n", version)
		return
	}

	path := *fileFlag
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		printUsage()
		os.Exit(1)
	}

	paths, err := driver.CollectJackFiles(path)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("no .jack files found")
		return
	}

	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}

	if *tuiFlag {
		results, err := driver.RunTUI(paths, workers)
		if err != nil {
			fmt.Println("Error running program:", err)
			os.Exit(1)
		}
		driver.PrintResults(results)
		return
	}

	results := driver.CompileDir(paths, workers)
	driver.PrintResults(results)
}
