package vmtranslate

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var segmentPointer = map[string]string{
	"local": "LCL", "argument": "ARG", "this": "THIS", "that": "THAT",
}

// CodeWriter translates parsed VM commands into Hack assembly, following
// the textbook calling convention: local/argument/this/that are accessed
// through their segment pointers, temp is based at RAM address 5, pointer
// 0/1 alias THIS/THAT, and call/function/return save and restore the
// caller's frame through the stack.
type CodeWriter struct {
	w               *bufio.Writer
	fileBase        string
	labelSeq        int
	currentFunction string
}

func newCodeWriter(w io.Writer) *CodeWriter {
	return &CodeWriter{w: bufio.NewWriter(w), currentFunction: "GLOBAL"}
}

func (cw *CodeWriter) setFileName(name string) {
	cw.fileBase = strings.TrimSuffix(filepath.Base(name), ".vm")
}

func (cw *CodeWriter) asm(lines ...string) {
	for _, l := range lines {
		cw.w.WriteString(l)
		cw.w.WriteByte('\n')
	}
}

func (cw *CodeWriter) pushDToStack() {
	cw.asm("@SP", "A=M", "M=D", "@SP", "M=M+1")
}

func (cw *CodeWriter) popStackToD() {
	cw.asm("@SP", "AM=M-1", "D=M")
}

// writeInit emits the bootstrap sequence run before any translated file:
// SP=256, zero the four segment pointers, then call Sys.init.
func (cw *CodeWriter) writeInit() {
	cw.asm("// bootstrap", "@256", "D=A", "@SP", "M=D")
	for _, ptr := range []string{"LCL", "ARG", "THIS", "THAT"} {
		cw.asm("@"+ptr, "M=0")
	}
	cw.writeCall("Sys.init", 0)
}

func (cw *CodeWriter) writeArithmetic(op string) {
	cw.asm("// " + op)
	switch op {
	case "add", "sub", "and", "or", "eq", "gt", "lt":
		cw.popStackToD()
		cw.asm("@SP", "AM=M-1")
		switch op {
		case "add":
			cw.asm("M=D+M")
		case "sub":
			cw.asm("M=M-D")
		case "and":
			cw.asm("M=D&M")
		case "or":
			cw.asm("M=D|M")
		case "eq", "gt", "lt":
			labelTrue := fmt.Sprintf("TRUE_%d", cw.labelSeq)
			labelEnd := fmt.Sprintf("END_ARITH_%d", cw.labelSeq)
			cw.labelSeq++
			cw.asm("D=M-D", "@"+labelTrue)
			switch op {
			case "eq":
				cw.asm("D;JEQ")
			case "gt":
				cw.asm("D;JGT")
			case "lt":
				cw.asm("D;JLT")
			}
			cw.asm("@SP", "A=M", "M=0", "@"+labelEnd, "0;JMP",
				"("+labelTrue+")", "@SP", "A=M", "M=-1", "("+labelEnd+")")
		}
		cw.asm("@SP", "M=M+1")
	case "neg", "not":
		cw.asm("@SP", "A=M-1")
		if op == "neg" {
			cw.asm("M=-M")
		} else {
			cw.asm("M=!M")
		}
	}
}

func (cw *CodeWriter) writePush(segment string, index int) {
	cw.asm(fmt.Sprintf("// push %s %d", segment, index))
	switch {
	case segment == "constant":
		cw.asm(fmt.Sprintf("@%d", index), "D=A")
	case segmentPointer[segment] != "":
		cw.asm("@"+segmentPointer[segment], "D=M", fmt.Sprintf("@%d", index), "A=D+A", "D=M")
	case segment == "temp":
		cw.asm(fmt.Sprintf("@%d", 5+index), "D=M")
	case segment == "pointer":
		cw.asm("@"+pointerTarget(index), "D=M")
	case segment == "static":
		cw.asm(fmt.Sprintf("@%s.%d", cw.fileBase, index), "D=M")
	}
	cw.pushDToStack()
}

func (cw *CodeWriter) writePop(segment string, index int) {
	cw.asm(fmt.Sprintf("// pop %s %d", segment, index))
	switch {
	case segmentPointer[segment] != "":
		cw.asm("@"+segmentPointer[segment], "D=M", fmt.Sprintf("@%d", index), "D=D+A", "@R13", "M=D")
		cw.popStackToD()
		cw.asm("@R13", "A=M", "M=D")
	case segment == "temp":
		cw.popStackToD()
		cw.asm(fmt.Sprintf("@%d", 5+index), "M=D")
	case segment == "pointer":
		cw.popStackToD()
		cw.asm("@" + pointerTarget(index) + "", "M=D")
	case segment == "static":
		cw.popStackToD()
		cw.asm(fmt.Sprintf("@%s.%d", cw.fileBase, index), "M=D")
	}
}

func pointerTarget(index int) string {
	if index == 0 {
		return "THIS"
	}
	return "THAT"
}

func (cw *CodeWriter) writeLabel(label string) {
	cw.asm(fmt.Sprintf("(%s$%s)", cw.currentFunction, label))
}

func (cw *CodeWriter) writeGoto(label string) {
	cw.asm(fmt.Sprintf("@%s$%s", cw.currentFunction, label), "0;JMP")
}

func (cw *CodeWriter) writeIf(label string) {
	cw.popStackToD()
	cw.asm(fmt.Sprintf("@%s$%s", cw.currentFunction, label), "D;JNE")
}

func (cw *CodeWriter) writeFunction(name string, nLocals int) {
	cw.currentFunction = name
	cw.asm("(" + name + ")")
	for i := 0; i < nLocals; i++ {
		cw.asm("@0", "D=A")
		cw.pushDToStack()
	}
}

func (cw *CodeWriter) writeCall(name string, nArgs int) {
	retLabel := fmt.Sprintf("RET_ADDR_%d", cw.labelSeq)
	cw.labelSeq++
	cw.asm("@"+retLabel, "D=A")
	cw.pushDToStack()
	for _, seg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		cw.asm("@"+seg, "D=M")
		cw.pushDToStack()
	}
	cw.asm("@SP", "D=M", "@5", "D=D-A", fmt.Sprintf("@%d", nArgs), "D=D-A",
		"@ARG", "M=D", "@SP", "D=M", "@LCL", "M=D", "@"+name, "0;JMP", "("+retLabel+")")
}

func (cw *CodeWriter) writeReturn() {
	cw.asm("@LCL", "D=M", "@R13", "M=D", "@5", "A=D-A", "D=M", "@R14", "M=D")
	cw.popStackToD()
	cw.asm("@ARG", "A=M", "M=D", "@ARG", "D=M+1", "@SP", "M=D")
	for _, seg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		cw.asm("@R13", "AM=M-1", "D=M", "@"+seg, "M=D")
	}
	cw.asm("@R14", "A=M", "0;JMP")
}

func (cw *CodeWriter) translateStream(r io.Reader) error {
	p, err := NewParser(r)
	if err != nil {
		return err
	}
	for p.HasMoreCommands() {
		cmd := p.Advance()
		switch cmd.Type {
		case CArithmetic:
			cw.writeArithmetic(cmd.Arg1)
		case CPush:
			cw.writePush(cmd.Arg1, cmd.Arg2)
		case CPop:
			cw.writePop(cmd.Arg1, cmd.Arg2)
		case CLabel:
			cw.writeLabel(cmd.Arg1)
		case CGoto:
			cw.writeGoto(cmd.Arg1)
		case CIf:
			cw.writeIf(cmd.Arg1)
		case CFunction:
			cw.writeFunction(cmd.Arg1, cmd.Arg2)
		case CCall:
			cw.writeCall(cmd.Arg1, cmd.Arg2)
		case CReturn:
			cw.writeReturn()
		}
	}
	return nil
}

// NamedSource pairs a diagnostic name (used for static-variable
// namespacing) with the .vm content to translate.
type NamedSource struct {
	Name string
	R    io.Reader
}

// TranslateFile translates a single .vm source with no bootstrap, matching
// the single-file mode of the VM translator.
func TranslateFile(name string, r io.Reader, w io.Writer) error {
	cw := newCodeWriter(w)
	cw.setFileName(name)
	if err := cw.translateStream(r); err != nil {
		return err
	}
	return cw.w.Flush()
}

// TranslateDir concatenates every source in files into one assembly
// artifact, prefixed with the Sys.init bootstrap and namespacing each
// file's static variables by its own base name, matching directory mode.
func TranslateDir(files []NamedSource, w io.Writer) error {
	cw := newCodeWriter(w)
	cw.writeInit()
	for _, f := range files {
		cw.setFileName(f.Name)
		if err := cw.translateStream(f.R); err != nil {
			return err
		}
	}
	return cw.w.Flush()
}
