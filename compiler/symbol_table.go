package compiler

import "github.com/dr8co/jackc/vmcode"

// Kind is a symbol's storage class.
type Kind int

// The four storage kinds a symbol may have.
const (
	Static Kind = iota
	Field
	Argument
	Local
)

// Segment returns the VM segment a kind is stored in.
func (k Kind) Segment() vmcode.Segment {
	switch k {
	case Static:
		return vmcode.Static
	case Field:
		return vmcode.This
	case Argument:
		return vmcode.Argument
	case Local:
		return vmcode.Local
	default:
		return ""
	}
}

// Symbol binds a declared name to its type, storage kind, and dense index
// within that kind.
type Symbol struct {
	Type  string
	Kind  Kind
	Index int
}

// SymbolTable holds the two nested scopes of a single compilation unit: a
// class scope (Static, Field) that persists for the whole class, and a
// subroutine scope (Argument, Local) reset at each subroutine entry.
type SymbolTable struct {
	classScope      map[string]Symbol
	subroutineScope map[string]Symbol
	counts          [4]int
}

// NewSymbolTable creates an empty SymbolTable for one compilation unit.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		classScope:      make(map[string]Symbol),
		subroutineScope: make(map[string]Symbol),
	}
}

// StartSubroutine clears the subroutine scope and resets the Argument and
// Local counters, as required at the entry of every subroutine.
func (s *SymbolTable) StartSubroutine() {
	s.subroutineScope = make(map[string]Symbol)
	s.counts[Argument] = 0
	s.counts[Local] = 0
}

// Define binds name to a freshly assigned, dense index within kind and
// records it in the scope kind belongs to.
func (s *SymbolTable) Define(name, typ string, kind Kind) Symbol {
	sym := Symbol{Type: typ, Kind: kind, Index: s.counts[kind]}
	s.counts[kind]++
	if kind == Static || kind == Field {
		s.classScope[name] = sym
	} else {
		s.subroutineScope[name] = sym
	}
	return sym
}

// Resolve looks up name, subroutine scope first then class scope. The
// second return value is false when name is undeclared.
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	if sym, ok := s.subroutineScope[name]; ok {
		return sym, true
	}
	sym, ok := s.classScope[name]
	return sym, ok
}

// KindOf reports the storage kind of name, or false if unresolved.
func (s *SymbolTable) KindOf(name string) (Kind, bool) {
	sym, ok := s.Resolve(name)
	return sym.Kind, ok
}

// TypeOf reports the declared type of name, or "" if unresolved.
func (s *SymbolTable) TypeOf(name string) string {
	sym, ok := s.Resolve(name)
	if !ok {
		return ""
	}
	return sym.Type
}

// IndexOf reports the storage index of name, or 0 if unresolved.
func (s *SymbolTable) IndexOf(name string) int {
	sym, _ := s.Resolve(name)
	return sym.Index
}

// VarCount reports the current counter for kind, used to size constructor
// allocations and function-local frames.
func (s *SymbolTable) VarCount(kind Kind) int {
	return s.counts[kind]
}
