// Package symtab keeps every declaration of a compilation unit in an arena.
//
// Scopes are chains: each symbol points at the declaration (or scope marker)
// that was current when it was declared, so walking Parent links visits the
// visible declarations from innermost to outermost. File-scope functions have
// no parent; they are kept in declaration order and searched once a chain runs
// out. The table holds no notion of a "current" scope; callers thread it
// explicitly.
package symtab

import (
	"github.com/xplshn/lcc/pkg/frame"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/util"
)

// ID addresses a symbol in its Table.
type ID int32

// None is the parent of top-level declarations.
const None ID = -1

type Kind int

const (
	FuncDef Kind = iota
	FuncDecl
	Local
	Param
	Scope
)

func (k Kind) String() string {
	switch k {
	case FuncDef:
		return "function definition"
	case FuncDecl:
		return "function declaration"
	case Local:
		return "local variable"
	case Param:
		return "parameter"
	case Scope:
		return "scope"
	}
	return "unknown"
}

type Symbol struct {
	Kind   Kind
	Name   Name
	Parent ID
	Width  ir.Width

	// Functions.
	Returns     bool
	ReturnWidth ir.Width
	Params      []ID
	Code        *ir.Sequence
	Frame       *frame.Frame

	// Variables: Init is where the initializer's value currently lives,
	// Offset is the variable's own frame slot once allocated.
	Init   ir.Value
	Offset int
}

// IsVariable reports whether the symbol names a local or parameter.
func (s *Symbol) IsVariable() bool { return s.Kind == Local || s.Kind == Param }

// IsFunction reports whether the symbol names a function definition or declaration.
func (s *Symbol) IsFunction() bool { return s.Kind == FuncDef || s.Kind == FuncDecl }

// Slot is the variable's own frame slot.
func (s *Symbol) Slot() ir.Slot { return ir.Slot{Offset: s.Offset, Width: s.Width} }

type Table struct {
	names   *Interner
	syms    []*Symbol
	globals []ID
}

func New() *Table {
	return &Table{names: NewInterner()}
}

func (t *Table) add(s *Symbol) ID {
	t.syms = append(t.syms, s)
	return ID(len(t.syms) - 1)
}

// Get returns the symbol for id. Pointers stay valid as the table grows.
func (t *Table) Get(id ID) *Symbol {
	if id < 0 || int(id) >= len(t.syms) {
		util.ICE("symbol %d does not exist", id)
	}
	return t.syms[id]
}

// NameOf returns the declared name of id.
func (t *Table) NameOf(id ID) string { return t.names.String(t.Get(id).Name) }

func (t *Table) Len() int { return len(t.syms) }

// Declare creates a variable-like symbol linked under parent.
func (t *Table) Declare(kind Kind, name string, width ir.Width, parent ID) ID {
	return t.add(&Symbol{
		Kind: kind, Name: t.names.Intern(name), Parent: parent, Width: width,
		Init: ir.None{},
	})
}

// DeclareLocal creates a local whose initializer currently lives at init.
func (t *Table) DeclareLocal(name string, width ir.Width, parent ID, init ir.Value) ID {
	id := t.Declare(Local, name, width, parent)
	if init != nil {
		t.syms[id].Init = init
	}
	return id
}

// DeclareFunction creates a function symbol. A FuncDef owns its instruction
// sequence and stack frame. params are unlinked parameter symbols.
func (t *Table) DeclareFunction(kind Kind, name string, returns bool, ret ir.Width, params []ID, parent ID) ID {
	if kind != FuncDef && kind != FuncDecl {
		util.ICE("DeclareFunction called with kind %v", kind)
	}
	s := &Symbol{
		Kind: kind, Name: t.names.Intern(name), Parent: parent,
		Returns: returns, ReturnWidth: ret, Params: params, Init: ir.None{},
	}
	if kind == FuncDef {
		s.Code = ir.NewSequence()
		s.Frame = frame.New()
	}
	id := t.add(s)
	if parent == None {
		t.globals = append(t.globals, id)
	}
	return id
}

// NewParam creates a parameter symbol. It is linked into a scope chain when
// the function's incoming arguments are marshaled.
func (t *Table) NewParam(width ir.Width, name string) ID {
	return t.Declare(Param, name, width, None)
}

// NewScope opens an anonymous block scope under parent.
func (t *Table) NewScope(parent ID) ID {
	return t.add(&Symbol{Kind: Scope, Parent: parent, Init: ir.None{}})
}

// Resolve walks outward from 'from' and returns the nearest symbol called name.
// File-scope functions are searched last, latest declaration first.
func (t *Table) Resolve(name string, from ID) (ID, bool) {
	n, ok := t.names.Lookup(name)
	if !ok {
		return None, false
	}
	for id := from; id != None; id = t.Get(id).Parent {
		if t.syms[id].Name == n {
			return id, true
		}
	}
	for i := len(t.globals) - 1; i >= 0; i-- {
		if id := t.globals[i]; t.syms[id].Name == n {
			return id, true
		}
	}
	return None, false
}

// ResolveUntil is Resolve restricted to the chain segment above stop
// (exclusive) and never reaches file scope; it is used to detect
// redeclarations within one block.
func (t *Table) ResolveUntil(name string, from, stop ID) (ID, bool) {
	n, ok := t.names.Lookup(name)
	if !ok {
		return None, false
	}
	for id := from; id != None && id != stop; id = t.Get(id).Parent {
		if t.syms[id].Name == n {
			return id, true
		}
	}
	return None, false
}

// EnclosingFunction returns the nearest function definition on the chain
// starting at scope. It is false at file scope.
func (t *Table) EnclosingFunction(scope ID) (ID, bool) {
	for id := scope; id != None; id = t.Get(id).Parent {
		if t.syms[id].Kind == FuncDef {
			return id, true
		}
	}
	return None, false
}

// InGlobalScope reports whether scope has no enclosing function.
func (t *Table) InGlobalScope(scope ID) bool {
	_, ok := t.EnclosingFunction(scope)
	return !ok
}
