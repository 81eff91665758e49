package codegen

import (
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/symtab"
	"github.com/xplshn/lcc/pkg/util"
)

// MarshalOutgoingArguments moves each argument into its argument register,
// widened to a double word. Stack-resident arguments are read but not freed;
// the caller releases them after the call.
func MarshalOutgoingArguments(seq *ir.Sequence, args []ir.Value) {
	if len(args) > ir.MaxArgs {
		util.ICE("%d arguments exceed the %d argument registers", len(args), ir.MaxArgs)
	}
	al := ir.NewSequence()
	for i, arg := range args {
		al.Comment("passing arg %d", i)
		switch arg := arg.(type) {
		case ir.Imm:
			if fitsInt32(arg.Value) {
				al.PushBack(instr("movq", imm(arg.Value), ir.Reg(ir.Argument, i, ir.DoubleWord)))
			} else {
				al.PushBack(instr("movabsq", imm(arg.Value), ir.Reg(ir.Argument, i, ir.DoubleWord)))
			}
		case ir.Slot:
			al.PushBack(instr(sized("mov", arg.Width), arg.Addr(), ir.Reg(ir.Argument, i, arg.Width)))
			Extend(al, ir.Argument, i, arg.Width, ir.DoubleWord)
		default:
			util.ICE("argument %d has no location", i)
		}
	}
	seq.Splice(al)
}

// MarshalIncomingParameters gives every parameter of fn a frame slot and
// stores its argument register there. Each parameter is linked onto the
// scope chain in order; the returned ID is the new innermost scope.
func MarshalIncomingParameters(seq *ir.Sequence, tab *symtab.Table, fnID symtab.ID, scope symtab.ID) symtab.ID {
	fn := tab.Get(fnID)
	if fn.Kind != symtab.FuncDef {
		util.ICE("%q is not a function definition", tab.NameOf(fnID))
	}
	if len(fn.Params) > ir.MaxArgs {
		util.ICE("%d parameters exceed the %d argument registers", len(fn.Params), ir.MaxArgs)
	}
	al := ir.NewSequence()
	for i, id := range fn.Params {
		p := tab.Get(id)
		p.Parent = scope
		scope = id
		p.Offset = fn.Frame.Allocate(p.Width)
		al.Comment("passing %s %d byte(s) %s", tab.NameOf(id), p.Width.Size(), p.Slot().Addr())
		al.PushBack(instr(sized("mov", p.Width), ir.Reg(ir.Argument, i, p.Width), p.Slot().Addr()))
	}
	seq.Splice(al)
	return scope
}
