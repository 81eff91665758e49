package codegen

import (
	"github.com/xplshn/lcc/pkg/frame"
	"github.com/xplshn/lcc/pkg/ir"
)

// WireWhileLoop inserts the loop labels and branches around an already
// generated condition block and body block. cond's value is consumed by the
// exit test. The caller splices cond and then body into the function.
func WireWhileLoop(cond *ir.Sequence, condValue ir.Value, body *ir.Sequence, labels *Labels, f *frame.Frame) (begin, end string) {
	begin, end = labels.NextLoop()
	cond.PushFront(begin + ":")
	PopAndJumpIfZero(cond, condValue, end, f)
	EmitJump(body, begin)
	EmitLabel(body, end)
	return begin, end
}
