package ir

// Func is a finished function: its symbol name and complete instruction
// sequence, prologue and epilogue included.
type Func struct {
	Name      string
	Code      *Sequence
	FrameSize int
}

// Program is the output of code generation for one translation unit.
type Program struct {
	Funcs []*Func
}

// AddFunc appends fn to the program in definition order.
func (p *Program) AddFunc(fn *Func) { p.Funcs = append(p.Funcs, fn) }

// Lines is the total number of lines across all functions.
func (p *Program) Lines() int {
	n := 0
	for _, fn := range p.Funcs {
		n += fn.Code.Len()
	}
	return n
}
