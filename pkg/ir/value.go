package ir

import "fmt"

// Value records where a computed quantity currently lives.
// It is one of None, Slot or Imm.
type Value interface {
	isValue()
	String() string
}

// None is a value that has not been materialized anywhere.
type None struct{}

// Slot is a value resident in the current frame at -Offset(%rbp).
type Slot struct {
	Offset int
	Width  Width
}

// Imm is an immediate constant. Constants are always DoubleWord wide;
// narrower uses truncate at the use site.
type Imm struct {
	Value int64
}

func (None) isValue() {}
func (Slot) isValue() {}
func (Imm) isValue()  {}

func (None) String() string   { return "<none>" }
func (s Slot) String() string { return fmt.Sprintf("%d(%%rbp)", -s.Offset) }
func (c Imm) String() string  { return fmt.Sprintf("$%d", c.Value) }

// Width of a constant operand.
func (Imm) Width() Width { return DoubleWord }

// Addr is the frame-relative operand text for the slot.
func (s Slot) Addr() string { return s.String() }

// WidthOf reports the width of v; it is false for None.
func WidthOf(v Value) (Width, bool) {
	switch v := v.(type) {
	case Slot:
		return v.Width, true
	case Imm:
		return v.Width(), true
	}
	return 0, false
}

// FrameAddr formats a positive frame offset as an operand.
func FrameAddr(offset int) string {
	return fmt.Sprintf("%d(%%rbp)", -offset)
}
