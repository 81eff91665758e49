package codegen

import "fmt"

// Labels hands out assembler labels. Loop begin/end labels advance together;
// function exit labels have their own counter.
type Labels struct {
	begin, end, exit int
}

// NextLoop returns a fresh begin/end label pair.
func (l *Labels) NextLoop() (begin, end string) {
	l.begin++
	l.end++
	return fmt.Sprintf(".B%d", l.begin), fmt.Sprintf(".E%d", l.end)
}

// NextExit returns a fresh function exit label.
func (l *Labels) NextExit() string {
	l.exit++
	return fmt.Sprintf(".F%d", l.exit)
}
