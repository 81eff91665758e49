package ir

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type line struct {
	text string
	next *line
}

// Sequence is an ordered list of assembly lines. Lines can be added at either
// end and whole sequences can be spliced in without copying.
type Sequence struct {
	head, tail *line
	n          int
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence { return &Sequence{} }

func (s *Sequence) PushBack(text string) {
	l := &line{text: text}
	if s.tail == nil {
		s.head = l
	} else {
		s.tail.next = l
	}
	s.tail = l
	s.n++
}

func (s *Sequence) PushFront(text string) {
	l := &line{text: text, next: s.head}
	s.head = l
	if s.tail == nil {
		s.tail = l
	}
	s.n++
}

// Emit appends a formatted line.
func (s *Sequence) Emit(format string, args ...any) {
	s.PushBack(fmt.Sprintf(format, args...))
}

// Comment appends an assembler comment line.
func (s *Sequence) Comment(format string, args ...any) {
	s.PushBack("\t# " + fmt.Sprintf(format, args...))
}

// Splice moves every line of other to the end of s. other is left empty.
func (s *Sequence) Splice(other *Sequence) {
	if other == nil || other == s || other.head == nil {
		return
	}
	if s.tail == nil {
		s.head = other.head
	} else {
		s.tail.next = other.head
	}
	s.tail = other.tail
	s.n += other.n
	other.head, other.tail, other.n = nil, nil, 0
}

func (s *Sequence) Len() int { return s.n }

// Lines returns a snapshot of the sequence in order.
func (s *Sequence) Lines() []string {
	out := make([]string, 0, s.n)
	for l := s.head; l != nil; l = l.next {
		out = append(out, l.text)
	}
	return out
}

// WriteTo writes every line followed by a newline.
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for l := s.head; l != nil; l = l.next {
		n, err := bw.WriteString(l.text)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return total, err
		}
		total++
	}
	return total, bw.Flush()
}

// IsComment reports whether text is an assembler comment line.
func IsComment(text string) bool {
	return strings.HasPrefix(strings.TrimLeft(text, "\t "), "#")
}
