package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/ir"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes a generated program and a configuration, and produces the
	// target assembly as a byte buffer.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}

type gasBackend struct {
	out *strings.Builder
}

// NewGASBackend returns a backend that writes AT&T syntax for the GNU assembler.
func NewGASBackend() Backend { return &gasBackend{} }

func (b *gasBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	var sb strings.Builder
	b.out = &sb

	keepComments := cfg.IsFeatureEnabled(config.FeatAsmComments)
	b.out.WriteString("\t.text\n")
	for _, fn := range prog.Funcs {
		if fn.Code == nil {
			return nil, fmt.Errorf("function '%s' has no code", fn.Name)
		}
		b.out.WriteString("\n")
		if keepComments {
			if _, err := fn.Code.WriteTo(b.out); err != nil {
				return nil, fmt.Errorf("writing '%s': %w", fn.Name, err)
			}
		} else {
			lines := lo.Reject(fn.Code.Lines(), func(l string, _ int) bool { return ir.IsComment(l) })
			for _, l := range lines {
				b.out.WriteString(l)
				b.out.WriteByte('\n')
			}
		}
		fmt.Fprintf(b.out, "\t.size  %s, .-%s\n", fn.Name, fn.Name)
	}
	b.out.WriteString("\n\t.section .note.GNU-stack,\"\",@progbits\n")

	return bytes.NewBufferString(sb.String()), nil
}
