package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xplshn/lcc/pkg/ast"
	"github.com/xplshn/lcc/pkg/cli"
	"github.com/xplshn/lcc/pkg/codegen"
	"github.com/xplshn/lcc/pkg/config"
	"github.com/xplshn/lcc/pkg/ir"
	"github.com/xplshn/lcc/pkg/lexer"
	"github.com/xplshn/lcc/pkg/parser"
	"github.com/xplshn/lcc/pkg/token"
	"github.com/xplshn/lcc/pkg/util"
)

func main() {
	app := cli.NewApp("lcc")
	app.Synopsis = "[options] <input.c> ..."
	app.Description = "A small non-optimizing compiler for a subset of C that emits x86-64 assembly for the GNU assembler."
	app.Version = "0.1.0"

	var (
		outFile    string
		std        string
		linkerArgs []string
		libs       []string
		asmOnly    bool
		verbose    bool
		pedantic   bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file>.", "file")
	fs.Bool(&asmOnly, "asm", "S", false, "Write the generated assembly and stop.")
	fs.Bool(&verbose, "verbose", "v", false, "Print each compilation stage.")
	fs.List(&linkerArgs, "linker-arg", "L", []string{}, "Pass an argument to the linker.", "arg")
	fs.Special(&libs, "l", "Link with a library (e.g., -lm)", "lib")
	fs.String(&std, "std", "", "c99", "Specify language standard (c89, c99)", "std")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings demanded by the current C std.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		if err := cfg.ApplyStd(std); err != nil {
			util.Error(token.Token{FileIndex: -1}, err.Error())
		}
		cfg.ProcessDirectiveFlags(cfg.EnvFlags)
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH); err != nil {
			util.Error(token.Token{FileIndex: -1}, err.Error())
		}
		cfg.Verbose = cfg.Verbose || verbose
		cfg.LinkerArgs = append(cfg.LinkerArgs, linkerArgs...)
		for _, lib := range libs {
			cfg.LinkerArgs = append(cfg.LinkerArgs, "-l"+lib)
		}

		if len(inputFiles) == 0 {
			util.Error(token.Token{FileIndex: -1}, "no input files specified.")
		}
		if outFile == "" {
			outFile = "a.out"
			if asmOnly {
				outFile = strings.TrimSuffix(filepath.Base(inputFiles[0]), filepath.Ext(inputFiles[0])) + ".s"
			}
		}

		stage := func(format string, args ...any) {
			if cfg.Verbose {
				fmt.Printf(format+"\n", args...)
			}
		}

		stage("----------------------")
		stage("Tokenizing %d source file(s) (std: %s)...", len(inputFiles), cfg.StdName)
		records, tokens := readAndTokenizeFiles(inputFiles, cfg)
		util.SetSourceFiles(records)

		stage("Parsing tokens into AST...")
		root := parser.NewParser(tokens, cfg).Parse()

		if cfg.IsFeatureEnabled(config.FeatFold) {
			stage("Folding constants...")
			root = ast.FoldConstants(root)
		}

		stage("Generating x86-64 code...")
		prog, err := generate(root, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		stage("Generated %d function(s), %d line(s)", len(prog.Funcs), prog.Lines())

		asm, err := codegen.NewGASBackend().Generate(prog, cfg)
		if err != nil {
			util.Error(token.Token{FileIndex: -1}, "backend code generation failed: %v", err)
		}

		if asmOnly || cfg.KeepAsm {
			asmFile := outFile
			if !asmOnly {
				asmFile = outFile + ".s"
			}
			stage("Writing assembly to '%s'...", asmFile)
			if err := os.WriteFile(asmFile, asm.Bytes(), 0o644); err != nil {
				util.Error(token.Token{FileIndex: -1}, "could not write '%s': %v", asmFile, err)
			}
			if asmOnly {
				stage("----------------------")
				return nil
			}
		}

		stage("Linking to create '%s' with '%s'...", outFile, cfg.CC)
		if err := assembleAndLink(cfg.CC, outFile, asm.String(), cfg.LinkerArgs); err != nil {
			util.Error(token.Token{FileIndex: -1}, "assembler/linker failed: %v", err)
		}

		stage("----------------------")
		stage("Done!")
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// generate runs the code generator, turning a backend invariant violation
// into an error instead of a crash.
func generate(root *ast.Node, cfg *config.Config) (prog *ir.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ice, ok := r.(*util.InternalError); ok {
				err = ice
				return
			}
			panic(r)
		}
	}()
	return codegen.NewContext(cfg).Generate(root), nil
}

func assembleAndLink(cc, outFile, asm string, linkerArgs []string) error {
	asmFile, err := os.CreateTemp("", "lcc-*.s")
	if err != nil {
		return fmt.Errorf("failed to create temp file for assembly: %w", err)
	}
	defer os.Remove(asmFile.Name())
	if _, err := asmFile.WriteString(asm); err != nil {
		return fmt.Errorf("failed to write assembly: %w", err)
	}
	asmFile.Close()

	ccArgs := append([]string{"-no-pie", "-o", outFile, asmFile.Name()}, linkerArgs...)
	cmd := exec.Command(cc, ccArgs...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s command failed: %w\nOutput:\n%s", cc, err, string(output))
	}
	return nil
}

func readAndTokenizeFiles(paths []string, cfg *config.Config) ([]util.SourceFileRecord, []token.Token) {
	var records []util.SourceFileRecord
	var allTokens []token.Token

	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			util.Error(token.Token{FileIndex: -1}, "could not read file '%s': %v", path, err)
			continue
		}
		runeContent := []rune(string(content))
		records = append(records, util.SourceFileRecord{Name: path, Content: runeContent})
		tokens := lexer.Tokenize(runeContent, i, cfg)
		allTokens = append(allTokens, tokens[:len(tokens)-1]...)
	}
	allTokens = append(allTokens, token.Token{Type: token.EOF, FileIndex: max(len(paths)-1, 0)})
	return records, allTokens
}
