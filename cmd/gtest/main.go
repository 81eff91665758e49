package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
)

type Execution struct {
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

type FileTestResult struct {
	File       string     `json:"file"`
	Hash       string     `json:"hash"`
	GoldenHash string     `json:"golden_hash,omitempty"`
	Status     string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message    string     `json:"message,omitempty"`
	Diff       string     `json:"diff,omitempty"`
	Compile    *Execution `json:"compile,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	targetCompiler = flag.String("target-compiler", "./lcc", "Path to the compiler under test.")
	targetArgs     = flag.String("target-args", "", "Extra arguments for the compiler (space-separated).")
	generateGolden = flag.Bool("generate-golden", false, "Write the golden assembly for every test file instead of comparing.")
	testFiles      = flag.String("test-files", "tests/*.c", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each compiler invocation.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	useCache       = flag.Bool("cached", false, "Reuse passing results whose source and golden hashes are unchanged.")
	goldenDir      = flag.String("dir", "", "Directory to store/read golden files (defaults to source file dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	if *jobs < 1 {
		*jobs = 1
	}

	tempDir, err := os.MkdirTemp("", "gtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)
	setupInterruptHandler(tempDir)

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	if *generateGolden {
		handleGenerateGolden(files, tempDir)
		return
	}
	handleRunTestSuite(files, tempDir)
}

// setupInterruptHandler is used to clean up on CTRL+C
func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func getGoldenPath(sourceFile string) string {
	name := "." + filepath.Base(sourceFile) + ".golden.s"
	if *goldenDir != "" {
		return filepath.Join(*goldenDir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func handleGenerateGolden(files []string, tempDir string) {
	if *goldenDir != "" {
		if err := os.MkdirAll(*goldenDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *goldenDir, err)
		}
	}
	for _, file := range files {
		fileHash, err := hashFile(file)
		if err != nil {
			log.Fatalf("%s[ERROR]%s Could not hash source file %s: %v\n", cRed, cNone, file, err)
		}
		asm, run, err := compileToAsm(file, tempDir, fileHash)
		if err != nil {
			log.Fatalf("%s[ERROR]%s Could not generate golden file for %s: %v\n%s", cRed, cNone, file, err, run.Stderr)
		}
		goldenFile := getGoldenPath(file)
		if err := os.WriteFile(goldenFile, asm, 0644); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFile, err)
		}
		log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFile)
	}
}

func handleRunTestSuite(files []string, tempDir string) {
	previousResults := make(TestSuiteResults)
	outputFile := reportPath()
	if prevData, err := os.ReadFile(outputFile); err == nil {
		if json.Unmarshal(prevData, &previousResults) != nil {
			log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, outputFile)
			previousResults = make(TestSuiteResults)
		}
	}

	skipList := lo.SliceToMap(strings.Fields(*skipFiles), func(f string) (string, bool) { return f, true })

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file, tempDir, previousResults)
			}
		}()
	}

	for _, file := range files {
		if skipList[file] || skipList[filepath.Base(file)] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	resultsMap := writeJSONReport(allResults)

	if hasFailures(resultsMap) {
		os.Exit(1)
	}
}

func testFile(file, tempDir string, previousResults TestSuiteResults) *FileTestResult {
	fileHash, err := hashFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to hash source file: %v", err)}
	}

	goldenFile := getGoldenPath(file)
	golden, err := os.ReadFile(goldenFile)
	if err != nil {
		return &FileTestResult{File: file, Hash: fileHash, Status: "SKIP", Message: "No golden file " + filepath.Base(goldenFile)}
	}
	goldenHash := fmt.Sprintf("%x", xxhash.Sum64(golden))

	if *useCache {
		if prev, ok := previousResults[file]; ok && prev.Status == "PASS" && prev.Hash == fileHash && prev.GoldenHash == goldenHash {
			if *verbose {
				log.Printf("[%s] Source and golden unchanged, reusing cached result.", file)
			}
			cached := *prev
			cached.Cached = true
			return &cached
		}
	}

	asm, compile, err := compileToAsm(file, tempDir, fileHash)
	result := &FileTestResult{File: file, Hash: fileHash, GoldenHash: goldenHash, Compile: &compile}
	if err != nil {
		result.Status = "FAIL"
		result.Message = err.Error()
		result.Diff = compile.Stderr
		return result
	}

	if diff := cmp.Diff(asmLines(golden), asmLines(asm)); diff != "" {
		result.Status = "FAIL"
		result.Message = "Assembly differs from golden file"
		result.Diff = diff
		return result
	}
	result.Status = "PASS"
	result.Message = "Assembly matches golden file"
	return result
}

// asmLines splits assembly into lines, ignoring trailing whitespace and
// the final newline.
func asmLines(asm []byte) []string {
	lines := strings.Split(strings.TrimRight(string(asm), "\n"), "\n")
	return lo.Map(lines, func(l string, _ int) string { return strings.TrimRight(l, " \t\r") })
}

// compileToAsm runs the compiler in -S mode and returns the assembly it wrote.
func compileToAsm(sourceFile, tempDir, fileHash string) ([]byte, Execution, error) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	asmPath := filepath.Join(tempDir, fileHash+"-"+filepath.Base(sourceFile)+".s")
	args := []string{"-S", "-o", asmPath}
	args = append(args, strings.Fields(*targetArgs)...)
	args = append(args, sourceFile)

	compile := executeCommand(ctx, *targetCompiler, args...)
	if compile.TimedOut {
		return nil, compile, fmt.Errorf("compilation timed out after %s", *timeout)
	}
	if compile.ExitCode != 0 {
		return nil, compile, fmt.Errorf("compilation failed with exit code %d", compile.ExitCode)
	}
	asm, err := os.ReadFile(asmPath)
	if err != nil {
		return nil, compile, fmt.Errorf("compilation succeeded but assembly was not written: %w", err)
	}
	return asm, compile, nil
}

// executeCommand runs a command with a timeout and captures its stderr
func executeCommand(ctx context.Context, command string, args ...string) Execution {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	execResult := Execution{
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if ctx.Err() == context.DeadlineExceeded {
		execResult.TimedOut = true
		execResult.ExitCode = -1
	} else if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			execResult.ExitCode = exitErr.ExitCode()
		} else {
			execResult.ExitCode = -2
			execResult.Stderr += "\nExecution error: " + err.Error()
		}
	}
	return execResult
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored, cached int
	var totalCompile time.Duration
	var compiled int

	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		suffix := ""
		if result.Cached {
			cached++
			suffix = " (cached)"
		}
		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s%s\n", cGreen, cNone, result.Message, suffix)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}

		if result.Compile != nil && !result.Cached {
			compiled++
			totalCompile += result.Compile.Duration
			if *verbose {
				fmt.Printf("  compile: %s\n", formatDuration(result.Compile.Duration))
			}
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if cached > 0 {
		fmt.Printf(" (%d cached)", cached)
	}
	fmt.Println()
	if compiled > 0 {
		fmt.Printf("Average compile time for %s%s%s: %s\n", cBold, filepath.Base(*targetCompiler), cNone,
			strings.TrimSpace(formatDuration(totalCompile/time.Duration(compiled))))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func reportPath() string {
	if *goldenDir != "" {
		return filepath.Join(*goldenDir, *outputJSON)
	}
	return *outputJSON
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := lo.SliceToMap(results, func(r *FileTestResult) (string, *FileTestResult) { return r.File, r })

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := reportPath()
	if *goldenDir != "" {
		if err := os.MkdirAll(*goldenDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *goldenDir, err)
		}
	}
	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	return lo.SomeBy(lo.Values(results), func(r *FileTestResult) bool {
		return r.Status == "FAIL" || r.Status == "ERROR"
	})
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
