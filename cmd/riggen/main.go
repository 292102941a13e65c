package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"riggen/internal/analyzer"
	"riggen/internal/model"
	"riggen/internal/parser"
	"riggen/internal/reporter"
	"riggen/internal/scanner"
)

var (
	version = "0.3.0"
)

// result is the outcome of loading one header.
type result struct {
	model *model.Model
	err   error
}

func main() {
	// Define flags
	excludeFlag := flag.String("exclude", "", "Comma-separated list of directories or file patterns to exclude (e.g., vendor,build,*_impl.h)")
	jsonFlag := flag.Bool("json", false, "Output the resolved model in JSON format")
	jobsFlag := flag.Int("j", runtime.NumCPU(), "Number of headers to parse in parallel")
	keepGoingFlag := flag.Bool("keep-going", false, "Report headers that fail to resolve and continue with the rest")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: riggen [options] <path> [paths...]\n\n")
		fmt.Fprintf(os.Stderr, "RigGen type extractor - parses C++ headers and prints the resolved classes, enums and aliases\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  riggen ./include                    Resolve every header in ./include\n")
		fmt.Fprintf(os.Stderr, "  riggen --exclude=third_party ./     Resolve all headers, excluding third_party\n")
		fmt.Fprintf(os.Stderr, "  riggen --json Types.h > types.json  Output the model as JSON\n")
	}

	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("riggen version %s\n", version)
		os.Exit(0)
	}

	// Get paths to scan
	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No paths specified")
		fmt.Fprintln(os.Stderr, "Run 'riggen --help' for usage")
		os.Exit(1)
	}

	// Parse exclude patterns
	var excludes []string
	if *excludeFlag != "" {
		excludes = strings.Split(*excludeFlag, ",")
		for i := range excludes {
			excludes[i] = strings.TrimSpace(excludes[i])
		}
	}

	s := scanner.NewScanner(excludes)
	files, err := s.ScanPaths(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning paths: %v\n", err)
		os.Exit(1)
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No C++ headers found")
		os.Exit(0)
	}

	if !*jsonFlag {
		fmt.Printf("Resolving %d header(s)...\n", len(files))
	}

	results := loadAll(files, *jobsFlag)

	// Every header is its own translation unit; failures are reported in
	// input order.
	var models []*model.Model
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Error (%s): %v\n", errorKind(res.err), res.err)
			continue
		}
		models = append(models, res.model)
	}
	if failed > 0 && !*keepGoingFlag {
		os.Exit(1)
	}

	diags := analyzer.NewAnalyzer()
	for _, m := range models {
		diags.AddModel(m)
	}

	r := reporter.NewReporter(os.Stdout, *jsonFlag)
	if err := r.Report(models, diags.Analyze()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// loadAll resolves files with at most jobs running at once. Results are
// indexed like files.
func loadAll(files []string, jobs int) []result {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]result, len(files))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			m, err := model.LoadFile(file)
			results[i] = result{model: m, err: err}
		}()
	}
	wg.Wait()
	return results
}

func errorKind(err error) string {
	var (
		lexErr      *parser.LexError
		syntaxErr   *parser.SyntaxError
		semanticErr *parser.SemanticError
		unresolved  *model.UnresolvedTypeError
		cycle       *model.AliasCycleError
	)
	switch {
	case errors.As(err, &lexErr):
		return "lex error"
	case errors.As(err, &syntaxErr):
		return "syntax error"
	case errors.As(err, &semanticErr):
		return "semantic error"
	case errors.As(err, &unresolved):
		return "unresolved type"
	case errors.As(err, &cycle):
		return "alias cycle"
	}
	return "error"
}
