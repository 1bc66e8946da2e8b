package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/toyz/axonbind/internal/diagnostics"
	"github.com/toyz/axonbind/internal/scan"
	"github.com/toyz/axonbind/pkg/binding"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("axon-bind", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		verboseFlag = flags.Bool("verbose", false, "Show every declaration in annotation form and the resolved config")
		quietFlag   = flags.Bool("quiet", false, "Only show errors")
		envFlag     = flags.String("env", "", "Environment file to load before reading AXONBIND_* settings (defaults to .env when present)")
	)

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: axon-bind [options] <directory-paths...>\n\n")
		fmt.Fprintf(stderr, "Checks //axon::bind declarations in Go sources.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nDirectory Patterns:\n")
		fmt.Fprintf(stderr, "  ./...              Scan current directory and all subdirectories recursively\n")
		fmt.Fprintf(stderr, "  ./internal/...     Scan internal directory and all its subdirectories\n")
		fmt.Fprintf(stderr, "  ./handlers         Scan only the specific directory\n")
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	dirs := flags.Args()
	if len(dirs) == 0 {
		fmt.Fprintf(stderr, "Error: At least one directory path is required\n\n")
		flags.Usage()
		return 1
	}

	opts := []diagnostics.Option{diagnostics.WithWriters(stdout, stderr)}
	var reporter *diagnostics.Reporter
	switch {
	case *quietFlag:
		reporter = diagnostics.NewQuietReporter(opts...)
	case *verboseFlag:
		reporter = diagnostics.NewVerboseReporter(opts...)
	default:
		reporter = diagnostics.NewReporter(diagnostics.LevelInfo, opts...)
	}

	reporter.Header("binding declaration check")

	if err := loadEnv(*envFlag); err != nil {
		reporter.Error("failed to load environment: %v", err)
		return 1
	}
	cfg, err := binding.LoadConfig()
	if err != nil {
		reporter.Error("%v", err)
		return 1
	}
	reporter.Verbose("config: max body size %d, coercion %s, allow extra attributes %t",
		cfg.MaxBodySize, cfg.Coercion, cfg.AllowExtraAttributes)

	packages, err := scan.ExpandPatterns(dirs)
	if err != nil {
		reporter.Error("%v", err)
		return 1
	}

	mod, err := diagnostics.FindModule(packages[0])
	if err != nil {
		reporter.Warn("module not found, showing directories instead of import paths: %v", err)
	} else {
		reporter.Verbose("module %s (go %s)", mod.Path, mod.GoVersion)
	}

	scanner := scan.NewScanner()
	files, declarations := 0, 0
	for _, dir := range packages {
		findings, scanned, err := scanner.ScanDir(dir)
		files += scanned
		if err != nil {
			reporter.Error("%v", err)
			continue
		}
		if len(findings) == 0 {
			continue
		}

		reporter.Section(packageName(mod, dir))
		reporter.Indent()
		for _, f := range findings {
			report(reporter, f)
			if f.Err == nil {
				declarations++
			}
		}
		reporter.Unindent()
	}

	reporter.Summary("Summary", []diagnostics.Stat{
		{Label: "Packages scanned", Value: len(packages)},
		{Label: "Files scanned", Value: files},
		{Label: "Declarations", Value: declarations},
		{Label: "Warnings", Value: reporter.Warnings()},
		{Label: "Errors", Value: reporter.Errors()},
	})

	if reporter.Errors() > 0 {
		return 1
	}
	return 0
}

func report(reporter *diagnostics.Reporter, f scan.Finding) {
	if f.Err != nil {
		reporter.Problem(f.Position(), f.Err)
		return
	}
	if f.Target == "" {
		reporter.Warn("%s: declaration is not attached to a type or function", f.Position())
		return
	}

	decl := f.Declaration
	reporter.Success("%s %s: %s %s", f.Position(), f.Target, decl.Variant, strings.Join(decl.Variant.Methods(), "|"))
	reporter.Verbose("%s", decl)
}

func packageName(mod *diagnostics.Module, dir string) string {
	if mod == nil {
		return dir
	}
	importPath, err := mod.ImportPath(dir)
	if err != nil {
		return dir
	}
	return importPath
}

// loadEnv loads path, or .env when path is empty and the file exists.
// Variables already set in the environment win.
func loadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
