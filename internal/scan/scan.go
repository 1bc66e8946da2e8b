// Package scan finds //axon::bind declarations in Go source trees.
package scan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/toyz/axonbind/pkg/binding"
)

const annotationPrefix = "axon::bind"

// Finding is one annotation found in a source file. Err is set when the
// annotation does not parse.
type Finding struct {
	File        string
	Line        int
	Text        string
	Target      string
	Declaration binding.Declaration
	Err         error
}

// Position renders the finding location as file:line.
func (f Finding) Position() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// Scanner parses Go files and collects binding annotations.
type Scanner struct {
	fset *token.FileSet
}

func NewScanner() *Scanner {
	return &Scanner{fset: token.NewFileSet()}
}

// skipDirs are never descended into by ExpandPatterns.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
	"_examples":    true,
}

// ExpandPatterns resolves directory arguments. A trailing "/..." selects the
// directory and every subdirectory holding Go files; hidden directories,
// vendor and testdata are skipped.
func ExpandPatterns(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		root, recursive := strings.CutSuffix(pattern, "...")
		if recursive {
			root = strings.TrimSuffix(root, "/")
			if root == "" {
				root = "."
			}
		}
		root = filepath.Clean(root)

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("failed to scan %s: not a directory", pattern)
		}

		if !recursive {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			ok, err := hasGoFiles(path)
			if err != nil {
				return err
			}
			if ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
	}
	return dirs, nil
}

func skipDir(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func hasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(entries, isSourceFile), nil
}

func isSourceFile(entry os.DirEntry) bool {
	name := entry.Name()
	return !entry.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}

// ScanDir returns the annotations in the non-test Go files of dir, ordered
// by file name and line.
func (s *Scanner) ScanDir(dir string) ([]Finding, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var findings []Finding
	files := 0
	for _, entry := range entries {
		if !isSourceFile(entry) {
			continue
		}
		found, err := s.ScanFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, files, err
		}
		files++
		findings = append(findings, found...)
	}
	return findings, files, nil
}

// ScanFile returns the annotations in one Go file.
func (s *Scanner) ScanFile(path string) ([]Finding, error) {
	file, err := parser.ParseFile(s.fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go file %s: %w", path, err)
	}

	targets := docTargets(file)

	var findings []Finding
	for _, group := range file.Comments {
		for _, comment := range group.List {
			text, ok := annotationText(comment.Text)
			if !ok {
				continue
			}
			decl, err := binding.ParseDeclaration(text)
			findings = append(findings, Finding{
				File:        path,
				Line:        s.fset.Position(comment.Pos()).Line,
				Text:        text,
				Target:      targets[group],
				Declaration: decl,
				Err:         err,
			})
		}
	}
	return findings, nil
}

// annotationText returns the comment without its slashes when it is a
// binding annotation.
func annotationText(comment string) (string, bool) {
	text, ok := strings.CutPrefix(comment, "//")
	if !ok {
		return "", false
	}
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, annotationPrefix) {
		return "", false
	}
	rest := text[len(annotationPrefix):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return text, true
}

// docTargets maps doc comment groups to the name of the declaration they
// document.
func docTargets(file *ast.File) map[*ast.CommentGroup]string {
	targets := make(map[*ast.CommentGroup]string)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				targets[d.Doc] = funcName(d)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if ts.Doc != nil {
					targets[ts.Doc] = ts.Name.Name
				}
				if d.Doc != nil && len(d.Specs) == 1 {
					targets[d.Doc] = ts.Name.Name
				}
			}
		}
	}
	return targets
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	recv := fn.Recv.List[0].Type
	if star, ok := recv.(*ast.StarExpr); ok {
		recv = star.X
	}
	if ident, ok := recv.(*ast.Ident); ok {
		return ident.Name + "." + fn.Name.Name
	}
	return fn.Name.Name
}
