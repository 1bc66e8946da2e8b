package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/axonbind/pkg/binding"
)

const handlersSource = `package handlers

// CreateOrder is the body of POST /orders.
//
//axon::bind write -Accept=json -Groups=Default,create -Sequence
type CreateOrder struct {
	SKU string
}

//axon::bind read
type (
	ListOrders struct{}
)

type OrderController struct{}

// Update replaces an order.
// axon::bind patch -Cache=10
func (c *OrderController) Update() {}

//axon::binder is not an annotation
//axon::route GET /orders
func helper() {}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanner_ScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handlers.go")
	writeFile(t, path, handlersSource)

	findings, err := NewScanner().ScanFile(path)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	create := findings[0]
	assert.Equal(t, 5, create.Line)
	assert.Equal(t, "CreateOrder", create.Target)
	assert.NoError(t, create.Err)
	assert.Equal(t, binding.Write(
		binding.WithAcceptFormats("json"),
		binding.WithGroupSequence("Default", "create"),
	), create.Declaration)
	assert.Equal(t, path+":5", create.Position())

	list := findings[1]
	assert.Equal(t, "ListOrders", list.Target)
	assert.Equal(t, binding.VariantRead, list.Declaration.Variant)

	update := findings[2]
	assert.Equal(t, "OrderController.Update", update.Target)
	assert.Equal(t, "axon::bind patch -Cache=10", update.Text)
	assert.ErrorIs(t, update.Err, binding.ErrInvalidDeclaration)
}

func TestScanner_ScanFileSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.go")
	writeFile(t, path, "package broken\nfunc {")

	_, err := NewScanner().ScanFile(path)
	assert.Error(t, err)
}

func TestScanner_ScanDirSkipsTests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package p\n\n//axon::bind read\ntype A struct{}\n")
	writeFile(t, filepath.Join(dir, "b.go"), "package p\n\n//axon::bind write\ntype B struct{}\n")
	writeFile(t, filepath.Join(dir, "a_test.go"), "package p\n\n//axon::bind nonsense\ntype T struct{}\n")
	writeFile(t, filepath.Join(dir, "README.md"), "//axon::bind nonsense")

	findings, files, err := NewScanner().ScanDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, files)
	require.Len(t, findings, 2)
	assert.Equal(t, "A", findings[0].Target)
	assert.Equal(t, "B", findings[1].Target)
}

func TestExpandPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "internal", "orders", "orders.go"), "package orders\n")
	writeFile(t, filepath.Join(root, "internal", "docs", "README.md"), "docs")
	writeFile(t, filepath.Join(root, "internal", "only_test", "x_test.go"), "package x\n")
	writeFile(t, filepath.Join(root, "vendor", "lib", "lib.go"), "package lib\n")
	writeFile(t, filepath.Join(root, ".cache", "c.go"), "package c\n")
	writeFile(t, filepath.Join(root, "testdata", "t.go"), "package t\n")

	dirs, err := ExpandPatterns([]string{root + "/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{root, filepath.Join(root, "internal", "orders")}, dirs)

	dirs, err = ExpandPatterns([]string{filepath.Join(root, "internal"), filepath.Join(root, "internal")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "internal")}, dirs, "plain directories are taken as is, once")

	_, err = ExpandPatterns([]string{filepath.Join(root, "missing", "...")})
	assert.Error(t, err)

	_, err = ExpandPatterns([]string{filepath.Join(root, "main.go")})
	assert.Error(t, err)
}

func TestAnnotationText(t *testing.T) {
	tests := []struct {
		comment string
		want    string
		ok      bool
	}{
		{"//axon::bind read", "axon::bind read", true},
		{"// axon::bind write -Accept=json", "axon::bind write -Accept=json", true},
		{"//axon::bind", "axon::bind", true},
		{"//axon::binding read", "", false},
		{"/* axon::bind read */", "", false},
		{"// see axon::bind", "", false},
	}

	for _, tt := range tests {
		got, ok := annotationText(tt.comment)
		assert.Equal(t, tt.ok, ok, tt.comment)
		assert.Equal(t, tt.want, got, tt.comment)
	}
}
