package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDepthFirstWalkerVisitsAllFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"top.bin":        []byte("1"),
		"a/mid.bin":      []byte("2"),
		"a/b/c/deep.bin": []byte("3"),
	})

	var files []string
	err := depthFirstWalker{}.Walk(context.Background(), root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			t.Fatalf("unexpected walk error at %s: %v", path, err)
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	sort.Strings(files)
	want := []string{filepath.Join("a", "b", "c", "deep.bin"), filepath.Join("a", "mid.bin"), "top.bin"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("unexpected files: %v", files)
		}
	}
}

func TestDepthFirstWalkerReportsRootError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	called := false
	err := depthFirstWalker{}.Walk(context.Background(), missing, func(path string, d fs.DirEntry, err error) error {
		called = true
		if err == nil {
			t.Fatal("expected access error for missing root")
		}
		return err
	})
	if !called {
		t.Fatal("callback not invoked for missing root")
	}
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestDepthFirstWalkerSkipDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"keep.bin":         []byte("1"),
		"skipme/inner.bin": []byte("2"),
	})

	var files []string
	err := depthFirstWalker{}.Walk(context.Background(), root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && filepath.Base(path) == "skipme" {
			return fs.SkipDir
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.bin" {
		t.Fatalf("expected skipped subtree, got %v", files)
	}
}

func TestDepthFirstWalkerCanceled(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := depthFirstWalker{}.Walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
}
