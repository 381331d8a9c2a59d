package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/paraprep/internal/utils"
)

func TestFindDataFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	p, ok, err := utils.FindDataFile(nested, "example.csv")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if ok {
		t.Fatalf("expected example.csv to be reported missing")
	}
	if p != filepath.Join(root, "data", "example.csv") {
		t.Fatalf("unexpected path: %s", p)
	}

	if err := os.WriteFile(p, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, ok, err = utils.FindDataFile(nested, "example.csv")
	if err != nil || !ok {
		t.Fatalf("expected example.csv to be found, ok=%v err=%v", ok, err)
	}
}

func TestFindProjectRootGoMod(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	file := filepath.Join(root, "main.go")
	if err := os.WriteFile(file, []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}
	got, err := utils.FindProjectRoot(file)
	if err != nil {
		t.Fatalf("find root: %v", err)
	}
	if got != root {
		t.Fatalf("root = %s, want %s", got, root)
	}
}

func TestFindProjectRootMissing(t *testing.T) {
	_, err := utils.FindProjectRoot(string(filepath.Separator))
	if err != nil && !errors.Is(err, utils.ErrRootNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	if err := utils.SafeWriteFile(p, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
