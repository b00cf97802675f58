package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	sort.Strings(out)
	return out
}

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "com/example/Order.java", "package com.example;\nclass Order {}\n")
	writeFile(t, dir, "com/example/Customer.java", "package com.example;\nclass Customer {}\n")
	writeFile(t, dir, "com/example/Order.class", "\xca\xfe\xba\xbe")
	writeFile(t, dir, "README.md", "# readme\n")
	writeFile(t, dir, "target/classes/Gen.java", "class Gen {}\n")

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	got := relPaths(files)
	want := []string{"com/example/Customer.java", "com/example/Order.java"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}

	for _, f := range files {
		if !filepath.IsAbs(f.Path) {
			t.Errorf("expected absolute Path, got %s", f.Path)
		}
		if f.Language != "java" {
			t.Errorf("expected java, got %s", f.Language)
		}
	}
}

func TestDiscoverIgnoreFile(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "app/Keep.java", "class Keep {}\n")
	writeFile(t, dir, "generated/Skip.java", "class Skip {}\n")
	writeFile(t, dir, "app/legacy/Old.java", "class Old {}\n")
	writeFile(t, dir, IgnoreFileName, "# generated sources\ngenerated\n")

	files, err := Discover(context.Background(), dir, &Options{ExtraIgnore: []string{"app/legacy"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := relPaths(files)
	if len(got) != 1 || got[0] != "app/Keep.java" {
		t.Fatalf("expected only app/Keep.java, got %v", got)
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "Main.java", "class Main {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
