//go:build !tinygo

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLayoutFillsEmptyGoFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blinker")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"empty.go":  " \n\t\n",
		"full.go":   "package blinker\n",
		"notes.txt": "",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	empty, full, notes := filepath.Join(dir, "empty.go"), filepath.Join(dir, "full.go"), filepath.Join(dir, "notes.txt")

	out, err := run(t, "layout", empty, full, notes)
	if err != nil {
		t.Fatalf("layout: %v\n%s", err, out)
	}
	if !strings.Contains(out, "added layout: "+empty) || !strings.Contains(out, "checked: "+full) {
		t.Errorf("out = %q", out)
	}
	if strings.Contains(out, "notes.txt") {
		t.Errorf("non-Go file reported: %q", out)
	}

	got, _ := os.ReadFile(empty)
	if !strings.HasPrefix(string(got), "package blinker\n") || !strings.Contains(string(got), "// Functions") {
		t.Errorf("empty.go = %q", got)
	}
	if got, _ := os.ReadFile(full); string(got) != "package blinker\n" {
		t.Errorf("full.go rewritten: %q", got)
	}
	if got, _ := os.ReadFile(notes); len(got) != 0 {
		t.Errorf("notes.txt rewritten: %q", got)
	}
}

func TestLayoutMissingFile(t *testing.T) {
	if _, err := run(t, "layout", filepath.Join(t.TempDir(), "gone.go")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestPackageFor(t *testing.T) {
	tests := map[string]string{
		"/src/led-driver/x.go": "leddriver",
		"/src/Blinker/x.go":    "blinker",
		"/src/2fast/x.go":      "main",
	}
	for path, want := range tests {
		if got := packageFor(path); got != want {
			t.Errorf("packageFor(%q) = %q, want %q", path, got, want)
		}
	}
}
