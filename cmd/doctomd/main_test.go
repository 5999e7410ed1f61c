package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pageB = "<html><body><h2>B</h2><p>page b</p></body></html>"

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Single(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "b.doc", pageB)
	out := filepath.Join(dir, "custom.md")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-no-metadata", "-o", out, in}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# B\n\npage b\n" {
		t.Errorf("output = %q", data)
	}
}

func TestRun_SingleDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "b.html", pageB)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{in}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "b.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "---\ntitle: B\n") || !strings.HasSuffix(string(data), "# B\n\npage b\n") {
		t.Errorf("output = %q", data)
	}
}

func TestRun_MarkdownInputNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "notes.md", "# Notes\n\nkeep  me\n")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-no-metadata", in}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	src, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(src) != "# Notes\n\nkeep  me\n" {
		t.Errorf("input was modified: %q", src)
	}
	out, err := os.ReadFile(filepath.Join(dir, "notes.converted.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "# Notes\n\nkeep  me\n" {
		t.Errorf("output = %q", out)
	}

	if code := run(context.Background(), []string{"-o", in, in}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code with -o equal to the input = %d, want 1", code)
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := map[string]string{
		filepath.Join("docs", "page.doc"): filepath.Join("docs", "page.md"),
		filepath.Join("docs", "page.md"):  filepath.Join("docs", "page.converted.md"),
		"README":                          "README.md",
	}
	for in, want := range tests {
		if got := defaultOutput(in); got != want {
			t.Errorf("defaultOutput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRun_Stdout(t *testing.T) {
	in := writeInput(t, t.TempDir(), "b.html", pageB)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-no-metadata", "-o", "-", in}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if stdout.String() != "# B\n\npage b\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_Batch(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "b.html", pageB)
	writeInput(t, dir, "empty.doc", "")
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-d", dir, "-od", out, "-workers", "2"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(out, "b.md")); err != nil {
		t.Errorf("b.md missing: %v", err)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	empty := writeInput(t, dir, "empty.doc", "")
	failDir := t.TempDir()
	writeInput(t, failDir, "empty.doc", "")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, 0},
		{"no input", nil, 2},
		{"input and directory", []string{"-d", dir, empty}, 2},
		{"unknown flag", []string{"-nope"}, 2},
		{"invalid workers", []string{"-workers", "0", empty}, 2},
		{"failed conversion", []string{empty}, 1},
		{"missing file", []string{filepath.Join(dir, "missing.doc")}, 1},
		{"every batch file failed", []string{"-d", failDir, "-od", t.TempDir()}, 1},
		{"missing directory", []string{"-d", filepath.Join(dir, "nope")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(context.Background(), tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("exit code = %d, want %d; stderr:\n%s", got, tt.want, stderr.String())
			}
		})
	}
}
