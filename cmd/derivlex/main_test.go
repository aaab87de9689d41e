package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/d4l3k/messagediff"
)

const calcRules = `rules:
  - name: ws
    skip: true
    pattern: {plus: {any: " "}}
  - name: num
    pattern: {plus: {class: "0-9"}}
  - name: op
    pattern: {any: "+-"}
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		t.Fatal(err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = kctx.Run(&runContext{
		stdin:  strings.NewReader(stdin),
		stdout: &out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileAndScan(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "calc.yaml", calcRules)
	inputPath := writeFile(t, dir, "input.txt", "12 + 3")
	tablePath := filepath.Join(dir, "calc.dlxt")

	out, err := run(t, "", "compile", rulesPath, "-o", tablePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "3 rules") {
		t.Errorf("compile output %q", out)
	}

	out, err = run(t, "", "scan", "--table", tablePath, inputPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "0\t2\tnum\t\"12\"\n3\t4\top\t\"+\"\n5\t6\tnum\t\"3\"\n"
	if out != want {
		t.Errorf("scan output:\n%s\nwant:\n%s", out, want)
	}
}

func TestScan_JSONFromStdin(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "calc.yaml", calcRules)

	out, err := run(t, "7-8", "scan", "--rules", rulesPath, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		`{"rule":"num","start":0,"end":1,"text":"7"}`,
		`{"rule":"op","start":1,"end":2,"text":"-"}`,
		`{"rule":"num","start":2,"end":3,"text":"8"}`,
	}
	if diff, equal := messagediff.PrettyDiff(want, lines); !equal {
		t.Errorf("json output:\n%s", diff)
	}
}

func TestScan_Unrecognized(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "calc.yaml", calcRules)

	if _, err := run(t, "1 x 2", "scan", "--rules", rulesPath); err == nil {
		t.Error("expected an unrecognized input error")
	}
	out, err := run(t, "1 x 2", "scan", "--rules", rulesPath, "--skip")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("--skip output %q", out)
	}
}

func TestScan_RuleFilter(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "calc.yaml", calcRules)

	out, err := run(t, "1 + 22 - 3", "scan", "--rules", rulesPath, "--rule", "num")
	if err != nil {
		t.Fatal(err)
	}
	want := "0\t1\tnum\t\"1\"\n4\t6\tnum\t\"22\"\n9\t10\tnum\t\"3\"\n"
	if out != want {
		t.Errorf("scan output:\n%s\nwant:\n%s", out, want)
	}

	if _, err := run(t, "1", "scan", "--rules", rulesPath, "--rule", "num", "--rule", "nope"); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("unknown rule: err = %v", err)
	}
}

func TestScan_SourceFlags(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "calc.yaml", calcRules)

	if _, err := run(t, "", "scan"); err == nil {
		t.Error("one of --rules and --table is required")
	}
	if _, err := run(t, "", "scan", "--rules", rulesPath, "--table", rulesPath); err == nil {
		t.Error("--rules and --table are mutually exclusive")
	}
	if _, err := run(t, "", "scan", "--table", rulesPath); err == nil {
		t.Error("a rule file is not a table file")
	}
}

func TestDot(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "calc.yaml", calcRules)

	out, err := run(t, "", "dot", rulesPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "digraph") || !strings.Contains(out, "num") {
		t.Errorf("dot output %q", out)
	}

	dotPath := filepath.Join(dir, "calc.dot")
	if _, err := run(t, "", "dot", rulesPath, "-o", dotPath); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Error("dot -o should write the same graph")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", calcRules)
	bad := writeFile(t, dir, "bad.yaml", "rules: [{name: e, pattern: {star: {lit: a}}}]\n")

	out, err := run(t, "", "check", good)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "good.yaml: ok") {
		t.Errorf("check output %q", out)
	}

	out, err = run(t, "", "check", good, bad)
	if err == nil {
		t.Error("expected check to fail")
	}
	if !strings.Contains(out, "bad.yaml:") || !strings.Contains(out, "empty string") {
		t.Errorf("check output %q", out)
	}
}
