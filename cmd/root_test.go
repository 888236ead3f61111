package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptgen/pkg/config"
	"promptgen/pkg/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type cliFixture struct {
	project    string
	output     string
	configPath string
}

func newCLIFixture(t *testing.T) cliFixture {
	t.Helper()
	f := cliFixture{
		project:    t.TempDir(),
		output:     t.TempDir(),
		configPath: filepath.Join(t.TempDir(), "prompt-gen.toml"),
	}
	write := func(rel, body string) {
		path := filepath.Join(f.project, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("main.go", "package main\n\n// entry\nfunc main() {}\n")
	write("lib/util.go", "package lib\n")
	write("README.md", "# readme\n")
	return f
}

func (f cliFixture) answers(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.yaml")
	body := "project_name: demo\n" +
		"output_path: " + f.output + "\n" +
		"intro_prompt: Review this code.\n" +
		"allowed_extensions: [go]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func generatedPath(t *testing.T, out string) string {
	t.Helper()
	const prefix = "Prompt file generated: "
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix)
		}
	}
	t.Fatalf("no generated path in output %q", out)
	return ""
}

func TestRoot_GenerateWithAnswersAndGoal(t *testing.T) {
	f := newCLIFixture(t)

	out, err := execute(t, "",
		"--config", f.configPath, "--dir", f.project,
		"--answers", f.answers(t), "--goal", "Add tests")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	path := generatedPath(t, out)
	if filepath.Dir(path) != f.output {
		t.Errorf("prompt written to %s, want directory %s", path, f.output)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"Review this code.", "File: main.go", "File: lib/util.go", "Specific Goal: Add tests"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "README.md") || strings.Contains(got, "// entry") {
		t.Errorf("prompt contains filtered content:\n%s", got)
	}
}

func TestRoot_GenerateInteractive(t *testing.T) {
	f := newCLIFixture(t)

	stdin := "demo\n" + f.output + "\nIntro.\ngo\n\nRefactor lib\n"
	out, err := execute(t, stdin, "--config", f.configPath, "--dir", f.project)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(generatedPath(t, out)); err != nil {
		t.Fatalf("generated prompt missing: %v", err)
	}
	if strings.Contains(out, "Enter the") {
		t.Errorf("questions should not be printed for non-terminal input: %q", out)
	}

	store, err := config.Open(f.configPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg, ok, err := store.Get(f.project)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if cfg.ProjectName != "demo" || len(cfg.History) != 1 || cfg.History[0] != "Refactor lib" {
		t.Errorf("stored config = %+v", cfg)
	}
}

func TestRoot_EmptyGoalFails(t *testing.T) {
	f := newCLIFixture(t)

	_, err := execute(t, "   \n",
		"--config", f.configPath, "--dir", f.project, "--answers", f.answers(t))
	if err == nil {
		t.Fatal("expected an error for an empty goal")
	}
	entries, _ := os.ReadDir(f.output)
	if len(entries) != 0 {
		t.Errorf("output dir has %d files, want 0", len(entries))
	}
}

func TestRoot_UnreadableDirectoryLoggedOnce(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	f := newCLIFixture(t)
	locked := filepath.Join(f.project, "lib")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	core, logs := observer.New(zapcore.WarnLevel)
	old := logging.Logger
	logging.Logger = zap.New(core)
	t.Cleanup(func() { logging.Logger = old })

	if _, err := execute(t, "",
		"--config", f.configPath, "--dir", f.project,
		"--answers", f.answers(t), "--goal", "Partial tree"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var warned int
	for _, entry := range logs.All() {
		if entry.ContextMap()["path"] == locked {
			warned++
		}
	}
	if warned != 1 {
		t.Errorf("unreadable directory logged %d times at warn, want 1", warned)
	}
}

func TestHistoryCmd(t *testing.T) {
	f := newCLIFixture(t)
	answers := f.answers(t)

	for _, goal := range []string{"First goal", "Second goal"} {
		if _, err := execute(t, "",
			"--config", f.configPath, "--dir", f.project,
			"--answers", answers, "--goal", goal); err != nil {
			t.Fatalf("generate %q: %v", goal, err)
		}
	}

	out, err := execute(t, "", "history", "--config", f.configPath, "--dir", f.project)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := "1. First goal\n2. Second goal\n"
	if out != want {
		t.Errorf("history output = %q, want %q", out, want)
	}
}

func TestHistoryCmd_UnknownProject(t *testing.T) {
	f := newCLIFixture(t)

	_, err := execute(t, "", "history", "--config", f.configPath, "--dir", f.project)
	if !errors.Is(err, config.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, statErr := os.Stat(f.configPath); !os.IsNotExist(statErr) {
		t.Error("history must not create the config file")
	}
}

func TestConfigShowCmd(t *testing.T) {
	f := newCLIFixture(t)
	if _, err := execute(t, "",
		"--config", f.configPath, "--dir", f.project,
		"--answers", f.answers(t), "--goal", "Ship it"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "config", "show", "--config", f.configPath, "--dir", f.project)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{`project_name = "demo"`, `history = ["Ship it"]`, `allowed_extensions = ["go"]`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPathCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	out, err := execute(t, "", "config", "path", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "dev" {
		t.Errorf("version --short = %q, want dev", out)
	}

	out, err = execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "promptgen version dev") {
		t.Errorf("version = %q", out)
	}
}
