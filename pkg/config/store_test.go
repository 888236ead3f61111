package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func fixedProvider(cfg ProjectConfig) Provider {
	return ProviderFunc(func(string) (ProjectConfig, error) { return cfg, nil })
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	s, err := Open(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, _ := openTemp(t)
	if got := s.Projects(); len(got) != 0 {
		t.Errorf("Projects() = %v, want empty", got)
	}
}

func TestOpen_InvalidTOMLIsReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("this is = = not toml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, nil)
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Open error = %v, want *ReadError", err)
	}
	if readErr.Path != path {
		t.Errorf("ReadError.Path = %q, want %q", readErr.Path, path)
	}
}

func TestLoadOrCreate_CreatesSingleEntry(t *testing.T) {
	s, path := openTemp(t)
	project := t.TempDir()

	calls := 0
	provider := ProviderFunc(func(projectPath string) (ProjectConfig, error) {
		calls++
		if projectPath != project {
			t.Errorf("provider got %q, want %q", projectPath, project)
		}
		return ProjectConfig{
			ProjectName:       "demo",
			OutputPath:        "/tmp/out",
			IntroPrompt:       "You are helping with demo.",
			AllowedExtensions: []string{".rs", "toml", "rs"},
			DenyDirs:          []string{"target/", "node_modules"},
		}, nil
	})

	cfg, created, err := s.LoadOrCreate(project, provider)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !created {
		t.Error("created = false on first run")
	}
	if want := []string{"rs", "toml"}; !reflect.DeepEqual(cfg.AllowedExtensions, want) {
		t.Errorf("AllowedExtensions = %v, want %v", cfg.AllowedExtensions, want)
	}
	if want := []string{"target", "node_modules"}; !reflect.DeepEqual(cfg.DenyDirs, want) {
		t.Errorf("DenyDirs = %v, want %v", cfg.DenyDirs, want)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Projects(); !reflect.DeepEqual(got, []string{project}) {
		t.Errorf("Projects() = %v, want [%s]", got, project)
	}
	stored, ok, err := reopened.Get(project)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if stored.ProjectName != "demo" || stored.IntroPrompt != "You are helping with demo." {
		t.Errorf("stored = %+v", stored)
	}
	if len(stored.History) != 0 {
		t.Errorf("History = %v, want empty", stored.History)
	}

	if _, created, err := reopened.LoadOrCreate(project, provider); err != nil || created {
		t.Errorf("second LoadOrCreate: created=%v err=%v", created, err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
}

func TestLoadOrCreate_AppliesDefaults(t *testing.T) {
	s, _ := openTemp(t)
	project := filepath.Join(t.TempDir(), "my-app")

	cfg, _, err := s.LoadOrCreate(project, fixedProvider(ProjectConfig{AllowedExtensions: []string{"go"}}))
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.ProjectName != "my-app" {
		t.Errorf("ProjectName = %q, want %q", cfg.ProjectName, "my-app")
	}
	if cfg.OutputPath != project {
		t.Errorf("OutputPath = %q, want %q", cfg.OutputPath, project)
	}
}

func TestLoadOrCreate_NoProvider(t *testing.T) {
	s, _ := openTemp(t)
	_, _, err := s.LoadOrCreate(t.TempDir(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadOrCreate_WriteError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	s, err := Open(filepath.Join(blocker, DefaultFileName), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// A regular file where the config directory should be makes Save fail.
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	_, _, err = s.LoadOrCreate(project, fixedProvider(ProjectConfig{ProjectName: "x"}))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("err = %v, want *WriteError", err)
	}
	if _, ok, _ := s.Get(project); ok {
		t.Error("entry kept in memory after failed save")
	}
}

func TestAppendHistory_KeepsOrder(t *testing.T) {
	s, path := openTemp(t)
	project := t.TempDir()
	if _, _, err := s.LoadOrCreate(project, fixedProvider(ProjectConfig{ProjectName: "p"})); err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	goals := []string{"add tests", "fix the parser", "add tests"}
	for _, g := range goals {
		if err := s.AppendHistory(project, g); err != nil {
			t.Fatalf("AppendHistory(%q): %v", g, err)
		}
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	cfg, _, _ := reopened.Get(project)
	if !reflect.DeepEqual(cfg.History, goals) {
		t.Errorf("History = %v, want %v", cfg.History, goals)
	}
}

func TestAppendHistory_UnknownProject(t *testing.T) {
	s, _ := openTemp(t)
	if err := s.AppendHistory(t.TempDir(), "goal"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_MultipleProjects(t *testing.T) {
	s, path := openTemp(t)
	first, second := t.TempDir(), t.TempDir()

	if _, _, err := s.LoadOrCreate(first, fixedProvider(ProjectConfig{
		ProjectName: "Project 1", OutputPath: "/out1", AllowedExtensions: []string{"rs", "toml"}, DenyDirs: []string{"target"},
	})); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.LoadOrCreate(second, fixedProvider(ProjectConfig{
		ProjectName: "Project 2", OutputPath: "/out2", AllowedExtensions: []string{"rs", "md"}, DenyDirs: []string{"dist", "build"},
	})); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"project_name", "allowed_extensions", "deny_dirs", "history"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("config file missing key %q:\n%s", key, data)
		}
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg1, _, _ := reopened.Get(first)
	cfg2, _, _ := reopened.Get(second)
	if cfg1.ProjectName != "Project 1" || !reflect.DeepEqual(cfg1.DenyDirs, []string{"target"}) {
		t.Errorf("first = %+v", cfg1)
	}
	if cfg2.ProjectName != "Project 2" || !reflect.DeepEqual(cfg2.AllowedExtensions, []string{"rs", "md"}) {
		t.Errorf("second = %+v", cfg2)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s, _ := openTemp(t)
	project := t.TempDir()
	if _, _, err := s.LoadOrCreate(project, fixedProvider(ProjectConfig{AllowedExtensions: []string{"go"}})); err != nil {
		t.Fatal(err)
	}
	cfg, _, _ := s.Get(project)
	cfg.AllowedExtensions[0] = "changed"

	again, _, _ := s.Get(project)
	if again.AllowedExtensions[0] != "go" {
		t.Errorf("store mutated through returned config: %v", again.AllowedExtensions)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "/custom/prompt.toml")
	got, err := DefaultPath()
	if err != nil || got != "/custom/prompt.toml" {
		t.Errorf("DefaultPath() = %q, %v", got, err)
	}

	t.Setenv(EnvPath, "")
	t.Setenv("HOME", "/home/tester")
	got, err = DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if want := filepath.Join("/home/tester", DefaultFileName); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
