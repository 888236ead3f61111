// Package config persists per-project prompt settings in a single TOML file
// keyed by absolute project path.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the store file created in the user's home directory.
const DefaultFileName = ".prompt-gen.toml"

// EnvPath overrides the store location when set.
const EnvPath = "PROMPT_GEN_CONFIG"

// ProjectConfig describes how to build a prompt for one source tree.
type ProjectConfig struct {
	ProjectName       string   `toml:"project_name" yaml:"project_name"`
	OutputPath        string   `toml:"output_path" yaml:"output_path"`
	IntroPrompt       string   `toml:"intro_prompt" yaml:"intro_prompt"`
	AllowedExtensions []string `toml:"allowed_extensions" yaml:"allowed_extensions"`
	DenyDirs          []string `toml:"deny_dirs" yaml:"deny_dirs"`
	History           []string `toml:"history" yaml:"-"`
}

// Normalize trims scalar fields and turns the extension and directory lists
// into ordered sets: blanks and duplicates are dropped and extensions lose any
// leading dot. History is left untouched.
func (c ProjectConfig) Normalize() ProjectConfig {
	c.ProjectName = strings.TrimSpace(c.ProjectName)
	c.OutputPath = strings.TrimSpace(c.OutputPath)
	c.IntroPrompt = strings.TrimSpace(c.IntroPrompt)
	c.AllowedExtensions = cleanList(c.AllowedExtensions, func(s string) string {
		return strings.TrimLeft(s, ".")
	})
	c.DenyDirs = cleanList(c.DenyDirs, func(s string) string {
		return strings.TrimRight(s, `/\`)
	})
	return c
}

// withDefaults fills an empty project name with the directory's base name and
// an empty output path with the directory itself.
func (c ProjectConfig) withDefaults(projectPath string) ProjectConfig {
	if strings.TrimSpace(c.ProjectName) == "" {
		c.ProjectName = filepath.Base(projectPath)
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		c.OutputPath = projectPath
	}
	return c
}

func (c ProjectConfig) clone() ProjectConfig {
	c.AllowedExtensions = append([]string(nil), c.AllowedExtensions...)
	c.DenyDirs = append([]string(nil), c.DenyDirs...)
	c.History = append([]string(nil), c.History...)
	return c
}

// SplitList parses a comma separated answer into its trimmed, non-empty items.
func SplitList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func cleanList(items []string, fix func(string) string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = fix(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// DefaultPath returns $PROMPT_GEN_CONFIG when set, otherwise
// ~/.prompt-gen.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Key returns the store key for a project directory: its cleaned absolute path.
func Key(projectPath string) (string, error) {
	return filepath.Abs(projectPath)
}
