package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider supplies the settings for a project that has no stored entry.
type Provider interface {
	ProjectConfig(projectPath string) (ProjectConfig, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(projectPath string) (ProjectConfig, error)

// ProjectConfig calls f.
func (f ProviderFunc) ProjectConfig(projectPath string) (ProjectConfig, error) {
	return f(projectPath)
}

// Interactive asks for each setting on Out and reads one line per answer from
// In. Callers that read more lines from the same input afterwards should pass
// a *bufio.Reader so no buffered input is lost.
type Interactive struct {
	In  io.Reader
	Out io.Writer
}

// ProjectConfig runs the first-run questionnaire for projectPath.
func (p Interactive) ProjectConfig(projectPath string) (ProjectConfig, error) {
	r := bufio.NewReader(p.In)
	ask := func(question string) (string, error) {
		if _, err := fmt.Fprint(p.Out, question); err != nil {
			return "", err
		}
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("reading answer to %q: %w", strings.TrimSpace(question), err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintln(p.Out, "Configuration not found for the current directory.")
	fmt.Fprintln(p.Out, "Let's create a new configuration.")

	var cfg ProjectConfig
	var err error
	if cfg.ProjectName, err = ask(fmt.Sprintf("Enter the project name (default: %s): ", filepath.Base(projectPath))); err != nil {
		return ProjectConfig{}, err
	}
	if cfg.OutputPath, err = ask(fmt.Sprintf("Enter the output path (default: %s): ", projectPath)); err != nil {
		return ProjectConfig{}, err
	}
	if cfg.IntroPrompt, err = ask("Enter the introductory prompt: "); err != nil {
		return ProjectConfig{}, err
	}
	exts, err := ask("Enter the allowed file extensions (comma-separated): ")
	if err != nil {
		return ProjectConfig{}, err
	}
	cfg.AllowedExtensions = SplitList(exts)
	dirs, err := ask("Enter the directories to ignore (comma-separated): ")
	if err != nil {
		return ProjectConfig{}, err
	}
	cfg.DenyDirs = SplitList(dirs)

	return cfg, nil
}

// AnswersFile reads the first-run settings from a YAML document using the
// same keys as the TOML store, for unattended setup.
type AnswersFile string

// ProjectConfig decodes the answers file. projectPath is only used by the
// defaults the store applies afterwards.
func (a AnswersFile) ProjectConfig(projectPath string) (ProjectConfig, error) {
	data, err := os.ReadFile(string(a))
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("failed to read answers file: %w", err)
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("failed to parse answers file %s: %w", string(a), err)
	}
	return cfg, nil
}
