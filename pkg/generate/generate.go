// Package generate runs the prompt pipeline for one project directory.
package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"promptgen/pkg/config"
	"promptgen/pkg/ignore"
	"promptgen/pkg/prompt"
	"promptgen/pkg/walker"

	"go.uber.org/zap"
)

// Generator wires the pipeline's collaborators. Store and Goals are required;
// Provider is consulted only for projects without a stored entry.
type Generator struct {
	Store    *config.Store
	Provider config.Provider
	Goals    GoalSource
	Now      func() time.Time
	Logger   *zap.Logger
}

// Result summarises a successful run.
type Result struct {
	OutputPath string
	Files      []string
	Created    bool // The project entry was created by this run.
	Skipped    int
	FSErrors   []*walker.FileSystemError
}

// Run loads or creates the project's config, asks for the goal, collects and
// strips the project's files, writes the prompt and finally records the goal
// in the project's history. Config and output failures abort the run;
// unreadable subtrees are reported in Result.FSErrors.
func (g *Generator) Run(projectDir string) (Result, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := g.Now
	if now == nil {
		now = time.Now
	}
	startTime := now()

	root, err := config.Key(projectDir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get absolute path: %w", err)
	}
	logger = logger.With(zap.String("project", root))

	cfg, created, err := g.Store.LoadOrCreate(root, g.Provider)
	if err != nil {
		return Result{}, err
	}

	goal, err := g.Goals.Goal()
	if err != nil {
		return Result{}, err
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return Result{}, ErrEmptyGoal
	}

	outputDir := resolveOutputDir(root, cfg.OutputPath)
	matcher := g.loadIgnore(root, logger)
	excludeOwnOutput(matcher, root, outputDir, cfg.ProjectName)

	collected, err := walker.Collect(root, walker.Options{
		Allowed: cfg.AllowedExtensions,
		Deny:    cfg.DenyDirs,
		Ignore:  matcher,
	}, logger)
	if err != nil {
		return Result{}, fmt.Errorf("failed to collect files: %w", err)
	}
	if len(collected.Entries) == 0 {
		logger.Warn("No files to include after filtering", zap.Strings("allowedExtensions", cfg.AllowedExtensions))
	}

	p := prompt.Build(cfg, root, collected.Entries, goal)
	path, err := prompt.Write(p, outputDir, cfg.ProjectName, now(), logger)
	if err != nil {
		return Result{}, err
	}

	if err := g.Store.AppendHistory(root, goal); err != nil {
		return Result{}, err
	}

	logger.Info("Prompt generated",
		zap.String("outputFile", path),
		zap.Int("totalFiles", len(p.Files)),
		zap.Int("unreadable", len(collected.Errors)),
		zap.Duration("elapsed", now().Sub(startTime)))

	return Result{
		OutputPath: path,
		Files:      p.Files,
		Created:    created,
		Skipped:    collected.Skipped,
		FSErrors:   collected.Errors,
	}, nil
}

// loadIgnore reads the project's ignore file. A file that exists but cannot
// be read is logged and treated as empty.
func (g *Generator) loadIgnore(root string, logger *zap.Logger) *ignore.Matcher {
	m, err := ignore.Load(filepath.Join(root, ignore.FileName), logger)
	if err != nil {
		logger.Warn("Ignoring unreadable ignore file", zap.Error(err))
		return ignore.New(logger)
	}
	return m
}

// resolveOutputDir expands a leading ~ and anchors relative paths at the
// project root.
func resolveOutputDir(root, outputPath string) string {
	if outputPath == "~" || strings.HasPrefix(outputPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			outputPath = filepath.Join(home, strings.TrimPrefix(outputPath, "~"))
		}
	}
	if outputPath == "" {
		return root
	}
	if !filepath.IsAbs(outputPath) {
		return filepath.Join(root, outputPath)
	}
	return filepath.Clean(outputPath)
}

// excludeOwnOutput keeps earlier prompts out of the next one when they are
// written inside the project.
func excludeOwnOutput(m *ignore.Matcher, root, outputDir, projectName string) {
	rel, err := filepath.Rel(root, outputDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	pattern := "/" + ignore.EscapeGlob(prompt.SafeName(projectName)) + "_??????.txt"
	if rel != "." {
		pattern = "/" + ignore.EscapeGlob(filepath.ToSlash(rel)) + pattern
	}
	m.AddLines(pattern)
}
