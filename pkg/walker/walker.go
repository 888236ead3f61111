// Package walker collects the files of a project that belong in a prompt.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileEntry is one collected file.
type FileEntry struct {
	RelPath  string // Slash-separated path relative to the walk root.
	Ext      string // Extension without the leading dot.
	Contents []byte // Raw file contents.
}

// Matcher excludes paths relative to the walk root.
type Matcher interface {
	Match(relPath string, isDir bool) bool
}

// Options selects which files Collect returns.
type Options struct {
	Allowed []string // Extensions to include, without dots.
	Deny    []string // Directory names skipped with their whole subtree.
	Ignore  Matcher  // Optional extra exclusions.
}

// Result is the outcome of a walk.
type Result struct {
	Entries []FileEntry
	Errors  []*FileSystemError // Subtrees or files that could not be read.
	Skipped int                // Symlinks and binary files left out.
}

// FileSystemError reports a directory or file the walk had to skip.
type FileSystemError struct {
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// Collect walks root in lexical order and returns the regular files whose
// extension is allowed, outside denied directories. Symlinks are never
// followed. Unreadable directories and files are recorded in Result.Errors and
// skipped; only a root that is missing or not a directory fails the walk.
func Collect(root string, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return res, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return res, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("project root %s is not a directory", absRoot)
	}

	allowed := toSet(opts.Allowed)
	deny := toSet(opts.Deny)
	logger.Debug("Starting file collection",
		zap.String("root", absRoot),
		zap.Strings("allowed", opts.Allowed),
		zap.Strings("deny", opts.Deny))

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fsErr := &FileSystemError{Path: path, Err: err}
			res.Errors = append(res.Errors, fsErr)
			logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)
		relPath = filepath.ToSlash(relPath)

		if d.Type()&fs.ModeSymlink != 0 {
			logger.Debug("Skipping symlink", zap.String("path", relPath))
			res.Skipped++
			return nil
		}

		if d.IsDir() {
			if deny[d.Name()] {
				logger.Debug("Skipping denied directory", zap.String("directory", relPath))
				return filepath.SkipDir
			}
			if opts.Ignore != nil && opts.Ignore.Match(relPath, true) {
				logger.Debug("Skipping ignored directory", zap.String("directory", relPath))
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		ext := extension(d.Name())
		if ext == "" || !allowed[ext] {
			return nil
		}
		if opts.Ignore != nil && opts.Ignore.Match(relPath, false) {
			logger.Debug("Skipping ignored file", zap.String("file", relPath))
			return nil
		}

		contents, err := os.ReadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, &FileSystemError{Path: path, Err: err})
			logger.Warn("Skipping unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if looksBinary(contents) {
			logger.Debug("Skipping binary file", zap.String("file", relPath))
			res.Skipped++
			return nil
		}

		res.Entries = append(res.Entries, FileEntry{RelPath: relPath, Ext: ext, Contents: contents})
		logger.Debug("Collected file", zap.String("file", relPath), zap.Int("sizeBytes", len(contents)))
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	logger.Debug("Completed file collection",
		zap.Int("files", len(res.Entries)),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// extension returns the text after the last dot of name. Dotfiles such as
// .gitignore have no extension.
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
