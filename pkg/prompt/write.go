package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// DateLayout formats the date part of output file names (YYMMDD).
const DateLayout = "060102"

// WriteError reports an output file that could not be written. No partial
// file is left at Path when it is returned.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write prompt %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FileName returns "{projectName}_{YYMMDD}.txt".
func FileName(projectName string, date time.Time) string {
	return fmt.Sprintf("%s_%s.txt", SafeName(projectName), date.Format(DateLayout))
}

// SafeName replaces path separators in a project name so the output file
// stays inside the output directory.
func SafeName(projectName string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(projectName)
}

// Write stores p as outputPath/FileName(projectName, date), creating
// outputPath if needed and replacing a file from the same day. It returns the
// written path.
func Write(p Prompt, outputPath, projectName string, date time.Time, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	target := filepath.Join(outputPath, FileName(projectName, date))

	if err := os.MkdirAll(outputPath, os.ModePerm); err != nil {
		logger.Error("Failed to create output directory", zap.String("path", outputPath), zap.Error(err))
		return "", &WriteError{Path: target, Err: err}
	}

	previous, readErr := os.ReadFile(target)
	replacing := readErr == nil

	tmp, err := os.CreateTemp(outputPath, ".prompt-*.tmp")
	if err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		logger.Error("Failed to write prompt file", zap.String("path", target), zap.Error(err))
		return "", &WriteError{Path: target, Err: err}
	}
	if _, err := tmp.WriteString(p.Text); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fail(err)
	}

	if replacing {
		added, removed := lineChanges(string(previous), p.Text)
		logger.Info("Replaced prompt file from the same day",
			zap.String("path", target),
			zap.Int("linesAdded", added),
			zap.Int("linesRemoved", removed))
	}
	logger.Debug("Wrote prompt file", zap.String("path", target), zap.Int("sizeBytes", len(p.Text)))
	return target, nil
}

// lineChanges counts lines added and removed between two versions of a file.
func lineChanges(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// IsWriteError reports whether err is or wraps a *WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
