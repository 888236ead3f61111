// Package ignore matches project-relative paths against gitignore-style patterns.
package ignore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FileName is the per-project ignore file read from the project root.
const FileName = ".promptignore"

// Pattern is one compiled line of an ignore file.
type Pattern struct {
	Regexp  *regexp.Regexp // Compiled form of the glob.
	Negate  bool           // Line started with '!'.
	DirOnly bool           // Line ended with '/'.
	Line    string         // Original line.
	LineNo  int            // 1-based line number in the source.
}

// Matcher holds an ordered list of patterns. The last matching pattern wins.
type Matcher struct {
	patterns []*Pattern
	logger   *zap.Logger
}

// New returns an empty Matcher. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Load compiles the ignore file at filePath. A missing file yields an empty
// Matcher and no error.
func Load(filePath string, logger *zap.Logger) (*Matcher, error) {
	m := New(logger)
	content, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("No ignore file", zap.String("path", filePath))
			return m, nil
		}
		return nil, fmt.Errorf("failed to read ignore file %s: %w", filePath, err)
	}
	m.AddLines(strings.Split(string(content), "\n")...)
	m.logger.Debug("Loaded ignore file", zap.String("path", filePath), zap.Int("patterns", len(m.patterns)))
	return m, nil
}

// AddLines compiles lines and appends them after the existing patterns.
// Blank lines, comments and lines that fail to compile are skipped.
func (m *Matcher) AddLines(lines ...string) {
	for i, line := range lines {
		p, err := parseLine(line)
		if err != nil {
			m.logger.Warn("Invalid ignore pattern", zap.String("pattern", line), zap.Error(err))
			continue
		}
		if p == nil {
			continue
		}
		p.LineNo = i + 1
		m.patterns = append(m.patterns, p)
	}
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Match reports whether the slash-separated relative path is ignored.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	matched, _ := m.MatchWithPattern(relPath, isDir)
	return matched
}

// MatchWithPattern is Match but also returns the deciding pattern, if any.
func (m *Matcher) MatchWithPattern(relPath string, isDir bool) (bool, *Pattern) {
	relPath = strings.TrimPrefix(relPath, "./")
	var (
		matched  bool
		deciding *Pattern
	)
	for _, p := range m.patterns {
		if !p.matches(relPath, isDir) {
			continue
		}
		matched = !p.Negate
		deciding = p
	}
	return matched, deciding
}

func (p *Pattern) matches(relPath string, isDir bool) bool {
	if p.DirOnly && !isDir {
		parent := path.Dir(relPath)
		if parent == "." || parent == "/" {
			return false
		}
		return p.Regexp.MatchString(parent)
	}
	return p.Regexp.MatchString(relPath)
}

// parseLine returns nil for blank and comment lines.
func parseLine(line string) (*Pattern, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	p := &Pattern{Line: line}
	if strings.HasPrefix(trimmed, "!") {
		p.Negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		p.DirOnly = true
		trimmed = strings.TrimRight(trimmed, "/")
	}
	anchored := strings.Contains(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil, nil
	}

	prefix := "^(?:.*/)?"
	if anchored {
		prefix = "^"
	}
	re, err := regexp.Compile(prefix + globToRegex(trimmed) + "(?:/.*)?$")
	if err != nil {
		return nil, err
	}
	p.Regexp = re
	return p, nil
}

// EscapeGlob quotes the wildcard characters of s so it matches literally.
func EscapeGlob(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// globToRegex translates *, ** and ? into regular expression syntax and
// quotes everything else. A backslash makes the next character literal.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case strings.HasPrefix(glob[i:], "**"):
			b.WriteString(".*")
			i++
		case glob[i] == '*':
			b.WriteString("[^/]*")
		case glob[i] == '?':
			b.WriteString("[^/]")
		case glob[i] == '\\' && i+1 < len(glob):
			i++
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	return b.String()
}
