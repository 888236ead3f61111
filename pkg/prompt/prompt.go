// Package prompt assembles and writes the prompt document.
//
// A prompt always contains, in this order: the project's intro text, a tree of
// the collected files, one fenced section per file with comments and blank
// lines removed, and the goal line.
package prompt

import (
	"fmt"
	"strings"

	"promptgen/pkg/config"
	"promptgen/pkg/strip"
	"promptgen/pkg/walker"
)

// GoalPrefix starts the final line of every prompt.
const GoalPrefix = "Specific Goal: "

// Prompt is an assembled document.
type Prompt struct {
	Text  string
	Files []string // Relative paths in the order they appear in Text.
}

// Build assembles the prompt for entries, in their given order. rootLabel
// heads the tree section.
func Build(cfg config.ProjectConfig, rootLabel string, entries []walker.FileEntry, goal string) Prompt {
	var b strings.Builder
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.RelPath)
	}

	if intro := strings.TrimSpace(cfg.IntroPrompt); intro != "" {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}

	b.WriteString(RenderTree(rootLabel, files))
	b.WriteString("\n\n")

	for _, e := range entries {
		body := RemoveEmptyLines(strip.Comments(string(e.Contents), e.Ext))
		fence := fenceFor(body)
		fmt.Fprintf(&b, "File: %s\n", e.RelPath)
		b.WriteString(fence + e.Ext + "\n")
		if body != "" {
			b.WriteString(body + "\n")
		}
		b.WriteString(fence + "\n\n")
	}

	b.WriteString(GoalPrefix + goal + "\n")
	return Prompt{Text: b.String(), Files: files}
}

// RemoveEmptyLines drops lines that are empty or only whitespace.
func RemoveEmptyLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// fenceFor returns a backtick fence longer than any run inside body.
func fenceFor(body string) string {
	fence := "```"
	for strings.Contains(body, fence) {
		fence += "`"
	}
	return fence
}
