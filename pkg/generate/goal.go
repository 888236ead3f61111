package generate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyGoal is returned when the goal is blank. Nothing is written.
var ErrEmptyGoal = errors.New("goal must not be empty")

// GoalSource supplies the per-run goal.
type GoalSource interface {
	Goal() (string, error)
}

// StaticGoal is a goal given up front, e.g. on the command line.
type StaticGoal string

// Goal returns g.
func (g StaticGoal) Goal() (string, error) {
	return string(g), nil
}

// GoalFunc adapts a function to GoalSource.
type GoalFunc func() (string, error)

// Goal calls f.
func (f GoalFunc) Goal() (string, error) {
	return f()
}

// PromptGoal asks for the goal on Out and reads one line from In.
type PromptGoal struct {
	In  io.Reader
	Out io.Writer
}

// Goal prompts and returns the trimmed answer.
func (p PromptGoal) Goal() (string, error) {
	fmt.Fprintln(p.Out, "Enter a specific goal or feature for the project:")
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read goal: %w", err)
	}
	return strings.TrimSpace(line), nil
}
