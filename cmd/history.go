package cmd

import (
	"fmt"

	"promptgen/pkg/config"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the goals of earlier prompts for the project, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storedProject(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.History) == 0 {
				fmt.Fprintln(out, "No goals recorded yet.")
				return nil
			}
			for i, goal := range cfg.History {
				fmt.Fprintf(out, "%d. %s\n", i+1, goal)
			}
			return nil
		},
	}
}

// storedProject returns the stored entry for the selected project or an
// ErrNotFound error; it never creates one.
func storedProject(opts *rootOptions) (config.ProjectConfig, error) {
	store, err := openStore(opts)
	if err != nil {
		return config.ProjectConfig{}, err
	}
	dir, err := resolveDir(opts)
	if err != nil {
		return config.ProjectConfig{}, err
	}
	cfg, ok, err := store.Get(dir)
	if err != nil {
		return config.ProjectConfig{}, err
	}
	if !ok {
		key, _ := config.Key(dir)
		return config.ProjectConfig{}, fmt.Errorf("%w: %s (run promptgen there first)", config.ErrNotFound, key)
	}
	return cfg, nil
}
