package cmd

import (
	"fmt"

	"promptgen/pkg/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the stored project settings",
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the project's stored settings as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := storedProject(opts)
				if err != nil {
					return err
				}
				dir, err := resolveDir(opts)
				if err != nil {
					return err
				}
				key, err := config.Key(dir)
				if err != nil {
					return err
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(map[string]config.ProjectConfig{key: cfg})
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the location of the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), store.Path())
				return nil
			},
		},
	)
	return configCmd
}
