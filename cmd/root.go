package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"promptgen/pkg/config"
	"promptgen/pkg/generate"
	"promptgen/pkg/logging"
	"promptgen/pkg/version"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AppName tags log entries and names the binary.
const AppName = "promptgen"

type rootOptions struct {
	configPath string
	debug      bool
	dir        string
	goal       string
	answers    string
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand generates a prompt for the project directory.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: "promptgen builds an LLM prompt from a source tree",
		Long: `promptgen writes one text file holding the project's intro prompt, a tree of
its source files, their contents with comments stripped, and the goal you
give it. Settings are kept per project in ~/.prompt-gen.toml.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.debug {
				return nil
			}
			if err := logging.Setup(true, AppName, version.Version); err != nil {
				return fmt.Errorf("failed to initialize debug logger: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvPath+" or ~/"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "project directory (default current directory)")
	rootCmd.Flags().StringVarP(&opts.goal, "goal", "g", "", "goal for this prompt; asked interactively when empty")
	rootCmd.Flags().StringVar(&opts.answers, "answers", "", "YAML file answering the first-run questions")

	rootCmd.AddCommand(newHistoryCmd(opts), newConfigCmd(opts), newVersionCmd())
	return rootCmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func runGenerate(cmd *cobra.Command, opts *rootOptions) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	projectDir, err := resolveDir(opts)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	prompts := promptWriter(cmd)

	var provider config.Provider = config.Interactive{In: in, Out: prompts}
	if opts.answers != "" {
		provider = config.AnswersFile(opts.answers)
	}
	var goals generate.GoalSource = generate.PromptGoal{In: in, Out: prompts}
	if opts.goal != "" {
		goals = generate.StaticGoal(opts.goal)
	}

	g := &generate.Generator{
		Store:    store,
		Provider: provider,
		Goals:    goals,
		Logger:   logging.Logger,
	}
	res, err := g.Run(projectDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Prompt file generated: %s\n", res.OutputPath)
	return nil
}

func openStore(opts *rootOptions) (*config.Store, error) {
	path := opts.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
	}
	return config.Open(path, logging.Logger)
}

func resolveDir(opts *rootOptions) (string, error) {
	if opts.dir != "" {
		return opts.dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return dir, nil
}

// promptWriter returns where interactive questions go: the command's output
// when stdin is a terminal, nowhere when answers are piped in.
func promptWriter(cmd *cobra.Command) io.Writer {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return cmd.OutOrStdout()
	}
	return io.Discard
}
