package main

import (
	"context"
	"encoding/json"
	"io"

	"learnfinity/internal/app"
	"learnfinity/internal/config"
	"learnfinity/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// env is shared by every subcommand. The container is only built by commands
// that need the database.
type env struct {
	cfg config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var verbose bool

	root := &cobra.Command{
		Use:           "lmsctl",
		Short:         "Operate the LearnFinity skills and personalization backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			mode := "production"
			if verbose {
				mode = "development"
			}
			lg, err := logger.New(mode)
			if err != nil {
				return err
			}
			e.log = lg
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			e.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newTaxonomyCmd(e),
		newNormalizeCmd(e),
		newGapsCmd(e),
		newPersonalizeCmd(e),
		newRegenerateCmd(e),
		newLearningPathCmd(e),
		newTokenCmd(e),
	)
	return root
}

// withContainer runs fn against a freshly built container and closes it.
func (e *env) withContainer(fn func(c *app.Container) error) error {
	c, err := app.NewContainer(e.cfg, e.log)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()
	return fn(c)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
