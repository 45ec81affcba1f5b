package main

import (
	"fmt"

	"learnfinity/internal/app"
	"learnfinity/internal/database/seeder"

	"github.com/spf13/cobra"
)

func newSeedCmd(e *env) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the starter taxonomy and demo data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeders, err := seeder.Select(seeder.Defaults(), only...)
			if err != nil {
				return err
			}

			return e.withContainer(func(c *app.Container) error {
				runner := seeder.Runner{Seeders: seeders, Log: e.log.With("component", "seeder")}
				if err := runner.Run(commandContext(cmd), c.DB); err != nil {
					return err
				}
				for _, s := range seeders {
					fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", s.Name())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", nil, "Run only these seeders (taxonomy, demo)")
	return cmd
}
