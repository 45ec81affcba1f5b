package main

import (
	"fmt"
	"time"

	"learnfinity/internal/app"
	"learnfinity/internal/database/migration"
	"learnfinity/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withContainer(func(c *app.Container) error {
				r := migration.Runner{Source: migrations.FS, Logf: func(format string, args ...any) {
					e.log.SugaredLogger.Infof(format, args...)
				}}
				ctx := commandContext(cmd)
				out := cmd.OutOrStdout()

				if status {
					items, err := r.Status(ctx, c.DB.SQLDB())
					if err != nil {
						return err
					}
					for _, s := range items {
						applied := "pending"
						if s.AppliedAt != nil {
							applied = s.AppliedAt.Format(time.RFC3339)
						}
						fmt.Fprintf(out, "V%d %-32s %s\n", s.Version, s.Name, applied)
					}
					return nil
				}

				n, err := r.Run(ctx, c.DB.SQLDB())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d migrations applied\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "List migrations and when they were applied")
	return cmd
}
