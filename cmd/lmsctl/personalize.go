package main

import (
	"fmt"

	"learnfinity/internal/app"
	"learnfinity/internal/usecase"

	"github.com/spf13/cobra"
)

func newPersonalizeCmd(e *env) *cobra.Command {
	var courseID, employeeID string
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "personalize",
		Short: "Generate personalized course content for one employee",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cid, err := parseID("course", courseID)
			if err != nil {
				return err
			}
			eid, err := parseID("employee", employeeID)
			if err != nil {
				return err
			}
			in := usecase.GenerateInput{CourseID: cid, EmployeeID: eid}

			return e.withContainer(func(c *app.Container) error {
				ctx := commandContext(cmd)
				if enqueue {
					job, created, err := c.UC.Personalization.Enqueue(ctx, in)
					if err != nil {
						return err
					}
					if !created {
						fmt.Fprintln(cmd.ErrOrStderr(), "a job for this pair is already queued")
					}
					return printJSON(cmd.OutOrStdout(), job)
				}

				content, err := c.UC.Personalization.Generate(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), content)
			})
		},
	}
	cmd.Flags().StringVar(&courseID, "course", "", "Course id")
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee id")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue a job for the server worker instead of generating inline")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func newRegenerateCmd(e *env) *cobra.Command {
	var courseID string
	var workers int

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate personalized content for every employee enrolled in a course",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cid, err := parseID("course", courseID)
			if err != nil {
				return err
			}
			return e.withContainer(func(c *app.Container) error {
				if workers <= 0 {
					workers = c.Config.Worker.BulkWorkers
				}
				summary, err := c.UC.Courses.RegenerateInline(commandContext(cmd), cid, workers)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, msg := range summary.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
				fmt.Fprintf(out, "%d updated, %d failed\n", summary.Updated, summary.Failed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&courseID, "course", "", "Course id")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent generations (defaults to BULK_WORKERS)")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func newLearningPathCmd(e *env) *cobra.Command {
	var employeeID string
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "learning-path",
		Short: "Show an employee's learning path, generating it if none is stored",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eid, err := parseID("employee", employeeID)
			if err != nil {
				return err
			}
			return e.withContainer(func(c *app.Container) error {
				ctx := commandContext(cmd)
				get := c.UC.LearningPaths.Get
				if regenerate {
					get = c.UC.LearningPaths.Generate
				}
				p, err := get(ctx, eid)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p.Path)
			})
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee id")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Replace the stored path with a fresh one")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}
