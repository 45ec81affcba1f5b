package main

import (
	"errors"

	"learnfinity/internal/app"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newNormalizeCmd(e *env) *cobra.Command {
	var employeeID string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Map an employee's free-text skills onto the taxonomy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseID("employee", employeeID)
			if err != nil {
				return err
			}
			return e.withContainer(func(c *app.Container) error {
				summary, err := c.UC.Normalization.NormalizeEmployee(commandContext(cmd), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee id")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func newGapsCmd(e *env) *cobra.Command {
	var employeeID, positionID string

	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Show an employee's skill gaps against a position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseID("employee", employeeID)
			if err != nil {
				return err
			}
			var pos uuid.UUID
			if positionID != "" {
				if pos, err = parseID("position", positionID); err != nil {
					return err
				}
			}
			return e.withContainer(func(c *app.Container) error {
				res, err := c.UC.Gaps.Analyze(commandContext(cmd), id, pos)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee id")
	cmd.Flags().StringVar(&positionID, "position", "", "Position id (defaults to the employee's position)")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func parseID(name, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.New("--" + name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("--" + name + " must be a uuid")
	}
	return id, nil
}
