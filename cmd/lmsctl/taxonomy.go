package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"learnfinity/internal/app"
	"learnfinity/internal/domain/taxonomy"

	"github.com/spf13/cobra"
)

func newTaxonomyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Manage the skills taxonomy",
	}
	cmd.AddCommand(newTaxonomyImportCmd(e))
	return cmd
}

func newTaxonomyImportCmd(e *env) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert taxonomy skills from a CSV or JSON file",
		Long: `Upsert taxonomy skills from a file.

CSV rows are category,subcategory,group,skill[,keywords[,description]] with keywords separated by ";".
JSON files hold an array of {category, subcategory, group, skill, keywords}.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := readTaxonomyFile(file)
			if err != nil {
				return err
			}
			return e.withContainer(func(c *app.Container) error {
				stats, err := c.UC.Taxonomy.Import(commandContext(cmd), items)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a .csv or .json file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readTaxonomyFile(path string) ([]taxonomy.ImportItem, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("--file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var items []taxonomy.ImportItem
		if err := json.NewDecoder(f).Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	}
	return taxonomy.ParseCSV(f)
}
