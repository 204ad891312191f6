package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pos-backoffice/internal/domain"
	"pos-backoffice/internal/importer"
	"pos-backoffice/pkg/apperrors"
)

var templateOutput string

var templateCmd = &cobra.Command{
	Use:   "template <type>",
	Short: "Write a CSV import template",
	Long:  `Writes the CSV template for an import type, with German column labels and example rows.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		importType := domain.ImportType(args[0])
		data, err := importer.Template(importType)
		if err != nil {
			return apperrors.MappingError("%v", err)
		}

		out := templateOutput
		if out == "" {
			out = importer.TemplateFilename(importType)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return apperrors.FileError("cannot write %s: %v", out, err)
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "output file (default: <type>_import_vorlage.csv)")
	rootCmd.AddCommand(templateCmd)
}
