package cli

import (
	"fmt"

	"orubacontacts/internal/utils"

	"github.com/spf13/cobra"
)

// NewTemplateCommand пишет пустой шаблон импорта больниц с примерами.
func NewTemplateCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:          "template",
		Short:        "Write the hospital import template workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.CreateHospitalTemplate(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "hospital-import-template.xlsx", "output path")
	return cmd
}
