package cli

import (
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports",
	}
	cmd.AddCommand(newReportSprintCmd())
	return cmd
}

func newReportSprintCmd() *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "sprint <sprint-id>",
		Short: "Render a markdown sprint report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			if export {
				path, err := app.ReportUC.ExportSprintReport(cmd.Context(), args[0], globalConfig.ReportDir())
				if err != nil {
					return err
				}
				cmd.Printf("report written to %s\n", path)
				return nil
			}

			content, err := app.ReportUC.GenerateSprintReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Print(content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "write the report under the report directory")
	return cmd
}
