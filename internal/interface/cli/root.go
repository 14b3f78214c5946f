package cli

import (
	"os"

	"github.com/spf13/cobra"

	appconfig "github.com/anchorworks/sprintflow/internal/app/config"
	infraConfig "github.com/anchorworks/sprintflow/internal/infra/config"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig appconfig.Config

// NewRoot builds the sprintflow command tree
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprintflow",
		Short: "Sprint and task tracking with split lineage",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			baseDir := ".sprintflow"
			if home := os.Getenv("SPRINTFLOW_HOME"); home != "" {
				baseDir = home
			}

			cfg, err := infraConfig.LoadSettings(baseDir)
			if err != nil {
				return err
			}
			globalConfig = cfg
			return nil
		},
		RunE:          func(c *cobra.Command, _ []string) error { return c.Help() },
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newSprintCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newReportCmd())
	return cmd
}

// newInitCmd creates the database and directory layout
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the sprintflow database",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			cmd.Printf("initialized %s\n", globalConfig.DatabasePath())
			return nil
		},
	}
}
