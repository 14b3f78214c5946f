package cli

import (
	"github.com/spf13/cobra"

	"github.com/anchorworks/sprintflow/internal/application/dto"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var key, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.ProjectUC.CreateProject(cmd.Context(), dto.CreateProjectRequest{
				Key:  key,
				Name: name,
			})
			if err != nil {
				return err
			}

			cmd.Printf("created project %s (%s)\n", p.Key, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "project key (required)")
	cmd.Flags().StringVar(&name, "name", "", "project name (required)")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			projects, err := app.ProjectUC.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			for _, p := range projects {
				cmd.Printf("%-10s %s (tasks: %d)\n", p.Key, p.Name, p.TaskCounter)
			}
			return nil
		},
	}
}
