package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anchorworks/sprintflow/internal/application/dto"
)

func newSprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Manage sprints",
	}
	cmd.AddCommand(newSprintCreateCmd())
	cmd.AddCommand(newSprintListCmd())
	cmd.AddCommand(newSprintStartCmd())
	cmd.AddCommand(newSprintCompleteCmd())
	cmd.AddCommand(newSprintReactivateCmd())
	cmd.AddCommand(newSprintUATCmd())
	return cmd
}

func newSprintCreateCmd() *cobra.Command {
	var projectKey, name, start, end string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sprint in PLANNED state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			req := dto.CreateSprintRequest{ProjectKey: projectKey, Name: name}
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid start date: %w", err)
				}
				req.StartDate = &t
			}
			if end != "" {
				t, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("invalid end date: %w", err)
				}
				req.EndDate = &t
			}

			sp, err := app.SprintUC.CreateSprint(cmd.Context(), req)
			if err != nil {
				return err
			}

			cmd.Printf("created sprint %s (%s)\n", sp.Name, sp.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project key (required)")
	cmd.Flags().StringVar(&name, "name", "", "sprint name (required)")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newSprintListCmd() *cobra.Command {
	var projectKey string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's sprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			sprints, err := app.SprintUC.ListSprints(cmd.Context(), projectKey)
			if err != nil {
				return err
			}

			for _, sp := range sprints {
				cmd.Printf("%-26s %-10s %s\n", sp.ID, sp.Status, sp.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project key (required)")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newSprintStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <sprint-id>",
		Short: "Activate a PLANNED sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			sp, err := app.SprintUC.StartSprint(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Printf("sprint %s is now %s\n", sp.Name, sp.Status)
			return nil
		},
	}
}

func newSprintCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <sprint-id>",
		Short: "Complete a UAT sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			sp, err := app.SprintUC.CompleteSprint(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Printf("sprint %s is now %s\n", sp.Name, sp.Status)
			return nil
		},
	}
}

func newSprintReactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <sprint-id>",
		Short: "Move a UAT or COMPLETED sprint back to ACTIVE (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			sp, err := app.SprintUC.ReactivateSprint(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Printf("sprint %s is now %s\n", sp.Name, sp.Status)
			return nil
		},
	}
}

func newSprintUATCmd() *cobra.Command {
	var action, target string

	cmd := &cobra.Command{
		Use:   "uat <sprint-id>",
		Short: "Move a sprint to UAT, closing, moving or splitting unfinished tasks (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			req := dto.TransitionToUATRequest{
				SprintID: args[0],
				Action:   dto.UATAction(action),
			}
			if target != "" {
				req.TargetSprintID = &target
			}

			sp, err := app.SprintUC.TransitionToUAT(cmd.Context(), req)
			if err != nil {
				return err
			}

			cmd.Printf("sprint %s is now %s (%d tasks)\n", sp.Name, sp.Status, len(sp.Tasks))
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "close_all | move_all | split_all (required)")
	cmd.Flags().StringVar(&target, "target", "", "destination sprint id for move_all/split_all")
	cmd.MarkFlagRequired("action")
	return cmd
}
