package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/anchorworks/sprintflow/internal/application/dto"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskSplitCmd())
	cmd.AddCommand(newTaskStatusCmd())
	cmd.AddCommand(newTaskAssignCmd())
	cmd.AddCommand(newTaskCommentCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskHistoryCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var projectKey, title, description, priority, team, sprintID, assignee string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task at the end of its container",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			req := dto.CreateTaskRequest{
				ProjectKey: projectKey,
				Title:      title,
				Priority:   priority,
				Team:       team,
			}
			if description != "" {
				req.Description = &description
			}
			if sprintID != "" {
				req.SprintID = &sprintID
			}
			if assignee != "" {
				req.Assignee = &assignee
			}

			t, err := app.TaskUC.CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}

			cmd.Printf("created %s: %s\n", t.Key, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project key (required)")
	cmd.Flags().StringVar(&title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&description, "desc", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "MEDIUM", "LOW | MEDIUM | HIGH | URGENT")
	cmd.Flags().StringVar(&team, "team", "", "team label")
	cmd.Flags().StringVar(&sprintID, "sprint", "", "sprint id (default: backlog)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee name")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var projectKey, sprintID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a sprint or the backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			var sprint *string
			if sprintID != "" {
				sprint = &sprintID
			}

			tasks, err := app.TaskUC.ListTasks(cmd.Context(), projectKey, sprint)
			if err != nil {
				return err
			}

			for _, t := range tasks {
				assignee := "-"
				if t.Assignee != nil {
					assignee = *t.Assignee
				}
				cmd.Printf("%3d  %-10s %-14s %-8s %-12s %s\n",
					t.Position, t.Key, t.Status, t.Priority, assignee, t.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project key (required)")
	cmd.Flags().StringVar(&sprintID, "sprint", "", "sprint id (default: backlog)")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var sprintID string
	var backlog bool
	var position int

	cmd := &cobra.Command{
		Use:   "move <task-key>",
		Short: "Move a task to a position, optionally into another sprint or the backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			req := dto.MoveTaskRequest{TaskKey: args[0], Position: position}
			switch {
			case backlog:
				// nil sprint = backlog
			case sprintID != "":
				req.SprintID = &sprintID
			default:
				// Stay in the current container.
				current, err := app.TaskUC.GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				req.SprintID = current.SprintID
			}

			t, err := app.TaskUC.MoveTask(cmd.Context(), req)
			if err != nil {
				return err
			}

			cmd.Printf("moved %s to position %d\n", t.Key, t.Position)
			return nil
		},
	}

	cmd.Flags().StringVar(&sprintID, "sprint", "", "destination sprint id")
	cmd.Flags().BoolVar(&backlog, "backlog", false, "move to the project backlog")
	cmd.Flags().IntVar(&position, "position", 0, "zero-based destination position")
	return cmd
}

func newTaskSplitCmd() *cobra.Command {
	var targetSprintID string
	var withComments, withDescription bool

	cmd := &cobra.Command{
		Use:   "split <task-key>",
		Short: "Split a task into a successor in its lineage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			req := dto.SplitTaskRequest{
				TaskKey:             args[0],
				TransferComments:    withComments,
				TransferDescription: withDescription,
			}
			if targetSprintID != "" {
				req.TargetSprintID = &targetSprintID
			}

			t, err := app.TaskUC.SplitTask(cmd.Context(), req)
			if err != nil {
				return err
			}

			cmd.Printf("split %s into %s: %s\n", args[0], t.Key, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetSprintID, "target", "", "destination sprint id (default: source container)")
	cmd.Flags().BoolVar(&withComments, "comments", false, "copy comments to the successor")
	cmd.Flags().BoolVar(&withDescription, "description", false, "copy the description to the successor")
	return cmd
}

func newTaskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-key> <status>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := app.TaskUC.UpdateStatus(cmd.Context(), args[0], strings.ToUpper(args[1]))
			if err != nil {
				return err
			}

			cmd.Printf("%s is now %s\n", t.Key, t.Status)
			return nil
		},
	}
}

func newTaskAssignCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "assign <task-key> [assignee]",
		Short: "Assign a task, or clear the assignee",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			var assignee *string
			if !clear {
				if len(args) < 2 {
					return cmd.Help()
				}
				assignee = &args[1]
			}

			t, err := app.TaskUC.Assign(cmd.Context(), args[0], assignee)
			if err != nil {
				return err
			}

			if assignee == nil {
				cmd.Printf("unassigned %s\n", t.Key)
			} else {
				cmd.Printf("assigned %s to %s\n", t.Key, *assignee)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove the assignee")
	return cmd
}

func newTaskCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <task-key> <body>",
		Short: "Comment on a task; @names are notified",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.TaskUC.AddComment(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			cmd.Printf("commented on %s", args[0])
			if len(c.Mentions) > 0 {
				cmd.Printf(" (mentioned %s)", strings.Join(c.Mentions, ", "))
			}
			cmd.Println()
			return nil
		},
	}
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-key>",
		Short: "Show a task and its split lineage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := app.TaskUC.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Printf("%s  %s\n", t.Key, t.Title)
			cmd.Printf("status: %s  priority: %s  position: %d\n", t.Status, t.Priority, t.Position)
			if t.Assignee != nil {
				cmd.Printf("assignee: %s\n", *t.Assignee)
			}
			if t.Description != nil {
				cmd.Printf("\n%s\n", *t.Description)
			}

			chain, err := app.TaskUC.GetChain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(chain.Nodes) > 1 {
				cmd.Printf("\nlineage (%d sprints):\n", chain.SprintCount)
				for _, n := range chain.Nodes {
					marker := " "
					if n.IsCurrent {
						marker = "*"
					}
					cmd.Printf("%s %s%-10s [%s] %s - %s\n",
						marker, strings.Repeat("  ", n.Depth), n.Key, n.Status, n.Title, n.Sprint)
				}
			}
			return nil
		},
	}
}

func newTaskHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <task-key>",
		Short: "Show a task's audit log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(globalConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			activities, err := app.TaskUC.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			for _, a := range activities {
				cmd.Printf("%s  %-16s %s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Type, a.Actor)
			}
			return nil
		},
	}
}
