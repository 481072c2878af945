package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

var taskHeaders = []string{"ID", "PROJECT", "TITLE", "STATUS", "PRIORITY", "POINTS", "DUE"}

var priorities = []chartago.TaskPriority{
	chartago.TaskPriorityUrgent,
	chartago.TaskPriorityHigh,
	chartago.TaskPriorityMedium,
	chartago.TaskPriorityLow,
	chartago.TaskPriorityBacklog,
}

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and manage tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksCreateCmd(a),
		newTasksStatusCmd(a),
		newTasksDeleteCmd(a),
		newTasksAssignCmd(a),
		newTasksUnassignCmd(a),
	)
	return cmd
}

// normalize lowercases and drops spaces, dashes and underscores so
// "work-in-progress" matches "Work In Progress"
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

var statusAliases = map[string]chartago.TaskStatus{
	"wip":    chartago.TaskStatusWorkInProgress,
	"review": chartago.TaskStatusUnderReview,
	"done":   chartago.TaskStatusCompleted,
}

func parseStatus(s string) (chartago.TaskStatus, error) {
	if status, ok := statusAliases[normalize(s)]; ok {
		return status, nil
	}
	for _, status := range chartago.TaskStatuses {
		if normalize(string(status)) == normalize(s) {
			return status, nil
		}
	}
	names := make([]string, len(chartago.TaskStatuses))
	for i, status := range chartago.TaskStatuses {
		names[i] = string(status)
	}
	return "", &chartago.ValidationError{
		Field:   "status",
		Message: "Unknown status " + strconv.Quote(s) + ". Use one of: " + strings.Join(names, ", ") + ".",
	}
}

func parsePriority(s string) (chartago.TaskPriority, error) {
	if s == "" {
		return "", nil
	}
	for _, p := range priorities {
		if normalize(string(p)) == normalize(s) {
			return p, nil
		}
	}
	return "", &chartago.ValidationError{Field: "priority", Message: "Unknown priority " + strconv.Quote(s) + "."}
}

func newTasksListCmd(a *app) *cobra.Command {
	var projectID int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, or a project's tasks with --project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}

			var tasks []*chartago.Task
			var err error
			if projectID > 0 {
				tasks, err = a.client.Tasks.ListByProject(cmd.Context(), projectID)
			} else {
				tasks, err = a.client.Tasks.ListMine(cmd.Context())
			}
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{
					strconv.Itoa(t.ID),
					strconv.Itoa(t.ProjectID),
					t.Title,
					renderStatus(t.Status),
					string(t.Priority),
					optionalInt(t.Points),
					formatDate(t.DueDate),
				})
			}
			printTable(a.out, taskHeaders, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "list the tasks of this project")
	return cmd
}

func newTasksCreateCmd(a *app) *cobra.Command {
	var description, status, priority, tags, due string
	var points int

	cmd := &cobra.Command{
		Use:     "create <project-id> <title>",
		Short:   "Create a task in a project",
		Example: `  chartago tasks create 4 "Design board" --priority high --points 3 --due 2025-02-01`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			params := &chartago.CreateTaskParams{
				ProjectID:   projectID,
				Title:       args[1],
				Description: description,
				Tags:        tags,
			}
			if status != "" {
				if params.Status, err = parseStatus(status); err != nil {
					return err
				}
			}
			if params.Priority, err = parsePriority(priority); err != nil {
				return err
			}
			if params.DueDate, err = parseDate("due", due); err != nil {
				return err
			}
			if cmd.Flags().Changed("points") {
				params.Points = &points
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}

			task, err := a.client.Tasks.Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			printSuccess(a.out, "CREATED task %d %s", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default To Do)")
	cmd.Flags().StringVar(&priority, "priority", "", "Urgent, High, Medium, Low or Backlog")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&points, "points", 0, "story points")
	return cmd
}

func newTasksStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to another status",
		Long: `Move a task to another status. Status names are matched loosely:
"wip", "work-in-progress" and "Work In Progress" are the same, and
"review" and "done" stand for Under Review and Completed.`,
		Example: `  chartago tasks status 12 "under review"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task id", args[0])
			if err != nil {
				return err
			}
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}

			task, err := a.client.Tasks.UpdateStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			printSuccess(a.out, "Task %d is now %s", task.ID, task.Status)
			return nil
		},
	}
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task id", args[0])
			if err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			if err := a.client.Tasks.Delete(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(a.out, "DELETED task %d", id)
			return nil
		},
	}
}

func taskAndUser(args []string) (int, int, error) {
	taskID, err := parseID("task id", args[0])
	if err != nil {
		return 0, 0, err
	}
	userID, err := parseID("user id", args[1])
	if err != nil {
		return 0, 0, err
	}
	return taskID, userID, nil
}

func newTasksAssignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task-id> <user-id>",
		Short: "Assign a user to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, userID, err := taskAndUser(args)
			if err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			if _, err := a.client.Tasks.Assign(cmd.Context(), taskID, userID); err != nil {
				return err
			}

			assignees, err := a.client.Tasks.Assignees(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			printSuccess(a.out, "Assigned user %d to task %d", userID, taskID)
			printTable(a.out, memberHeaders, memberRows(assignees))
			return nil
		},
	}
}

func newTasksUnassignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <task-id> <user-id>",
		Short: "Remove a user from a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, userID, err := taskAndUser(args)
			if err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			if err := a.client.Tasks.Unassign(cmd.Context(), taskID, userID); err != nil {
				return err
			}
			printSuccess(a.out, "Unassigned user %d from task %d", userID, taskID)
			return nil
		},
	}
}
