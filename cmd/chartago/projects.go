package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and manage projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(a),
		newProjectsGetCmd(a),
		newProjectsCreateCmd(a),
		newProjectsDeleteCmd(a),
	)
	return cmd
}

func projectRow(p *chartago.Project) []string {
	return []string{strconv.Itoa(p.ID), p.Name, formatDate(p.StartDate), formatDate(p.EndDate), p.Description}
}

var projectHeaders = []string{"ID", "NAME", "START", "END", "DESCRIPTION"}

func newProjectsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			projects, err := a.client.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, projectRow(p))
			}
			printTable(a.out, projectHeaders, rows)
			return nil
		},
	}
}

func newProjectsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show a project with its team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}

			project, err := a.client.Projects.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printTable(a.out, projectHeaders, [][]string{projectRow(project)})

			members, err := a.client.Projects.Team(cmd.Context(), id)
			if err != nil {
				return err
			}
			printTable(a.out, memberHeaders, memberRows(members))
			return nil
		},
	}
}

func newProjectsCreateCmd(a *app) *cobra.Command {
	var description, start, end string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Example: `  chartago projects create "Apollo" --description "Launch" --start 2025-01-01 --end 2025-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &chartago.CreateProjectParams{Name: args[0], Description: description}
			var err error
			if params.StartDate, err = parseDate("start", start); err != nil {
				return err
			}
			if params.EndDate, err = parseDate("end", end); err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}

			project, err := a.client.Projects.Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			printSuccess(a.out, "CREATED project %d %s", project.ID, project.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

func newProjectsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			if err := a.client.Projects.Delete(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(a.out, "DELETED project %d", id)
			return nil
		},
	}
}

func parseID(field, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, &chartago.ValidationError{Field: field, Message: "Invalid " + field + ": " + s}
	}
	return id, nil
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &chartago.ValidationError{Field: field, Message: "Invalid " + field + " date, use YYYY-MM-DD."}
	}
	return &t, nil
}
