package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

var memberHeaders = []string{"USER", "NAME", "EMAIL", "ROLE"}

func memberRows(members []*chartago.TeamMember) [][]string {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{strconv.Itoa(m.UserID), m.Username, m.Email, m.Role})
	}
	return rows
}

func newTeamsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "teams",
		Aliases: []string{"team"},
		Short:   "Show teams",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your teams and their members",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			teams, err := a.client.Teams.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(teams) == 0 {
				printTable(a.out, nil, nil)
				return nil
			}
			for _, team := range teams {
				a.println(titleStyle.Render(team.TeamName) + subtleStyle.Render(" #"+strconv.Itoa(team.ID)))
				printTable(a.out, memberHeaders, memberRows(team.Members))
			}
			return nil
		},
	})
	return cmd
}
