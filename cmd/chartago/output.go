package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

const dateLayout = "2006-01-02"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyles = map[chartago.TaskStatus]lipgloss.Style{
		chartago.TaskStatusToDo:           lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		chartago.TaskStatusWorkInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		chartago.TaskStatusUnderReview:    lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		chartago.TaskStatusCompleted:      lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf(format, args...)))
}

func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("ERROR: "+msg))
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func renderStatus(s chartago.TaskStatus) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

func printUser(w io.Writer, u *chartago.User) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(u.Username), subtleStyle.Render("<"+u.Email+">"))
	fmt.Fprintf(w, "id: %d\n", u.UserID)
	if u.TeamID != nil {
		fmt.Fprintf(w, "team: %d\n", *u.TeamID)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
