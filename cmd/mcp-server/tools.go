package main

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

// chartagoTools holds the chartagoPM client and implements all tool handlers
type chartagoTools struct {
	client *chartago.Client
}

// toolError keeps the user-facing message and the cause
func toolError(action string, err error) error {
	return fmt.Errorf("failed to %s: %s: %w", action, chartago.UserMessage(err), err)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// ListProjects tool - lists projects
type ListProjectsInput struct {
	// No input parameters needed
}

type ProjectEntry struct {
	ID          int    `json:"id" jsonschema:"Project ID"`
	Name        string `json:"name" jsonschema:"Project name"`
	Description string `json:"description,omitempty" jsonschema:"Project description"`
	StartDate   string `json:"startDate,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	EndDate     string `json:"endDate,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
}

type ListProjectsOutput struct {
	Projects []ProjectEntry `json:"projects" jsonschema:"List of projects"`
	Count    int            `json:"count" jsonschema:"Number of projects"`
}

func (t *chartagoTools) ListProjects(ctx context.Context, req *mcp.CallToolRequest, input ListProjectsInput) (*mcp.CallToolResult, ListProjectsOutput, error) {
	projects, err := t.client.Projects.List(ctx)
	if err != nil {
		return nil, ListProjectsOutput{}, toolError("fetch projects", err)
	}

	entries := make([]ProjectEntry, 0, len(projects))
	for _, p := range projects {
		entries = append(entries, ProjectEntry{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			StartDate:   formatDate(p.StartDate),
			EndDate:     formatDate(p.EndDate),
		})
	}

	return nil, ListProjectsOutput{
		Projects: entries,
		Count:    len(entries),
	}, nil
}

// ListTasks tool - lists a project's tasks or the user's own
type ListTasksInput struct {
	ProjectID int    `json:"projectId,omitempty" jsonschema:"Project ID (optional; omit for your own tasks)"`
	Status    string `json:"status,omitempty" jsonschema:"Only return tasks in this status (optional)"`
}

type TaskEntry struct {
	ID        int    `json:"id" jsonschema:"Task ID"`
	ProjectID int    `json:"projectId" jsonschema:"Project ID"`
	Title     string `json:"title" jsonschema:"Task title"`
	Status    string `json:"status" jsonschema:"Task status"`
	Priority  string `json:"priority,omitempty" jsonschema:"Task priority"`
	Points    *int   `json:"points,omitempty" jsonschema:"Story points"`
	DueDate   string `json:"dueDate,omitempty" jsonschema:"Due date (YYYY-MM-DD)"`
	Tags      string `json:"tags,omitempty" jsonschema:"Comma separated tags"`
}

type ListTasksOutput struct {
	Tasks []TaskEntry `json:"tasks" jsonschema:"List of tasks"`
	Count int         `json:"count" jsonschema:"Number of tasks returned"`
}

func (t *chartagoTools) ListTasks(ctx context.Context, req *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	var tasks []*chartago.Task
	var err error
	if input.ProjectID > 0 {
		tasks, err = t.client.Tasks.ListByProject(ctx, input.ProjectID)
	} else {
		tasks, err = t.client.Tasks.ListMine(ctx)
	}
	if err != nil {
		return nil, ListTasksOutput{}, toolError("fetch tasks", err)
	}

	entries := make([]TaskEntry, 0, len(tasks))
	for _, task := range tasks {
		// Apply status filter if specified
		if input.Status != "" && string(task.Status) != input.Status {
			continue
		}

		entries = append(entries, TaskEntry{
			ID:        task.ID,
			ProjectID: task.ProjectID,
			Title:     task.Title,
			Status:    string(task.Status),
			Priority:  string(task.Priority),
			Points:    task.Points,
			DueDate:   formatDate(task.DueDate),
			Tags:      task.Tags,
		})
	}

	return nil, ListTasksOutput{
		Tasks: entries,
		Count: len(entries),
	}, nil
}

// UpdateTaskStatus tool - moves a task
type UpdateTaskStatusInput struct {
	TaskID int    `json:"taskId" jsonschema:"Task ID"`
	Status string `json:"status" jsonschema:"New status: To Do, Work In Progress, Under Review or Completed"`
}

type UpdateTaskStatusOutput struct {
	Task TaskEntry `json:"task" jsonschema:"The updated task"`
}

func (t *chartagoTools) UpdateTaskStatus(ctx context.Context, req *mcp.CallToolRequest, input UpdateTaskStatusInput) (*mcp.CallToolResult, UpdateTaskStatusOutput, error) {
	task, err := t.client.Tasks.UpdateStatus(ctx, input.TaskID, chartago.TaskStatus(input.Status))
	if err != nil {
		return nil, UpdateTaskStatusOutput{}, toolError("update task status", err)
	}

	return nil, UpdateTaskStatusOutput{
		Task: TaskEntry{
			ID:        task.ID,
			ProjectID: task.ProjectID,
			Title:     task.Title,
			Status:    string(task.Status),
			Priority:  string(task.Priority),
			Points:    task.Points,
			DueDate:   formatDate(task.DueDate),
			Tags:      task.Tags,
		},
	}, nil
}

// CreateTask tool - creates a task in a project
type CreateTaskInput struct {
	ProjectID   int    `json:"projectId" jsonschema:"Project ID"`
	Title       string `json:"title" jsonschema:"Task title"`
	Description string `json:"description,omitempty" jsonschema:"Task description (optional)"`
	Priority    string `json:"priority,omitempty" jsonschema:"Urgent, High, Medium, Low or Backlog (optional)"`
	DueDate     string `json:"dueDate,omitempty" jsonschema:"Due date in YYYY-MM-DD format (optional)"`
}

type CreateTaskOutput struct {
	Task TaskEntry `json:"task" jsonschema:"The created task"`
}

func (t *chartagoTools) CreateTask(ctx context.Context, req *mcp.CallToolRequest, input CreateTaskInput) (*mcp.CallToolResult, CreateTaskOutput, error) {
	params := &chartago.CreateTaskParams{
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    chartago.TaskPriority(input.Priority),
	}

	if input.DueDate != "" {
		due, err := time.Parse("2006-01-02", input.DueDate)
		if err != nil {
			return nil, CreateTaskOutput{}, fmt.Errorf("invalid dueDate format (expected YYYY-MM-DD): %w", err)
		}
		params.DueDate = &due
	}

	task, err := t.client.Tasks.Create(ctx, params)
	if err != nil {
		return nil, CreateTaskOutput{}, toolError("create task", err)
	}

	return nil, CreateTaskOutput{
		Task: TaskEntry{
			ID:        task.ID,
			ProjectID: task.ProjectID,
			Title:     task.Title,
			Status:    string(task.Status),
			Priority:  string(task.Priority),
			DueDate:   formatDate(task.DueDate),
		},
	}, nil
}

// ListTeams tool - lists teams with members
type ListTeamsInput struct {
	// No input parameters needed
}

type MemberEntry struct {
	UserID   int    `json:"userId" jsonschema:"User ID"`
	Username string `json:"username" jsonschema:"User name"`
	Email    string `json:"email,omitempty" jsonschema:"Email address"`
	Role     string `json:"role,omitempty" jsonschema:"Role within the team"`
}

type TeamEntry struct {
	ID      int           `json:"id" jsonschema:"Team ID"`
	Name    string        `json:"name" jsonschema:"Team name"`
	Members []MemberEntry `json:"members" jsonschema:"Team members"`
}

type ListTeamsOutput struct {
	Teams []TeamEntry `json:"teams" jsonschema:"List of teams"`
	Count int         `json:"count" jsonschema:"Number of teams"`
}

func (t *chartagoTools) ListTeams(ctx context.Context, req *mcp.CallToolRequest, input ListTeamsInput) (*mcp.CallToolResult, ListTeamsOutput, error) {
	teams, err := t.client.Teams.List(ctx)
	if err != nil {
		return nil, ListTeamsOutput{}, toolError("fetch teams", err)
	}

	entries := make([]TeamEntry, 0, len(teams))
	for _, team := range teams {
		entry := TeamEntry{ID: team.ID, Name: team.TeamName, Members: []MemberEntry{}}
		for _, m := range team.Members {
			entry.Members = append(entry.Members, MemberEntry{
				UserID:   m.UserID,
				Username: m.Username,
				Email:    m.Email,
				Role:     m.Role,
			})
		}
		entries = append(entries, entry)
	}

	return nil, ListTeamsOutput{
		Teams: entries,
		Count: len(entries),
	}, nil
}
