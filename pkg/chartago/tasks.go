package chartago

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/eshaffer321/chartagopm-go/internal/transport"
	"github.com/pkg/errors"
)

// taskService implements the TaskService interface
type taskService struct {
	client *Client
}

// ListMine retrieves the signed-in user's tasks
func (s *taskService) ListMine(ctx context.Context) ([]*Task, error) {
	var tasks []*Task
	req := &transport.Request{Method: http.MethodGet, Path: "/api/tasks/"}

	if err := s.client.do(ctx, "tasks.list_mine", req, &tasks); err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	return tasks, nil
}

// ListByProject retrieves a project's tasks
func (s *taskService) ListByProject(ctx context.Context, projectID int) ([]*Task, error) {
	var tasks []*Task
	req := &transport.Request{Method: http.MethodGet, Path: fmt.Sprintf("/api/tasks/%d", projectID)}

	if err := s.client.do(ctx, "tasks.list_by_project", req, &tasks); err != nil {
		return nil, errors.Wrapf(err, "failed to list tasks for project %d", projectID)
	}

	return tasks, nil
}

// Create creates a new task
func (s *taskService) Create(ctx context.Context, params *CreateTaskParams) (*Task, error) {
	if params == nil || strings.TrimSpace(params.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "Task title is required."}
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("Unknown status %q.", params.Status)}
	}

	var task Task
	req := &transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/tasks/%d", params.ProjectID),
		Body:   params,
	}

	if err := s.client.do(ctx, "tasks.create", req, &task); err != nil {
		return nil, errors.Wrap(err, "failed to create task")
	}

	return &task, nil
}

// UpdateStatus moves a task to another status
func (s *taskService) UpdateStatus(ctx context.Context, taskID int, status TaskStatus) (*Task, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("Unknown status %q.", status)}
	}

	var task Task
	req := &transport.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/tasks/%d/status", taskID),
		Body:   map[string]TaskStatus{"status": status},
	}

	if err := s.client.do(ctx, "tasks.update_status", req, &task); err != nil {
		return nil, errors.Wrapf(err, "failed to update status of task %d", taskID)
	}

	return &task, nil
}

// Delete deletes a task
func (s *taskService) Delete(ctx context.Context, taskID int) error {
	req := &transport.Request{Method: http.MethodDelete, Path: fmt.Sprintf("/api/tasks/%d", taskID)}

	if err := s.client.do(ctx, "tasks.delete", req, nil); err != nil {
		return errors.Wrapf(err, "failed to delete task %d", taskID)
	}

	return nil
}

// Assign assigns a user to a task
func (s *taskService) Assign(ctx context.Context, taskID, userID int) (*TaskAssignment, error) {
	var assignment TaskAssignment
	req := &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/tasks/assign/task",
		Body: map[string]int{
			"taskId": taskID,
			"userId": userID,
		},
	}

	if err := s.client.do(ctx, "tasks.assign", req, &assignment); err != nil {
		return nil, errors.Wrap(err, "failed to assign user to task")
	}

	return &assignment, nil
}

// Unassign removes a user from a task
func (s *taskService) Unassign(ctx context.Context, taskID, userID int) error {
	req := &transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/tasks/%d/users/%d", taskID, userID),
	}

	if err := s.client.do(ctx, "tasks.unassign", req, nil); err != nil {
		return errors.Wrap(err, "failed to remove user from task")
	}

	return nil
}

// Assignees retrieves the users assigned to a task
func (s *taskService) Assignees(ctx context.Context, taskID int) ([]*TeamMember, error) {
	var members []*TeamMember
	req := &transport.Request{Method: http.MethodGet, Path: fmt.Sprintf("/api/tasks/%d/assignees", taskID)}

	if err := s.client.do(ctx, "tasks.assignees", req, &members); err != nil {
		return nil, errors.Wrap(err, "failed to get task assignees")
	}

	return members, nil
}
