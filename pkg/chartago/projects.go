package chartago

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/eshaffer321/chartagopm-go/internal/transport"
	"github.com/pkg/errors"
)

// projectService implements the ProjectService interface
type projectService struct {
	client *Client
}

// List retrieves all projects
func (s *projectService) List(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	req := &transport.Request{Method: http.MethodGet, Path: "/api/projects"}

	if err := s.client.do(ctx, "projects.list", req, &projects); err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}

	return projects, nil
}

// Create creates a new project
func (s *projectService) Create(ctx context.Context, params *CreateProjectParams) (*Project, error) {
	if params == nil || strings.TrimSpace(params.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "Project name is required."}
	}

	var project Project
	req := &transport.Request{Method: http.MethodPost, Path: "/api/projects", Body: params}

	if err := s.client.do(ctx, "projects.create", req, &project); err != nil {
		return nil, errors.Wrap(err, "failed to create project")
	}

	return &project, nil
}

// Get retrieves a single project by ID
func (s *projectService) Get(ctx context.Context, projectID int) (*Project, error) {
	var project Project
	req := &transport.Request{Method: http.MethodGet, Path: fmt.Sprintf("/api/projects/%d", projectID)}

	if err := s.client.do(ctx, "projects.get", req, &project); err != nil {
		return nil, errors.Wrapf(err, "failed to get project %d", projectID)
	}

	return &project, nil
}

// Delete deletes a project
func (s *projectService) Delete(ctx context.Context, projectID int) error {
	req := &transport.Request{Method: http.MethodDelete, Path: fmt.Sprintf("/api/projects/%d", projectID)}

	if err := s.client.do(ctx, "projects.delete", req, nil); err != nil {
		return errors.Wrapf(err, "failed to delete project %d", projectID)
	}

	return nil
}

// Dependencies retrieves the task dependencies within a project
func (s *projectService) Dependencies(ctx context.Context, projectID int) ([]*TaskDependency, error) {
	var deps []*TaskDependency
	req := &transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/projects/%d/tasks/dependencies", projectID),
	}

	if err := s.client.do(ctx, "projects.dependencies", req, &deps); err != nil {
		return nil, errors.Wrap(err, "failed to get project dependencies")
	}

	return deps, nil
}

// Team retrieves the members of the team that owns a project
func (s *projectService) Team(ctx context.Context, projectID int) ([]*TeamMember, error) {
	var members []*TeamMember
	req := &transport.Request{Method: http.MethodGet, Path: fmt.Sprintf("/api/projects/%d/team", projectID)}

	if err := s.client.do(ctx, "projects.team", req, &members); err != nil {
		return nil, errors.Wrap(err, "failed to get project team")
	}

	return members, nil
}
