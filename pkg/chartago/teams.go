package chartago

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eshaffer321/chartagopm-go/internal/transport"
	"github.com/pkg/errors"
)

// teamService implements the TeamService interface
type teamService struct {
	client *Client
}

// List retrieves the signed-in user's teams
func (s *teamService) List(ctx context.Context) ([]*Team, error) {
	var teams []*Team
	req := &transport.Request{Method: http.MethodGet, Path: "/api/teams"}

	if err := s.client.do(ctx, "teams.list", req, &teams); err != nil {
		return nil, errors.Wrap(err, "failed to list teams")
	}

	return teams, nil
}

// AddMember adds a user to a team
func (s *teamService) AddMember(ctx context.Context, params *AddTeamMemberParams) (*TeamMember, error) {
	if params == nil {
		return nil, &ValidationError{Message: "Team and user are required."}
	}

	var member TeamMember
	req := &transport.Request{Method: http.MethodPost, Path: "/api/teams/members", Body: params}

	if err := s.client.do(ctx, "teams.add_member", req, &member); err != nil {
		return nil, errors.Wrap(err, "failed to add team member")
	}

	return &member, nil
}

// RemoveMember removes a user from a team
func (s *teamService) RemoveMember(ctx context.Context, teamID, userID int) error {
	req := &transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/teams/%d/members/%d", teamID, userID),
	}

	if err := s.client.do(ctx, "teams.remove_member", req, nil); err != nil {
		return errors.Wrap(err, "failed to remove team member")
	}

	return nil
}

// UpdateMemberRole changes a member's role
func (s *teamService) UpdateMemberRole(ctx context.Context, teamID, userID int, role string) (*TeamMember, error) {
	var member TeamMember
	req := &transport.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/teams/%d/members/%d/role", teamID, userID),
		Body:   map[string]string{"newRole": role},
	}

	if err := s.client.do(ctx, "teams.update_member_role", req, &member); err != nil {
		return nil, errors.Wrap(err, "failed to update member role")
	}

	return &member, nil
}
