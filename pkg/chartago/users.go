package chartago

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eshaffer321/chartagopm-go/internal/transport"
	"github.com/pkg/errors"
)

// userService implements the UserService interface
type userService struct {
	client *Client
}

// List retrieves all users
func (s *userService) List(ctx context.Context) ([]*User, error) {
	var users []*User
	req := &transport.Request{Method: http.MethodGet, Path: "/api/users"}

	if err := s.client.do(ctx, "users.list", req, &users); err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return users, nil
}

// Authenticated retrieves the signed-in user. The endpoint is a POST and
// returns a fresh token, which replaces the stored one.
func (s *userService) Authenticated(ctx context.Context) (*User, error) {
	var result AuthResponse
	req := &transport.Request{Method: http.MethodPost, Path: "/api/users/authenticated"}

	if err := s.client.do(ctx, "users.authenticated", req, &result); err != nil {
		return nil, errors.Wrap(err, "failed to get authenticated user")
	}

	if err := s.client.session.SetCredentials(result.User, result.Token); err != nil {
		return nil, errors.Wrap(err, "server returned an incomplete session")
	}

	return result.User, nil
}

// Update changes a user. Updating the signed-in user also refreshes the
// stored identity.
func (s *userService) Update(ctx context.Context, userID int, params *UpdateUserParams) (*User, error) {
	if params == nil {
		params = &UpdateUserParams{}
	}

	var user User
	req := &transport.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/users/%d", userID),
		Body:   params,
	}

	if err := s.client.do(ctx, "users.update", req, &user); err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}

	current := s.client.session.Snapshot()
	if current.Authenticated() && current.User.UserID == user.UserID {
		if err := s.client.session.SetCredentials(&user, current.Token); err != nil && s.client.options.Logger != nil {
			s.client.options.Logger.Warn("Failed to update stored user", "error", err)
		}
	}

	return &user, nil
}
