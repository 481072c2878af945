package chartago

import (
	"context"
)

// AuthService handles authentication. Its calls go straight to the
// transport, so a failed login never touches the stored session.
type AuthService interface {
	// Login validates the form, signs in and stores the returned credentials
	Login(ctx context.Context, email, password string) (*User, error)

	// Signup validates the form, creates the account and stores the returned credentials
	Signup(ctx context.Context, params *SignupParams) (*User, error)

	// Logout tells the server and always clears the local session
	Logout(ctx context.Context) error

	// Refresh exchanges the refresh cookie for a new access token
	Refresh(ctx context.Context) (string, error)

	// GetSession returns the current session
	GetSession() (*Session, error)

	// SaveSession saves session to file
	SaveSession(path string) error

	// LoadSession loads session from file
	LoadSession(path string) error
}

// UserService handles users
type UserService interface {
	// List retrieves all users
	List(ctx context.Context) ([]*User, error)

	// Authenticated asks the server who we are and stores the fresh credentials
	Authenticated(ctx context.Context) (*User, error)

	// Update changes a user's username or email
	Update(ctx context.Context, userID int, params *UpdateUserParams) (*User, error)
}

// ProjectService handles projects
type ProjectService interface {
	// List retrieves all projects
	List(ctx context.Context) ([]*Project, error)

	// Create creates a new project
	Create(ctx context.Context, params *CreateProjectParams) (*Project, error)

	// Get retrieves a single project by ID
	Get(ctx context.Context, projectID int) (*Project, error)

	// Delete deletes a project
	Delete(ctx context.Context, projectID int) error

	// Dependencies retrieves the task dependencies within a project
	Dependencies(ctx context.Context, projectID int) ([]*TaskDependency, error)

	// Team retrieves the members of the team that owns a project
	Team(ctx context.Context, projectID int) ([]*TeamMember, error)
}

// TaskService handles tasks and their assignees
type TaskService interface {
	// ListMine retrieves the tasks authored by or assigned to the signed-in user
	ListMine(ctx context.Context) ([]*Task, error)

	// ListByProject retrieves a project's tasks
	ListByProject(ctx context.Context, projectID int) ([]*Task, error)

	// Create creates a new task in params.ProjectID
	Create(ctx context.Context, params *CreateTaskParams) (*Task, error)

	// UpdateStatus moves a task to another status
	UpdateStatus(ctx context.Context, taskID int, status TaskStatus) (*Task, error)

	// Delete deletes a task
	Delete(ctx context.Context, taskID int) error

	// Assign assigns a user to a task
	Assign(ctx context.Context, taskID, userID int) (*TaskAssignment, error)

	// Unassign removes a user from a task
	Unassign(ctx context.Context, taskID, userID int) error

	// Assignees retrieves the users assigned to a task
	Assignees(ctx context.Context, taskID int) ([]*TeamMember, error)
}

// TeamService handles teams and membership
type TeamService interface {
	// List retrieves the signed-in user's teams
	List(ctx context.Context) ([]*Team, error)

	// AddMember adds a user to a team
	AddMember(ctx context.Context, params *AddTeamMemberParams) (*TeamMember, error)

	// RemoveMember removes a user from a team
	RemoveMember(ctx context.Context, teamID, userID int) error

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(ctx context.Context, teamID, userID int, role string) (*TeamMember, error)
}
