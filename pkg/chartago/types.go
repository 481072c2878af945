package chartago

import (
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/types"
)

// User is the identity record returned by the auth and user endpoints
type User = types.User

// Session is the credential pair held by the client
type Session = types.Session

// Hooks are observability callbacks
type Hooks = types.Hooks

// RetryConfig configures retries of transient failures
type RetryConfig = types.RetryConfig

// Project represents a project
type Project struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// TaskStatus is the board column a task sits in
type TaskStatus string

const (
	TaskStatusToDo           TaskStatus = "To Do"
	TaskStatusWorkInProgress TaskStatus = "Work In Progress"
	TaskStatusUnderReview    TaskStatus = "Under Review"
	TaskStatusCompleted      TaskStatus = "Completed"
)

// TaskStatuses lists the statuses in board order
var TaskStatuses = []TaskStatus{
	TaskStatusToDo,
	TaskStatusWorkInProgress,
	TaskStatusUnderReview,
	TaskStatusCompleted,
}

// Valid reports whether s is one of TaskStatuses
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskPriority is a task's urgency label
type TaskPriority string

const (
	TaskPriorityUrgent  TaskPriority = "Urgent"
	TaskPriorityHigh    TaskPriority = "High"
	TaskPriorityMedium  TaskPriority = "Medium"
	TaskPriorityLow     TaskPriority = "Low"
	TaskPriorityBacklog TaskPriority = "Backlog"
)

// Task represents a task within a project
type Task struct {
	ID             int          `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status,omitempty"`
	Priority       TaskPriority `json:"priority,omitempty"`
	Tags           string       `json:"tags,omitempty"`
	StartDate      *time.Time   `json:"startDate,omitempty"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	Points         *int         `json:"points,omitempty"`
	ProjectID      int          `json:"projectId"`
	AuthorUserID   int          `json:"authorUserId"`
	AssignedUserID *int         `json:"assignedUserId,omitempty"`
}

// TaskDependency says DependentTaskID cannot start before PrerequisiteTaskID
type TaskDependency struct {
	ID                 int `json:"id"`
	DependentTaskID    int `json:"dependentTaskId"`
	PrerequisiteTaskID int `json:"prerequisiteTaskId"`
}

// TaskAssignment links a user to a task
type TaskAssignment struct {
	ID     int `json:"id"`
	UserID int `json:"userId"`
	TaskID int `json:"taskId"`
}

// Team represents a team and, when loaded, its members
type Team struct {
	ID                   int           `json:"id"`
	TeamName             string        `json:"teamName"`
	ProductOwnerUserID   *int          `json:"productOwnerUserId,omitempty"`
	ProjectManagerUserID *int          `json:"projectManagerUserId,omitempty"`
	Members              []*TeamMember `json:"members,omitempty"`
}

// TeamMember is a user as seen from a team, project or task
type TeamMember struct {
	UserID            int    `json:"userId"`
	Username          string `json:"username"`
	Email             string `json:"email,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	TeamID            *int   `json:"teamId,omitempty"`
	Role              string `json:"role,omitempty"`
}

// AuthResponse is the body of login, signup and authenticated-user calls
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SignupParams holds the sign-up form. Phone and ConfirmPassword are
// checked locally and not sent.
type SignupParams struct {
	Username        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// UpdateUserParams for updating a user. Nil fields are left unchanged.
type UpdateUserParams struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// CreateProjectParams for creating a project
type CreateProjectParams struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// CreateTaskParams for creating a task in ProjectID
type CreateTaskParams struct {
	ProjectID      int          `json:"projectId"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status,omitempty"`
	Priority       TaskPriority `json:"priority,omitempty"`
	Tags           string       `json:"tags,omitempty"`
	StartDate      *time.Time   `json:"startDate,omitempty"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	Points         *int         `json:"points,omitempty"`
	AuthorUserID   int          `json:"authorUserId,omitempty"`
	AssignedUserID *int         `json:"assignedUserId,omitempty"`
}

// AddTeamMemberParams for adding a user to a team
type AddTeamMemberParams struct {
	TeamID int    `json:"teamId"`
	UserID int    `json:"userId"`
	Role   string `json:"role,omitempty"`
}
