package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record would duplicate another
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned when email or password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type userRecord struct {
	user         chartago.User
	passwordHash []byte
}

// Store is an in-memory replacement for the relational store. All methods
// return copies so callers never share records with the store.
type Store struct {
	mu sync.RWMutex

	users        map[int]*userRecord
	projects     map[int]*chartago.Project
	projectTeams map[int]int
	tasks        map[int]*chartago.Task
	dependencies map[int]*chartago.TaskDependency
	assignments  map[int]*chartago.TaskAssignment
	teams        map[int]*chartago.Team
	roles        map[int]string // userID -> role within their team

	nextID int
	cost   int
}

// NewStore creates an empty store. cost is the bcrypt cost; zero means
// bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		users:        make(map[int]*userRecord),
		projects:     make(map[int]*chartago.Project),
		projectTeams: make(map[int]int),
		tasks:        make(map[int]*chartago.Task),
		dependencies: make(map[int]*chartago.TaskDependency),
		assignments:  make(map[int]*chartago.TaskAssignment),
		teams:        make(map[int]*chartago.Team),
		roles:        make(map[int]string),
		cost:         cost,
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// CreateUser hashes password and stores a new user
func (s *Store) CreateUser(username, email, password string) (*chartago.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.users {
		if strings.EqualFold(r.user.Email, email) || r.user.Username == username {
			return nil, ErrConflict
		}
	}

	r := &userRecord{
		user:         chartago.User{UserID: s.id(), Username: username, Email: email},
		passwordHash: hash,
	}
	s.users[r.user.UserID] = r

	u := r.user
	return &u, nil
}

// Authenticate checks email and password
func (s *Store) Authenticate(email, password string) (*chartago.User, error) {
	s.mu.RLock()
	var found *userRecord
	for _, r := range s.users {
		if strings.EqualFold(r.user.Email, email) {
			found = r
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(found.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.User(found.user.UserID)
}

// User returns one user
func (s *Store) User(id int) (*chartago.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(&r.user), nil
}

// Users returns every user ordered by id
func (s *Store) Users() []*chartago.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*chartago.User, 0, len(s.users))
	for _, r := range s.users {
		out = append(out, copyUser(&r.user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// UpdateUser applies the non-nil fields of p
func (s *Store) UpdateUser(id int, p *chartago.UpdateUserParams) (*chartago.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if p.Email != nil && strings.EqualFold(other.user.Email, *p.Email) {
			return nil, ErrConflict
		}
		if p.Username != nil && other.user.Username == *p.Username {
			return nil, ErrConflict
		}
	}

	if p.Username != nil {
		r.user.Username = *p.Username
	}
	if p.Email != nil {
		r.user.Email = *p.Email
	}
	return copyUser(&r.user), nil
}

// Projects returns every project ordered by id
func (s *Store) Projects() []*chartago.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*chartago.Project, 0, len(s.projects))
	for _, p := range s.projects {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateProject stores a project owned by the creator's team, if any
func (s *Store) CreateProject(creatorID int, p *chartago.CreateProjectParams) *chartago.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := &chartago.Project{
		ID:          s.id(),
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
	}
	s.projects[project.ID] = project

	if r, ok := s.users[creatorID]; ok && r.user.TeamID != nil {
		s.projectTeams[project.ID] = *r.user.TeamID
	}

	c := *project
	return &c
}

// Project returns one project
func (s *Store) Project(id int) (*chartago.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

// DeleteProject removes a project with its tasks
func (s *Store) DeleteProject(id int) (*chartago.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}

	for taskID, t := range s.tasks {
		if t.ProjectID == id {
			s.deleteTaskLocked(taskID)
		}
	}
	delete(s.projects, id)
	delete(s.projectTeams, id)

	return p, nil
}

// LinkProjectTeam makes teamID the owner of projectID
func (s *Store) LinkProjectTeam(projectID, teamID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.teams[teamID]; !ok {
		return ErrNotFound
	}
	s.projectTeams[projectID] = teamID
	return nil
}

// ProjectTeam returns the members of the team that owns a project
func (s *Store) ProjectTeam(projectID int) ([]*chartago.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, ErrNotFound
	}
	teamID, ok := s.projectTeams[projectID]
	if !ok {
		return []*chartago.TeamMember{}, nil
	}
	return s.membersLocked(teamID), nil
}

// Dependencies returns the dependencies between tasks of a project
func (s *Store) Dependencies(projectID int) ([]*chartago.TaskDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, ErrNotFound
	}

	out := []*chartago.TaskDependency{}
	for _, d := range s.dependencies {
		if t, ok := s.tasks[d.DependentTaskID]; ok && t.ProjectID == projectID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddDependency records that dependent waits for prerequisite
func (s *Store) AddDependency(dependent, prerequisite int) (*chartago.TaskDependency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[dependent]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.tasks[prerequisite]; !ok {
		return nil, ErrNotFound
	}

	d := &chartago.TaskDependency{ID: s.id(), DependentTaskID: dependent, PrerequisiteTaskID: prerequisite}
	s.dependencies[d.ID] = d
	c := *d
	return &c, nil
}

// TasksForUser returns the tasks a user authored, holds or is assigned to
func (s *Store) TasksForUser(userID int) []*chartago.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assigned := make(map[int]bool)
	for _, a := range s.assignments {
		if a.UserID == userID {
			assigned[a.TaskID] = true
		}
	}

	return s.tasksLocked(func(t *chartago.Task) bool {
		return t.AuthorUserID == userID ||
			(t.AssignedUserID != nil && *t.AssignedUserID == userID) ||
			assigned[t.ID]
	})
}

// ProjectTasks returns a project's tasks
func (s *Store) ProjectTasks(projectID int) ([]*chartago.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, ErrNotFound
	}
	return s.tasksLocked(func(t *chartago.Task) bool { return t.ProjectID == projectID }), nil
}

func (s *Store) tasksLocked(keep func(*chartago.Task) bool) []*chartago.Task {
	out := []*chartago.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateTask stores a task in projectID
func (s *Store) CreateTask(projectID, authorID int, p *chartago.CreateTaskParams) (*chartago.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, ErrNotFound
	}

	status := p.Status
	if status == "" {
		status = chartago.TaskStatusToDo
	}
	author := p.AuthorUserID
	if author == 0 {
		author = authorID
	}

	t := &chartago.Task{
		ID:             s.id(),
		Title:          p.Title,
		Description:    p.Description,
		Status:         status,
		Priority:       p.Priority,
		Tags:           p.Tags,
		StartDate:      p.StartDate,
		DueDate:        p.DueDate,
		Points:         p.Points,
		ProjectID:      projectID,
		AuthorUserID:   author,
		AssignedUserID: p.AssignedUserID,
	}
	s.tasks[t.ID] = t
	return copyTask(t), nil
}

// UpdateTaskStatus moves a task
func (s *Store) UpdateTaskStatus(id int, status chartago.TaskStatus) (*chartago.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.Status = status
	return copyTask(t), nil
}

// DeleteTask removes a task with its dependencies and assignments
func (s *Store) DeleteTask(id int) (*chartago.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.deleteTaskLocked(id)
	return t, nil
}

func (s *Store) deleteTaskLocked(id int) {
	delete(s.tasks, id)
	for depID, d := range s.dependencies {
		if d.DependentTaskID == id || d.PrerequisiteTaskID == id {
			delete(s.dependencies, depID)
		}
	}
	for aID, a := range s.assignments {
		if a.TaskID == id {
			delete(s.assignments, aID)
		}
	}
}

// Assign links a user to a task
func (s *Store) Assign(taskID, userID int) (*chartago.TaskAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return nil, ErrNotFound
	}
	for _, a := range s.assignments {
		if a.TaskID == taskID && a.UserID == userID {
			return nil, ErrConflict
		}
	}

	a := &chartago.TaskAssignment{ID: s.id(), TaskID: taskID, UserID: userID}
	s.assignments[a.ID] = a
	c := *a
	return &c, nil
}

// Unassign removes a user from a task
func (s *Store) Unassign(taskID, userID int) (*chartago.TaskAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.assignments {
		if a.TaskID == taskID && a.UserID == userID {
			delete(s.assignments, id)
			return a, nil
		}
	}
	return nil, ErrNotFound
}

// Assignees returns the users assigned to a task
func (s *Store) Assignees(taskID int) ([]*chartago.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tasks[taskID]; !ok {
		return nil, ErrNotFound
	}

	out := []*chartago.TeamMember{}
	for _, a := range s.assignments {
		if a.TaskID != taskID {
			continue
		}
		if r, ok := s.users[a.UserID]; ok {
			out = append(out, s.memberLocked(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// CreateTeam stores a team
func (s *Store) CreateTeam(name string) *chartago.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &chartago.Team{ID: s.id(), TeamName: name}
	s.teams[t.ID] = t
	return s.teamLocked(t.ID)
}

// TeamsForUser returns the user's team with its members
func (s *Store) TeamsForUser(userID int) []*chartago.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[userID]
	if !ok || r.user.TeamID == nil {
		return []*chartago.Team{}
	}
	if _, ok := s.teams[*r.user.TeamID]; !ok {
		return []*chartago.Team{}
	}
	return []*chartago.Team{s.teamLocked(*r.user.TeamID)}
}

// AddMember puts a user on a team, replacing any previous team
func (s *Store) AddMember(teamID, userID int, role string) (*chartago.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return nil, ErrNotFound
	}
	r, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}

	id := teamID
	r.user.TeamID = &id
	s.roles[userID] = role
	return s.memberLocked(r), nil
}

// RemoveMember takes a user off a team
func (s *Store) RemoveMember(teamID, userID int) (*chartago.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.users[userID]
	if !ok || r.user.TeamID == nil || *r.user.TeamID != teamID {
		return nil, ErrNotFound
	}

	m := s.memberLocked(r)
	r.user.TeamID = nil
	delete(s.roles, userID)
	return m, nil
}

// UpdateMemberRole changes a member's role
func (s *Store) UpdateMemberRole(teamID, userID int, role string) (*chartago.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.users[userID]
	if !ok || r.user.TeamID == nil || *r.user.TeamID != teamID {
		return nil, ErrNotFound
	}
	s.roles[userID] = role
	return s.memberLocked(r), nil
}

func (s *Store) teamLocked(id int) *chartago.Team {
	t := *s.teams[id]
	t.Members = s.membersLocked(id)
	return &t
}

func (s *Store) membersLocked(teamID int) []*chartago.TeamMember {
	out := []*chartago.TeamMember{}
	for _, r := range s.users {
		if r.user.TeamID != nil && *r.user.TeamID == teamID {
			out = append(out, s.memberLocked(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (s *Store) memberLocked(r *userRecord) *chartago.TeamMember {
	u := copyUser(&r.user)
	return &chartago.TeamMember{
		UserID:            u.UserID,
		Username:          u.Username,
		Email:             u.Email,
		ProfilePictureURL: u.ProfilePictureURL,
		TeamID:            u.TeamID,
		Role:              s.roles[u.UserID],
	}
}

func copyUser(u *chartago.User) *chartago.User {
	c := *u
	if u.TeamID != nil {
		id := *u.TeamID
		c.TeamID = &id
	}
	return &c
}

func copyTask(t *chartago.Task) *chartago.Task {
	c := *t
	return &c
}

// Seed fills the store with a demo team, project and tasks. The demo user
// signs in as demo@chartago.dev / password123.
func (s *Store) Seed() error {
	demo, err := s.CreateUser("demo", "demo@chartago.dev", "password123")
	if err != nil {
		return err
	}
	teammate, err := s.CreateUser("sam", "sam@chartago.dev", "password123")
	if err != nil {
		return err
	}

	team := s.CreateTeam("Core")
	if _, err := s.AddMember(team.ID, demo.UserID, "Product Owner"); err != nil {
		return err
	}
	if _, err := s.AddMember(team.ID, teammate.UserID, "Developer"); err != nil {
		return err
	}

	start := time.Now().Truncate(24 * time.Hour)
	end := start.AddDate(0, 1, 0)
	project := s.CreateProject(demo.UserID, &chartago.CreateProjectParams{
		Name:        "Apollo",
		Description: "Demo project",
		StartDate:   &start,
		EndDate:     &end,
	})

	design, err := s.CreateTask(project.ID, demo.UserID, &chartago.CreateTaskParams{
		Title:    "Design board",
		Priority: chartago.TaskPriorityHigh,
		Status:   chartago.TaskStatusWorkInProgress,
	})
	if err != nil {
		return err
	}
	build, err := s.CreateTask(project.ID, demo.UserID, &chartago.CreateTaskParams{
		Title:    "Build board",
		Priority: chartago.TaskPriorityMedium,
	})
	if err != nil {
		return err
	}

	if _, err := s.AddDependency(build.ID, design.ID); err != nil {
		return err
	}
	_, err = s.Assign(build.ID, teammate.UserID)
	return err
}
