package devserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

// intParam reads a numeric path parameter, answering 400 when it is not one
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		abort(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return v, true
}

// Users

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Users())
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if id != currentUserID(c) {
		abort(c, http.StatusForbidden, "You can only update your own profile")
		return
	}

	var req chartago.UpdateUserParams
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.UpdateUser(id, &req)
	if err != nil {
		s.storeError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Projects

func (s *Server) listProjects(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Projects())
}

func (s *Server) createProject(c *gin.Context) {
	var req chartago.CreateProjectParams
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		abort(c, http.StatusBadRequest, "Project name is required")
		return
	}
	c.JSON(http.StatusCreated, s.store.CreateProject(currentUserID(c), &req))
}

func (s *Server) getProject(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	project, err := s.store.Project(id)
	if err != nil {
		s.storeError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) deleteProject(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	project, err := s.store.DeleteProject(id)
	if err != nil {
		s.storeError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) projectDependencies(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	deps, err := s.store.Dependencies(id)
	if err != nil {
		s.storeError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, deps)
}

func (s *Server) projectTeam(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	members, err := s.store.ProjectTeam(id)
	if err != nil {
		s.storeError(c, err, "Project team")
		return
	}
	c.JSON(http.StatusOK, members)
}

// Tasks

func (s *Server) myTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.TasksForUser(currentUserID(c)))
}

func (s *Server) projectTasks(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tasks, err := s.store.ProjectTasks(id)
	if err != nil {
		s.storeError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) createTask(c *gin.Context) {
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req chartago.CreateTaskParams
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		abort(c, http.StatusBadRequest, "Task title is required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		abort(c, http.StatusBadRequest, "Unknown status")
		return
	}

	task, err := s.store.CreateTask(projectID, currentUserID(c), &req)
	if err != nil {
		s.storeError(c, err, "Project")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) updateTaskStatus(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status chartago.TaskStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		abort(c, http.StatusBadRequest, "Unknown status")
		return
	}

	task, err := s.store.UpdateTaskStatus(id, req.Status)
	if err != nil {
		s.storeError(c, err, "Task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	task, err := s.store.DeleteTask(id)
	if err != nil {
		s.storeError(c, err, "Task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) assignTask(c *gin.Context) {
	var req struct {
		TaskID int `json:"taskId"`
		UserID int `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TaskID <= 0 || req.UserID <= 0 {
		abort(c, http.StatusBadRequest, "Task and user are required")
		return
	}

	assignment, err := s.store.Assign(req.TaskID, req.UserID)
	if err != nil {
		s.storeError(c, err, "Assignment")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (s *Server) unassignTask(c *gin.Context) {
	taskID, ok := intParam(c, "id")
	if !ok {
		return
	}
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}
	assignment, err := s.store.Unassign(taskID, userID)
	if err != nil {
		s.storeError(c, err, "Assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (s *Server) taskAssignees(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	members, err := s.store.Assignees(id)
	if err != nil {
		s.storeError(c, err, "Task")
		return
	}
	c.JSON(http.StatusOK, members)
}

// Teams

func (s *Server) listTeams(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.TeamsForUser(currentUserID(c)))
}

func (s *Server) addTeamMember(c *gin.Context) {
	var req chartago.AddTeamMemberParams
	if err := c.ShouldBindJSON(&req); err != nil || req.TeamID <= 0 || req.UserID <= 0 {
		abort(c, http.StatusBadRequest, "Team and user are required")
		return
	}
	member, err := s.store.AddMember(req.TeamID, req.UserID, req.Role)
	if err != nil {
		s.storeError(c, err, "Team member")
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) removeTeamMember(c *gin.Context) {
	teamID, ok := intParam(c, "id")
	if !ok {
		return
	}
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}
	member, err := s.store.RemoveMember(teamID, userID)
	if err != nil {
		s.storeError(c, err, "Team member")
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) updateTeamMemberRole(c *gin.Context) {
	teamID, ok := intParam(c, "id")
	if !ok {
		return
	}
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}

	var req struct {
		NewRole string `json:"newRole"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.NewRole) == "" {
		abort(c, http.StatusBadRequest, "Role is required")
		return
	}

	member, err := s.store.UpdateMemberRole(teamID, userID, req.NewRole)
	if err != nil {
		s.storeError(c, err, "Team member")
		return
	}
	c.JSON(http.StatusOK, member)
}
