package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		s.metrics.AuthEvents.WithLabelValues("login", outcome(false)).Inc()
		abort(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.store.Authenticate(strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.metrics.AuthEvents.WithLabelValues("login", outcome(false)).Inc()
		abort(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	s.metrics.AuthEvents.WithLabelValues("login", outcome(true)).Inc()
	s.issueSession(c, http.StatusOK, user)
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Email == "" || req.Password == "" {
		s.metrics.AuthEvents.WithLabelValues("signup", outcome(false)).Inc()
		abort(c, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	user, err := s.store.CreateUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.metrics.AuthEvents.WithLabelValues("signup", outcome(false)).Inc()
		if errors.Is(err, ErrConflict) {
			abort(c, http.StatusConflict, "Username or email already in use")
			return
		}
		s.fail(c, err)
		return
	}

	s.metrics.AuthEvents.WithLabelValues("signup", outcome(true)).Inc()
	s.issueSession(c, http.StatusCreated, user)
}

func (s *Server) logout(c *gin.Context) {
	if cookie, err := c.Cookie(RefreshCookie); err == nil {
		s.tokens.Revoke(cookie)
	}
	s.setRefreshCookie(c, "", -1)
	s.metrics.AuthEvents.WithLabelValues("logout", outcome(true)).Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// refresh trades the refresh cookie for a new access token
func (s *Server) refresh(c *gin.Context) {
	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie == "" {
		s.metrics.TokenRefreshes.WithLabelValues(outcome(false)).Inc()
		abort(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := s.tokens.ParseRefresh(cookie)
	if err != nil {
		s.metrics.TokenRefreshes.WithLabelValues(outcome(false)).Inc()
		abort(c, http.StatusForbidden, "Invalid or expired refresh token")
		return
	}

	if _, err := s.store.User(userID); err != nil {
		s.metrics.TokenRefreshes.WithLabelValues(outcome(false)).Inc()
		abort(c, http.StatusForbidden, "Invalid or expired refresh token")
		return
	}

	token, err := s.tokens.IssueAccess(userID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.TokenRefreshes.WithLabelValues(outcome(true)).Inc()
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// authenticatedUser returns the current user for a valid bearer token, or
// for a valid refresh cookie with a newly issued access token
func (s *Server) authenticatedUser(c *gin.Context) {
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && token != "" {
		if userID, err := s.tokens.ParseAccess(token); err == nil {
			if user, err := s.store.User(userID); err == nil {
				c.JSON(http.StatusOK, chartago.AuthResponse{Token: token, User: user})
				return
			}
		}
	}

	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie == "" {
		abort(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := s.tokens.ParseRefresh(cookie)
	if err != nil {
		abort(c, http.StatusForbidden, "Invalid or expired token")
		return
	}
	user, err := s.store.User(userID)
	if err != nil {
		abort(c, http.StatusUnauthorized, "User no longer exists")
		return
	}
	token, err := s.tokens.IssueAccess(userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chartago.AuthResponse{Token: token, User: user})
}

func (s *Server) issueSession(c *gin.Context, status int, user *chartago.User) {
	access, err := s.tokens.IssueAccess(user.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	refresh, err := s.tokens.IssueRefresh(user.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setRefreshCookie(c, refresh, int(s.tokens.RefreshTTL().Seconds()))
	c.JSON(status, chartago.AuthResponse{Token: access, User: user})
}

func (s *Server) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookie, value, maxAge, "/", "", s.config.SecureCookies, true)
}

// fail logs an unexpected error and answers 500 without leaking it
func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(ctxRequestID)),
		zap.Error(err))
	abort(c, http.StatusInternalServerError, "Internal server error")
}

// storeError maps store sentinels onto HTTP statuses
func (s *Server) storeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, ErrNotFound):
		abort(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, ErrConflict):
		abort(c, http.StatusConflict, what+" already exists")
	default:
		s.fail(c, err)
	}
}
