package chartago

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/eshaffer321/chartagopm-go/internal/session"
	"github.com/eshaffer321/chartagopm-go/internal/transport"
	"github.com/pkg/errors"
)

const (
	loginPath  = "/api/auth/login"
	signupPath = "/api/auth/signup"
	logoutPath = "/api/auth/logout"

	msgLoginFieldsRequired  = "Please fill in all fields"
	msgSignupFieldsRequired = "All fields are required."
	msgPasswordMismatch     = "Passwords do not match."
)

// authService implements the AuthService interface
type authService struct {
	client *Client
}

// ValidateLogin checks the sign-in form before anything is sent
func ValidateLogin(email, password string) error {
	if blank(email) || blank(password) {
		return &ValidationError{Message: msgLoginFieldsRequired}
	}
	return nil
}

// ValidateSignup checks the sign-up form before anything is sent
func ValidateSignup(p *SignupParams) error {
	if p == nil || blank(p.Username) || blank(p.Email) || blank(p.Phone) ||
		blank(p.Password) || blank(p.ConfirmPassword) {
		return &ValidationError{Message: msgSignupFieldsRequired}
	}
	if p.Password != p.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Message: msgPasswordMismatch}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Login performs authentication
func (a *authService) Login(ctx context.Context, email, password string) (*User, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}

	req := &transport.Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body: map[string]string{
			"email":    email,
			"password": password,
		},
		Anonymous: true,
	}

	return a.authenticate(ctx, "auth.login", req)
}

// Signup creates an account and signs in as it
func (a *authService) Signup(ctx context.Context, params *SignupParams) (*User, error) {
	if err := ValidateSignup(params); err != nil {
		return nil, err
	}

	req := &transport.Request{
		Method: http.MethodPost,
		Path:   signupPath,
		Body: map[string]string{
			"username": params.Username,
			"email":    params.Email,
			"password": params.Password,
		},
		Anonymous: true,
	}

	return a.authenticate(ctx, "auth.signup", req)
}

func (a *authService) authenticate(ctx context.Context, op string, req *transport.Request) (*User, error) {
	var result AuthResponse
	if err := a.client.doDirect(ctx, op, req, &result); err != nil {
		return nil, err
	}

	if err := a.client.session.SetCredentials(result.User, result.Token); err != nil {
		return nil, errors.Wrap(err, "server returned an incomplete session")
	}

	return result.User, nil
}

// Logout signs out on the server. The local session is cleared even when
// the server call fails.
func (a *authService) Logout(ctx context.Context) error {
	defer a.client.session.ClearSession()

	req := &transport.Request{
		Method: http.MethodPost,
		Path:   logoutPath,
	}

	if err := a.client.doDirect(ctx, "auth.logout", req, nil); err != nil {
		return errors.Wrap(err, "failed to log out")
	}
	return nil
}

// Refresh asks for a new access token using the refresh cookie. On failure
// the session is cleared, as it is when a refresh happens implicitly.
func (a *authService) Refresh(ctx context.Context) (string, error) {
	req := &transport.Request{
		Method:    http.MethodGet,
		Path:      a.client.interceptor.RefreshPath(),
		Anonymous: true,
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}

	err := a.client.doDirect(ctx, "auth.refresh", req, &result)
	if err == nil && result.AccessToken == "" {
		err = ErrRefreshFailed
	}
	if err == nil {
		err = a.client.session.RefreshToken(result.AccessToken)
	}
	if err != nil {
		a.client.session.ClearSession()
		return "", &Error{
			Code:    "REFRESH_FAILED",
			Message: "failed to refresh access token",
			Err:     fmt.Errorf("%w: %w", ErrRefreshFailed, err),
		}
	}

	return result.AccessToken, nil
}

// GetSession returns the current session
func (a *authService) GetSession() (*Session, error) {
	s := a.client.session.Snapshot()
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return &s, nil
}

// SaveSession saves session to file
func (a *authService) SaveSession(path string) error {
	return session.NewFilePersister(path, a.client.options.Logger).Save(a.client.session.Snapshot())
}

// LoadSession loads session from file
func (a *authService) LoadSession(path string) error {
	s, err := session.NewFilePersister(path, a.client.options.Logger).Load()
	if err != nil {
		return err
	}
	return a.client.session.SetCredentials(s.User, s.Token)
}
