package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/pkg/errors"
)

// FilePersister keeps the session in a JSON file readable only by the owner
type FilePersister struct {
	Path   string
	Logger types.Logger
}

// NewFilePersister creates a persister for path
func NewFilePersister(path string, logger types.Logger) *FilePersister {
	return &FilePersister{Path: path, Logger: logger}
}

// Save writes the session to disk
func (p *FilePersister) Save(s types.Session) error {
	if !s.Authenticated() {
		return types.ErrNotAuthenticated
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	if err := os.WriteFile(p.Path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}

	if p.Logger != nil {
		p.Logger.Debug("Session saved", "path", p.Path)
	}

	return nil
}

// Clear removes the session file. A missing file is not an error.
func (p *FilePersister) Clear() error {
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove session file")
	}
	return nil
}

// Load reads the session from disk
func (p *FilePersister) Load() (*types.Session, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNotAuthenticated
		}
		return nil, errors.Wrap(err, "failed to read session file")
	}

	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}

	if !s.Authenticated() {
		return nil, types.ErrNotAuthenticated
	}

	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return nil, types.ErrSessionExpired
	}

	if p.Logger != nil {
		p.Logger.Info("Session loaded", "path", p.Path, "email", s.User.Email)
	}

	return &s, nil
}
