// Package modalurl keeps a modal's open flag and a "?modal=<key>" query
// parameter in step, with browser-style back/forward behavior.
package modalurl

import (
	"errors"
	"net/url"
	"sync"
)

// DefaultParam is the query parameter that names the open modal
const DefaultParam = "modal"

// ErrEmptyKey is returned when a synchronizer is created without a key
var ErrEmptyKey = errors.New("modal key must not be empty")

// State is the synchronizer's view of the modal
type State int

const (
	Closed State = iota
	OpenByUser
	OpenByURL
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenByUser:
		return "open_by_user"
	case OpenByURL:
		return "open_by_url"
	default:
		return "unknown"
	}
}

// Options configures a Synchronizer
type Options struct {
	// Param overrides DefaultParam
	Param string
	// OnChange is called whenever the open flag changes
	OnChange func(open bool)
}

// backChecker is implemented by navigators that know whether Back would move
type backChecker interface {
	CanGoBack() bool
}

// Synchronizer binds one modal key to the navigator's query string
type Synchronizer struct {
	key      string
	param    string
	nav      Navigator
	onChange func(bool)

	mu          sync.Mutex
	open        bool
	openedByURL bool
	unsubscribe func()
}

// New creates a synchronizer for key. Call Mount to start following the URL.
func New(nav Navigator, key string, opts *Options) (*Synchronizer, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if opts == nil {
		opts = &Options{}
	}
	param := opts.Param
	if param == "" {
		param = DefaultParam
	}

	return &Synchronizer{
		key:      key,
		param:    param,
		nav:      nav,
		onChange: opts.OnChange,
	}, nil
}

// Key returns the modal key
func (s *Synchronizer) Key() string {
	return s.key
}

// Mount subscribes to navigation and applies the current URL, so a deep
// link to this modal opens it immediately
func (s *Synchronizer) Mount() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.unsubscribe = s.nav.Subscribe(s.handleURL)
	s.mu.Unlock()

	s.handleURL(s.nav.Query())
}

// Unmount stops following navigation. The open flag is left as is.
func (s *Synchronizer) Unmount() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// IsOpen reports the open flag
func (s *Synchronizer) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// State reports how the modal is currently open, if at all
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.open:
		return Closed
	case s.openedByURL:
		return OpenByURL
	default:
		return OpenByUser
	}
}

// SetOpen is the caller-driven side: opening pushes the parameter, closing
// either replaces it away or, for a URL-driven open, goes back.
func (s *Synchronizer) SetOpen(open bool) {
	if open {
		s.openByUser()
		return
	}
	s.close()
}

func (s *Synchronizer) openByUser() {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return
	}
	s.open = true
	s.mu.Unlock()

	s.changed(true)

	q := s.nav.Query()
	if q.Get(s.param) == s.key {
		return
	}
	q.Set(s.param, s.key)
	s.nav.Push(q)
}

func (s *Synchronizer) close() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.open = false
	byURL := s.openedByURL
	s.openedByURL = false
	s.mu.Unlock()

	s.changed(false)

	q := s.nav.Query()
	if q.Get(s.param) != s.key {
		return
	}

	if byURL && s.canGoBack() {
		s.nav.Back()
		return
	}

	q.Del(s.param)
	s.nav.Replace(q)
}

// handleURL is the navigation-driven side. Only an exact key match counts,
// so synchronizers for other modals ignore this one's parameter.
func (s *Synchronizer) handleURL(q url.Values) {
	hasParam := q.Get(s.param) == s.key

	s.mu.Lock()
	var changed, open bool
	switch {
	case hasParam && !s.open:
		s.open = true
		s.openedByURL = true
		changed, open = true, true
	case !hasParam && s.open:
		s.open = false
		s.openedByURL = false
		changed, open = true, false
	}
	s.mu.Unlock()

	if changed {
		s.changed(open)
	}
}

func (s *Synchronizer) canGoBack() bool {
	if bc, ok := s.nav.(backChecker); ok {
		return bc.CanGoBack()
	}
	return true
}

func (s *Synchronizer) changed(open bool) {
	if s.onChange != nil {
		s.onChange(open)
	}
}
