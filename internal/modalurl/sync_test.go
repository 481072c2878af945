package modalurl

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mount(t *testing.T, h *History, key string) (*Synchronizer, *[]bool) {
	t.Helper()
	var changes []bool
	s, err := New(h, key, &Options{OnChange: func(open bool) { changes = append(changes, open) }})
	require.NoError(t, err)
	s.Mount()
	t.Cleanup(s.Unmount)
	return s, &changes
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(NewHistory(nil), "", nil)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestSynchronizer_UserOpenPushesAndCloseReplaces(t *testing.T) {
	h := NewHistory(url.Values{"view": []string{"board"}})
	s, changes := mount(t, h, "task")
	require.Equal(t, Closed, s.State())

	s.SetOpen(true)

	assert.Equal(t, OpenByUser, s.State())
	assert.Equal(t, "task", h.Query().Get("modal"))
	assert.Equal(t, "board", h.Query().Get("view"))
	assert.Equal(t, 2, h.Len())

	s.SetOpen(false)

	assert.Equal(t, Closed, s.State())
	assert.Empty(t, h.Query().Get("modal"))
	assert.Equal(t, "board", h.Query().Get("view"))
	assert.Equal(t, 2, h.Len(), "closing a user-opened modal must not add or consume entries")
	assert.Equal(t, []bool{true, false}, *changes)
}

func TestSynchronizer_DeepLinkOpensAndCloseGoesBack(t *testing.T) {
	h := NewHistory(nil)
	h.Push(url.Values{"modal": []string{"task"}})

	s, changes := mount(t, h, "task")

	assert.True(t, s.IsOpen())
	assert.Equal(t, OpenByURL, s.State())
	assert.Equal(t, 2, h.Len(), "opening from the URL must not push another entry")

	s.SetOpen(false)

	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 1, h.Len(), "closing a URL-opened modal navigates back")
	assert.Empty(t, h.Query().Get("modal"))
	assert.Equal(t, []bool{true, false}, *changes)

	// The URL-driven flag is cleared: a later user open closes by replace.
	s.SetOpen(true)
	s.SetOpen(false)
	assert.Equal(t, 2, h.Len())
}

func TestSynchronizer_DeepLinkOnFirstEntryFallsBackToReplace(t *testing.T) {
	h, err := ParseHistory("modal=task&page=2")
	require.NoError(t, err)

	s, _ := mount(t, h, "task")
	require.Equal(t, OpenByURL, s.State())

	s.SetOpen(false)

	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 1, h.Len())
	assert.Empty(t, h.Query().Get("modal"))
	assert.Equal(t, "2", h.Query().Get("page"))
}

func TestSynchronizer_BackNavigationClosesAndForwardReopens(t *testing.T) {
	h := NewHistory(nil)
	s, changes := mount(t, h, "task")

	s.SetOpen(true)
	require.Equal(t, OpenByUser, s.State())

	h.Back()
	assert.Equal(t, Closed, s.State())

	h.Forward()
	assert.Equal(t, OpenByURL, s.State())

	assert.Equal(t, []bool{true, false, true}, *changes)
}

func TestSynchronizer_KeysDoNotInterfere(t *testing.T) {
	h := NewHistory(nil)
	task, taskChanges := mount(t, h, "task")
	invite, inviteChanges := mount(t, h, "invite")

	task.SetOpen(true)

	assert.True(t, task.IsOpen())
	assert.False(t, invite.IsOpen())
	assert.Empty(t, *inviteChanges)

	h.Push(url.Values{"modal": []string{"invite"}})

	assert.False(t, task.IsOpen(), "task modal closes once the URL names another modal")
	assert.Equal(t, OpenByURL, invite.State())
	assert.Equal(t, []bool{true, false}, *taskChanges)
	assert.Equal(t, []bool{true}, *inviteChanges)
}

func TestSynchronizer_ClosingLeavesOtherModalsParamAlone(t *testing.T) {
	h := NewHistory(nil)
	s, err := New(h, "task", nil)
	require.NoError(t, err)
	s.Mount()

	s.SetOpen(true)
	require.Equal(t, 2, h.Len())

	// Stop following so the URL can move to another modal while this one
	// still believes it is open.
	s.Unmount()
	h.Replace(url.Values{"modal": []string{"invite"}})

	s.SetOpen(false)

	assert.False(t, s.IsOpen())
	assert.Equal(t, "invite", h.Query().Get("modal"))
	assert.Equal(t, 2, h.Len())
}

func TestSynchronizer_RepeatedSetOpenIsIdempotent(t *testing.T) {
	h := NewHistory(nil)
	s, changes := mount(t, h, "task")

	s.SetOpen(true)
	s.SetOpen(true)
	assert.Equal(t, 2, h.Len())

	s.SetOpen(false)
	s.SetOpen(false)
	assert.Equal(t, []bool{true, false}, *changes)
}

func TestSynchronizer_UnmountStopsFollowing(t *testing.T) {
	h := NewHistory(nil)
	s, err := New(h, "task", nil)
	require.NoError(t, err)
	s.Mount()
	s.Unmount()

	h.Push(url.Values{"modal": []string{"task"}})
	assert.False(t, s.IsOpen())
}

func TestSynchronizer_CustomParam(t *testing.T) {
	h := NewHistory(nil)
	s, err := New(h, "settings", &Options{Param: "dialog"})
	require.NoError(t, err)
	s.Mount()
	defer s.Unmount()

	s.SetOpen(true)
	assert.Equal(t, "settings", h.Query().Get("dialog"))
	assert.Empty(t, h.Query().Get("modal"))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open_by_user", OpenByUser.String())
	assert.Equal(t, "open_by_url", OpenByURL.String())
}
