package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManagerCreateAndGetSession(t *testing.T) {
	m := NewManager()
	defer m.Close()

	keys := randomKeys(t)
	id := NewID()

	sess, err := m.CreateSession(id, keys)
	require.NoError(t, err)
	require.Equal(t, id, sess.GetID())

	got, ok := m.GetSession(id)
	require.True(t, ok)
	require.Same(t, sess, got)
	require.Equal(t, 1, m.GetSessionCount())
}

func TestManagerCreateSessionRejectsDuplicateID(t *testing.T) {
	m := NewManager()
	defer m.Close()

	keys := randomKeys(t)
	id := NewID()

	_, err := m.CreateSession(id, keys)
	require.NoError(t, err)

	_, err = m.CreateSession(id, randomKeys(t))
	require.Error(t, err)
}

func TestManagerGetSessionReapsExpired(t *testing.T) {
	m := NewManager()
	defer m.Close()

	id := NewID()
	_, err := m.CreateSessionWithConfig(id, randomKeys(t), Config{MaxAge: time.Millisecond})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, ok := m.GetSession(id)
	require.False(t, ok)
	require.Equal(t, 0, m.GetSessionCount())
}

func TestManagerRemoveSession(t *testing.T) {
	m := NewManager()
	defer m.Close()

	id := NewID()
	_, err := m.CreateSession(id, randomKeys(t))
	require.NoError(t, err)

	m.RemoveSession(id)
	_, ok := m.GetSession(id)
	require.False(t, ok)
}

func TestManagerListSessionsAndStats(t *testing.T) {
	m := NewManager()
	defer m.Close()

	idA, idB := NewID(), NewID()
	_, err := m.CreateSession(idA, randomKeys(t))
	require.NoError(t, err)
	_, err = m.CreateSessionWithConfig(idB, randomKeys(t), Config{MaxAge: time.Millisecond})
	require.NoError(t, err)

	ids := m.ListSessions()
	require.ElementsMatch(t, []string{idA, idB}, ids)

	time.Sleep(5 * time.Millisecond)

	stats := m.GetSessionStats()
	require.Equal(t, 2, stats.TotalSessions)
	require.Equal(t, 1, stats.ActiveSessions)
	require.Equal(t, 1, stats.ExpiredSessions)
}

func TestManagerCloseClosesAllSessions(t *testing.T) {
	m := NewManager()

	id := NewID()
	sess, err := m.CreateSession(id, randomKeys(t))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // idempotent

	require.True(t, sess.IsExpired())
	require.Equal(t, 0, m.GetSessionCount())
}

func TestManagerSetDefaultConfigAppliesToNewSessions(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.SetDefaultConfig(Config{MaxAge: time.Millisecond})

	id := NewID()
	_, err := m.CreateSession(id, randomKeys(t))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, ok := m.GetSession(id)
	require.False(t, ok)
}

func TestNewIDIsUniqueAndPrefixed(t *testing.T) {
	a, b := NewID(), NewID()
	require.NotEqual(t, a, b)
	require.Greater(t, len(a), len(GeneralPrefix))
}
