package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-quicklook/internal/session"
)

func newController() *session.Controller {
	return session.New(nil, nil)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCreateGetDelete(t *testing.T) {
	s := NewMemoryStore(0, 0)
	c := newController()

	id := s.Create(c)
	require.NotEmpty(t, id)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Same(t, c, got)

	require.NoError(t, s.Delete(id))
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(id), ErrNotFound)
}

func TestIDsAreUnique(t *testing.T) {
	s := NewMemoryStore(0, 0)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := s.Create(newController())
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 50, s.Len())
}

func TestMaxSessionsEvictsLeastRecentlySeen(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(2, 0)
	s.now = clock.now

	first := s.Create(newController())
	clock.advance(time.Second)
	second := s.Create(newController())
	clock.advance(time.Second)

	// Touch the first so the second becomes the oldest.
	_, err := s.Get(first)
	require.NoError(t, err)
	clock.advance(time.Second)

	third := s.Create(newController())
	assert.Equal(t, 2, s.Len())

	_, err = s.Get(second)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(first)
	assert.NoError(t, err)
	_, err = s.Get(third)
	assert.NoError(t, err)
}

func TestMaxAgeExpiresIdleSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(0, time.Hour)
	s.now = clock.now

	stale := s.Create(newController())
	clock.advance(30 * time.Minute)
	fresh := s.Create(newController())
	clock.advance(45 * time.Minute)

	_, err := s.Get(stale)
	assert.ErrorIs(t, err, ErrNotFound)

	all := s.All()
	assert.Len(t, all, 1)
	assert.Contains(t, all, fresh)

	assert.Equal(t, 1, s.Prune())
	assert.Equal(t, 1, s.Len())
}
