package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	st := NewStore(time.Hour)

	s := st.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 0, s.List().Len())

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreate(t *testing.T) {
	st := NewStore(time.Hour)
	a := st.Create()

	s, created := st.GetOrCreate(a.ID)
	assert.False(t, created)
	assert.Same(t, a, s)

	s, created = st.GetOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, a.ID, s.ID)

	_, created = st.GetOrCreate("")
	assert.True(t, created)
	assert.Equal(t, 3, st.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	st := NewStore(time.Hour)
	a, b := st.Create(), st.Create()

	_, err := a.List().Add(slide.NewText("hi", slide.DefaultBackground, slide.DefaultTextColor, 60))
	require.NoError(t, err)

	assert.Equal(t, 1, a.List().Len())
	assert.Equal(t, 0, b.List().Len())
}

func TestExpire(t *testing.T) {
	st := NewStore(time.Hour)
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	old := st.Create()
	now = now.Add(50 * time.Minute)
	fresh := st.Create()

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, st.Expire())

	_, err := st.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(fresh.ID)
	assert.NoError(t, err)

	// Get refreshed the session, so it survives another 50 minutes
	now = now.Add(50 * time.Minute)
	assert.Equal(t, 0, st.Expire())
}

func TestFlash(t *testing.T) {
	s := NewStore(time.Hour).Create()
	s.Lock()
	defer s.Unlock()

	s.SetFlash("Render failed")
	assert.Equal(t, "Render failed", s.TakeFlash())
	assert.Empty(t, s.TakeFlash())
}

func TestJanitor(t *testing.T) {
	st := NewStore(time.Millisecond)
	st.Create()

	st.Start(context.Background(), 5*time.Millisecond)
	defer st.Stop()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestConcurrentActionsSerialize(t *testing.T) {
	st := NewStore(time.Hour)
	s := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock()
			defer s.Unlock()
			_, err := s.List().Add(slide.NewText("card", slide.DefaultBackground, slide.DefaultTextColor, 60))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.List().Len())
	assert.Equal(t, uint64(20), s.List().Revision())
}
