package webui

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_AddAssignsUUID(t *testing.T) {
	st := NewSessionStore(4)
	s := &Session{}

	assert.Empty(t, st.Add(s))
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestSessionStore_EvictsInCreationOrder(t *testing.T) {
	st := NewSessionStore(2)
	evictions := 0
	st.onEvict = func() { evictions++ }

	a, b, c := &Session{}, &Session{}, &Session{}
	st.Add(a)
	st.Add(b)
	evicted := st.Add(c)

	assert.Equal(t, []string{a.ID}, evicted)
	assert.Equal(t, 1, evictions)
	assert.Equal(t, 2, st.Len())
	_, ok := st.Get(a.ID)
	assert.False(t, ok)
}

func TestSessionStore_DeleteFreesSlot(t *testing.T) {
	st := NewSessionStore(2)
	a, b, c := &Session{}, &Session{}, &Session{}
	st.Add(a)
	st.Add(b)

	assert.True(t, st.Delete(a.ID))
	assert.False(t, st.Delete(a.ID))
	assert.Empty(t, st.Add(c))

	_, ok := st.Get(b.ID)
	assert.True(t, ok)
}

func TestSessionStore_MinimumCapacity(t *testing.T) {
	st := NewSessionStore(0)
	st.Add(&Session{})
	st.Add(&Session{})
	assert.Equal(t, 1, st.Len())
}

func TestSessionStore_Concurrent(t *testing.T) {
	st := NewSessionStore(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &Session{}
			st.Add(s)
			st.Get(s.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, st.Len())
}
