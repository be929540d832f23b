package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestManager_Open(t *testing.T) {
	m := NewManager()
	sess := m.Open("alice")
	_, err := uuid.Parse(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Player)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess, got)
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	sess := m.Open("alice")
	require.NoError(t, m.Close(sess.ID))
	assert.Equal(t, 0, m.Count())

	err := m.Close(sess.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestManager_UpdateReturnsCopies(t *testing.T) {
	m := NewManager()
	sess := m.Open("bob")
	require.NoError(t, m.Update(sess.ID, func(s *Session) {
		s.State = "in_encounter"
		s.Hero = "Knight"
	}))

	got, _ := m.Get(sess.ID)
	assert.Equal(t, "in_encounter", got.State)
	assert.Equal(t, "Knight", got.Hero)

	got.State = "mutated"
	again, _ := m.Get(sess.ID)
	assert.Equal(t, "in_encounter", again.State)

	assert.Error(t, m.Update("missing", func(*Session) {}))
}

func TestManager_ListOldestFirst(t *testing.T) {
	m := NewManager()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	first := m.Open("a")
	second := m.Open("b")
	third := m.Open("c")

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestManager_ConcurrentOpenClose(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids <- m.Open(fmt.Sprintf("p%d", i)).ID
		}(i)
	}
	wg.Wait()
	close(ids)
	assert.Equal(t, 50, m.Count())
	for id := range ids {
		require.NoError(t, m.Close(id))
	}
	assert.Equal(t, 0, m.Count())
}

func TestManager_Property_CountMatchesOpenSessions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := NewManager()
		var open []string
		ops := rapid.SliceOfN(rapid.Bool(), 1, 40).Draw(rt, "ops")
		for _, add := range ops {
			if add || len(open) == 0 {
				open = append(open, m.Open("p").ID)
				continue
			}
			idx := rapid.IntRange(0, len(open)-1).Draw(rt, "idx")
			if err := m.Close(open[idx]); err != nil {
				rt.Fatalf("close: %v", err)
			}
			open = append(open[:idx], open[idx+1:]...)
		}
		assert.Equal(rt, len(open), m.Count())
		assert.Len(rt, m.List(), len(open))
	})
}
