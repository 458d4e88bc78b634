package geopolitical

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// TestEventLog_EvictsOldest tests ring-buffer retention
func TestEventLog_EvictsOldest(t *testing.T) {
	log, err := NewEventLog(3)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		e := sanctionsEvent()
		e.ID = fmt.Sprintf("ev-%d", i)
		_, err := log.Add(e)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, log.Len())
	assert.Equal(t, 2, log.Evicted())
	all := log.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ev-3", "ev-4", "ev-5"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

// TestEventLog_AssignsID tests ID generation for events without one
func TestEventLog_AssignsID(t *testing.T) {
	log, err := NewEventLog(DefaultEventLogCapacity)
	require.NoError(t, err)

	e := sanctionsEvent()
	e.ID = ""
	stored, err := log.Add(e)
	require.NoError(t, err)
	_, err = uuid.Parse(stored.ID)
	assert.NoError(t, err)
	assert.Equal(t, stored.ID, log.All()[0].ID)
}

// TestEventLog_Active tests filtering by the injected time
func TestEventLog_Active(t *testing.T) {
	log, err := NewEventLog(10)
	require.NoError(t, err)

	current := sanctionsEvent()
	future := sanctionsEvent()
	future.ID = "ev-future"
	future.Start = now.Add(24 * time.Hour)
	_, err = log.Add(current)
	require.NoError(t, err)
	_, err = log.Add(future)
	require.NoError(t, err)

	active := log.Active(now)
	require.Len(t, active, 1)
	assert.Equal(t, "ev-1", active[0].ID)
	assert.Len(t, log.Active(now.Add(48*time.Hour)), 2)
}

// TestEventLog_RejectsInvalid tests validation on Add and construction
func TestEventLog_RejectsInvalid(t *testing.T) {
	_, err := NewEventLog(0)
	assert.True(t, errors.IsConfiguration(err))

	log, err := NewEventLog(2)
	require.NoError(t, err)
	bad := sanctionsEvent()
	bad.ImpactScore = -1
	_, err = log.Add(bad)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Equal(t, 0, log.Len())
}

// TestEventLog_ConcurrentAdd tests that concurrent writers never exceed capacity
func TestEventLog_ConcurrentAdd(t *testing.T) {
	log, err := NewEventLog(16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				e := sanctionsEvent()
				e.ID = ""
				_, _ = log.Add(e)
				_ = log.Active(now)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, log.Len())
	assert.Equal(t, 64, log.Evicted())
}
