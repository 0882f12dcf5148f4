package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementCounter(StageTransitions)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5000), m.Counter(StageTransitions))
	assert.Equal(t, int64(0), m.Counter("unknown"))
}

func TestTimersTrackMinMaxAverage(t *testing.T) {
	m := NewMetrics()
	m.RecordDuration(DBQuery, 10*time.Millisecond)
	m.RecordDuration(DBQuery, 30*time.Millisecond)
	m.RecordDuration(DBQuery, 20*time.Millisecond)

	snap := m.Snapshot()
	timer, ok := snap.Timers[DBQuery]
	require.True(t, ok)
	assert.Equal(t, int64(3), timer.Count)
	assert.Equal(t, int64(60), timer.TotalTimeMs)
	assert.Equal(t, int64(10), timer.MinTimeMs)
	assert.Equal(t, int64(30), timer.MaxTimeMs)
	assert.InDelta(t, 20.0, timer.AverageTimeMs, 0.001)
}

func TestErrorRatesAndHealth(t *testing.T) {
	m := NewMetrics()
	m.RecordResult(HTTPRequests, false)
	m.RecordResult(HTTPRequests, false)
	m.RecordResult(HTTPRequests, false)
	m.RecordResult(HTTPRequests, true)
	m.SetHealth("database", true)
	m.SetHealth("redis", false)
	m.SetGauge("reports.due", 4)

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap.ErrorRates[HTTPRequests].Total)
	assert.Equal(t, int64(1), snap.ErrorRates[HTTPRequests].Errors)
	assert.InDelta(t, 25.0, snap.ErrorRates[HTTPRequests].ErrorRate, 0.001)
	assert.Equal(t, int64(4), snap.Gauges["reports.due"])
	assert.True(t, snap.Health["database"])
	assert.False(t, snap.Health["redis"])

	healthy, unhealthy := m.HealthyComponents()
	assert.Equal(t, []string{"database"}, healthy)
	assert.Equal(t, []string{"redis"}, unhealthy)
}
