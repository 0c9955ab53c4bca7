package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	timer := NewNamedTimer("test_timer")
	assert.Equal(t, "test_timer", timer.Name())

	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Equal(t, duration, timer.Duration())

	str := timer.String()
	assert.Contains(t, str, "test_timer")
	assert.Contains(t, str, "ms")
}

func TestStageTimes(t *testing.T) {
	var s StageTimes
	stop := s.Track("pages")
	time.Sleep(5 * time.Millisecond)
	stop()
	s.Track("partition")()

	assert.GreaterOrEqual(t, s.Get("pages"), 5*time.Millisecond)
	assert.Zero(t, s.Get("persist"))
	assert.Equal(t, s.Get("pages")+s.Get("partition"), s.Total())
	assert.Regexp(t, `^pages \d+ms, partition 0s$`, s.String())

	data, err := json.Marshal(&s)
	require.NoError(t, err)
	var got map[string]int64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Contains(t, got, "pages")
	assert.Contains(t, got, "partition")
	assert.GreaterOrEqual(t, got["pages"], int64(5))
}

func TestEmptyStageTimes(t *testing.T) {
	var s StageTimes
	assert.Empty(t, s.String())
	assert.Zero(t, s.Total())
}

func TestCurrentMemStats(t *testing.T) {
	m := CurrentMemStats()
	assert.Positive(t, m.SysBytes)
	assert.Positive(t, m.TotalAllocBytes)
	assert.Contains(t, m.String(), "KB")
}
