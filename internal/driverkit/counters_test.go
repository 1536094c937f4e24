package driverkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRTCounters_ResetAndMonotonic(t *testing.T) {
	var c RTCounters
	c.AddUnderrun()
	c.AddUnderrun()
	c.AddOverrun()
	assert.Equal(t, uint32(2), c.Underruns())
	assert.Equal(t, uint32(1), c.Overruns())

	c.Reset()
	assert.Equal(t, uint32(0), c.Underruns())
	assert.Equal(t, uint32(0), c.Overruns())
}

func TestRTCounters_RunningFlag(t *testing.T) {
	var c RTCounters
	assert.False(t, c.Running())
	c.SetRunning(true)
	assert.True(t, c.Running())
	c.SetRunning(false)
	assert.False(t, c.Running())
}

func TestRTCounters_TimeInfoMonotonic(t *testing.T) {
	var c RTCounters
	t0 := time.Now()
	first := c.TimeInfo(t0)
	time.Sleep(time.Millisecond)
	second := c.TimeInfo(t0)
	assert.LessOrEqual(t, first.HostTimeNS, second.HostTimeNS)
}
