package driverkit

import (
	"sync/atomic"
	"time"

	"github.com/openasio/openasio-go/abi"
)

// RTCounters holds the xrun counters and the running flag shared between
// the RT thread (sole writer) and the control thread (reader of
// counters, writer-to-false of Running). Matches §5's ordering
// guarantees: counters are written only on the RT thread and read with
// relaxed ordering elsewhere; Running is released/acquired across the
// two threads so a `stop` is guaranteed to observe the RT thread's own
// exit.
type RTCounters struct {
	underruns atomic.Uint32
	overruns  atomic.Uint32
	running   atomic.Bool
}

func (c *RTCounters) Reset() {
	c.underruns.Store(0)
	c.overruns.Store(0)
}

func (c *RTCounters) AddUnderrun() { c.underruns.Add(1) }
func (c *RTCounters) AddOverrun()  { c.overruns.Add(1) }

func (c *RTCounters) Underruns() uint32 { return c.underruns.Load() }
func (c *RTCounters) Overruns() uint32  { return c.overruns.Load() }

// SetRunning sets the flag with release semantics on the control thread
// (stop) or store semantics on the RT thread (host requested stop).
func (c *RTCounters) SetRunning(v bool) { c.running.Store(v) }

// Running reads with acquire semantics, checked at the top of every RT
// period.
func (c *RTCounters) Running() bool { return c.running.Load() }

// TimeInfo builds the per-period telemetry struct from a stream-start
// instant and the current counters (§4.3 step 4).
func (c *RTCounters) TimeInfo(time0 time.Time) abi.TimeInfo {
	return abi.TimeInfo{
		HostTimeNS:   uint64(time.Since(time0).Nanoseconds()),
		DeviceTimeNS: 0,
		Underruns:    c.Underruns(),
		Overruns:     c.Overruns(),
	}
}
