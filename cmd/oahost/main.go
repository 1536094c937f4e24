// Command oahost is a minimal OpenASIO host application: it loads a
// driver shared library named by a YAML config file (overridable by
// flags), opens a device, starts a stream, and runs a stereo
// passthrough HostProcess until interrupted. It exists to exercise
// host.Driver end-to-end the way a real DAW or plugin host would,
// mirroring the way cmd/direwolf drove the teacher's own audio layer
// from a parsed config plus flag overrides.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"unsafe"

	"github.com/spf13/pflag"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/host"
	"github.com/openasio/openasio-go/internal/hostconfig"
	"github.com/openasio/openasio-go/internal/logx"
)

var log = logx.For("oahost")

// passthrough is the demo HostProcess: on a full-duplex config it copies
// captured input straight to output (spec §8's "full-duplex echo"
// scenario); on an output-only config it writes silence (the "silence
// stream" scenario). It never blocks or allocates, as required of any
// RT-thread callback (§5 RT discipline).
type passthrough struct {
	inChannels, outChannels int
}

func (p *passthrough) Process(in, out unsafe.Pointer, frames uint32, _ abi.TimeInfo, cfg abi.StreamConfig) bool {
	if cfg.Layout == abi.BufNonInterleaved {
		outPlanes := unsafe.Slice((*unsafe.Pointer)(out), p.outChannels)
		var inPlanes []unsafe.Pointer
		if in != nil && p.inChannels > 0 {
			inPlanes = unsafe.Slice((*unsafe.Pointer)(in), p.inChannels)
		}
		for c, op := range outPlanes {
			dst := unsafe.Slice((*float32)(op), int(frames))
			clear(dst)
			if c < len(inPlanes) {
				copy(dst, unsafe.Slice((*float32)(inPlanes[c]), int(frames)))
			}
		}
		return true
	}
	outSamples := unsafe.Slice((*float32)(out), int(frames)*p.outChannels)
	if in == nil || p.inChannels == 0 {
		for i := range outSamples {
			outSamples[i] = 0
		}
		return true
	}
	inSamples := unsafe.Slice((*float32)(in), int(frames)*p.inChannels)
	n := len(outSamples)
	if len(inSamples) < n {
		n = len(inSamples)
	}
	copy(outSamples[:n], inSamples[:n])
	for i := n; i < len(outSamples); i++ {
		outSamples[i] = 0
	}
	return true
}

func (p *passthrough) LatencyChanged(inLatency, outLatency uint32) {
	log.Info("driver reported latency change", "in_frames", inLatency, "out_frames", outLatency)
}

func (p *passthrough) ResetRequested() {
	log.Warn("driver requested a reset")
}

func main() {
	flags := hostconfig.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := hostconfig.Load(*flags.ConfigFile)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg = flags.Apply(cfg)

	if cfg.DriverPath == "" {
		log.Error("no driver path given; set driver_path in the config file or pass -d")
		os.Exit(1)
	}

	streamCfg, err := cfg.StreamConfig()
	if err != nil {
		log.Error("invalid stream configuration", "err", err)
		os.Exit(1)
	}

	proc := &passthrough{inChannels: int(streamCfg.InChannels), outChannels: int(streamCfg.OutChannels)}

	drv, err := host.Load(cfg.DriverPath, proc, streamCfg)
	if err != nil {
		log.Error("failed to load driver", "path", cfg.DriverPath, "err", err)
		os.Exit(1)
	}
	defer drv.Close()

	if names, err := drv.EnumerateDevices(); err != nil {
		log.Warn("query_devices failed", "err", err)
	} else {
		log.Info("available devices", "names", names)
	}

	if err := drv.OpenDevice(cfg.Device); err != nil {
		log.Error("open_device failed", "device", cfg.Device, "err", err)
		os.Exit(1)
	}

	log.Info("starting stream",
		"sample_rate", streamCfg.SampleRate,
		"buffer_frames", streamCfg.BufferFrames,
		"in_channels", streamCfg.InChannels,
		"out_channels", streamCfg.OutChannels,
	)
	if err := drv.Start(streamCfg); err != nil {
		log.Error("start failed", "err", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("stopping stream")
	if err := drv.Stop(); err != nil {
		log.Error("stop failed", "err", err)
	}
}
