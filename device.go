package hgemm

import (
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Device describes the compute device servicing kernel launches. In this
// package the device is the CPU; blocks are scheduled across its cores and
// warps are emulated in software.
type Device struct {
	Name      string      // Human-readable device name
	NumCores  int         // Number of CPU cores available for block scheduling
	WaveWidth int         // Lanes per warp, as executed by the MMA unit
	Features  CPUFeatures // Instruction set extensions
}

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool
	HasFMA     bool
	HasNEON    bool
	HasFP16    bool
}

var (
	defaultDevice *Device
	deviceOnce    sync.Once
)

// DeviceProperties returns the device servicing kernel launches. The wave
// width is probed once here: some platforms report a different width on the
// host side than the compute side actually executes, so call sites must
// never hardcode it.
func DeviceProperties() *Device {
	deviceOnce.Do(func() {
		defaultDevice = &Device{
			Name:      "CPU",
			NumCores:  runtime.NumCPU(),
			WaveWidth: probeWaveWidth(),
			Features:  detectCPUFeatures(),
		}
	})
	return defaultDevice
}

// probeWaveWidth returns the lane count of one warp as seen by the MMA unit.
// The emulated unit executes 32-lane waves where the upper half replicates
// the lower half's fragment rows, matching the wave layout of the hardware
// primitive it models.
func probeWaveWidth() int {
	return 2 * TileDim
}

// detectCPUFeatures populates the feature flags from the running CPU
func detectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasNEON:    cpu.ARM64.HasASIMD,
		HasFP16:    cpu.ARM64.HasFPHP,
	}
}
