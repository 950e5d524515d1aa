package hgemm

import "testing"

func TestDeviceProperties(t *testing.T) {
	dev := DeviceProperties()
	if dev.NumCores < 1 {
		t.Errorf("NumCores = %d, want at least 1", dev.NumCores)
	}
	if dev.WaveWidth != 2*TileDim {
		t.Errorf("WaveWidth = %d, want %d", dev.WaveWidth, 2*TileDim)
	}
	if again := DeviceProperties(); again != dev {
		t.Error("DeviceProperties did not return the cached device")
	}
}

func TestDetectCPUFeaturesConsistency(t *testing.T) {
	f := detectCPUFeatures()
	// Feature flags are hierarchical where the ISA defines them so.
	if f.HasAVX512F && !f.HasAVX2 {
		t.Error("AVX-512F reported without AVX2")
	}
	if f.HasAVX2 && !f.HasAVX {
		t.Error("AVX2 reported without AVX")
	}
	if f.HasFP16 && !f.HasNEON {
		t.Error("FP16 arithmetic reported without ASIMD")
	}
}
