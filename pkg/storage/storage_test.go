package storage

import (
	"errors"
	"testing"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"

	"tinygo.org/x/tinyfs"
)

func newTestStorage(tb testing.TB) (*Manager, *tinyfs.MemBlockDevice) {
	// Memory-backed block device simulating RP2040 flash
	// 256 byte page size, 4096 byte block size, 64 blocks = 256KB
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		tb.Fatalf("Failed to create storage: %v", err)
	}

	return mgr, blockDev
}

func TestDeviceConfigSaveLoad(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	original := config.Default()
	original.Version = 0
	original.Flags = config.FlagPassthrough | config.FlagInvertY
	original.Layout = config.LayoutBreadboard
	original.Divisor = 64

	if err := mgr.SaveDevice(&original); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	var loaded config.DeviceConfig
	if err := mgr.LoadDevice(&loaded); err != nil {
		t.Fatalf("LoadDevice failed: %v", err)
	}

	if loaded.Version != config.CurrentVersion {
		t.Errorf("Version not set: expected %d, got %d", config.CurrentVersion, loaded.Version)
	}
	if loaded.Flags != original.Flags {
		t.Errorf("Flags: expected 0x%x, got 0x%x", original.Flags, loaded.Flags)
	}
	if loaded.Layout != config.LayoutBreadboard {
		t.Errorf("Layout: expected breadboard, got %s", loaded.Layout)
	}
	if loaded.Divisor != 64 {
		t.Errorf("Divisor: expected 64, got %d", loaded.Divisor)
	}
}

func TestConfigNotFound(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	var cfg config.DeviceConfig
	err := mgr.LoadDevice(&cfg)

	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
	if mgr.HasDevice() {
		t.Error("HasDevice should be false on a fresh filesystem")
	}
}

func TestLoadOrDefault(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	if got := mgr.LoadOrDefault(); got != config.Default() {
		t.Errorf("Expected defaults on empty flash, got %+v", got)
	}

	cfg := config.Default()
	cfg.DeadZone = 250
	if err := mgr.SaveDevice(&cfg); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	if got := mgr.LoadOrDefault(); got.DeadZone != 250 {
		t.Errorf("Expected stored dead zone 250, got %d", got.DeadZone)
	}
}

func TestLoadOrDefaultRejectsInvalid(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	cfg := config.Default()
	cfg.Divisor = 0
	if err := mgr.SaveDevice(&cfg); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	if got := mgr.LoadOrDefault(); got != config.Default() {
		t.Errorf("Expected defaults for invalid stored config, got %+v", got)
	}
}

func TestTruncatedConfig(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	if err := mgr.ensureDirs(); err != nil {
		t.Fatalf("ensureDirs failed: %v", err)
	}
	if err := mgr.atomicWrite(deviceFile, []byte{1, 0, 0}); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}

	var cfg config.DeviceConfig
	if err := mgr.LoadDevice(&cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	first := config.Default()
	first.Contrast = 0x11
	mgr.SaveDevice(&first)

	second := config.Default()
	second.Contrast = 0x22
	mgr.SaveDevice(&second)

	var loaded config.DeviceConfig
	mgr.LoadDevice(&loaded)

	if loaded.Contrast != 0x22 {
		t.Errorf("Expected contrast 0x22, got 0x%x", loaded.Contrast)
	}
}

func TestBootCleanupRemovesTemp(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	mgr.ensureDirs()
	if err := mgr.atomicWrite(deviceFile+tempSuffix+tempSuffix, []byte("partial")); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}
	mgr.Close()

	mgr2, err := New(blockDev, false, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	entries, err := mgr2.readDir(configDir)
	if err != nil {
		t.Fatalf("readDir failed: %v", err)
	}
	for _, e := range entries {
		t.Errorf("Unexpected entry after cleanup: %s", e.Name())
	}
}

func TestVersionMatchKeepsConfig(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	cfg := config.Default()
	mgr.SaveDevice(&cfg)
	mgr.Close()

	mgr2, err := New(blockDev, false, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if !mgr2.HasDevice() {
		t.Error("Device config should still exist when version matches")
	}
	stats, _ := mgr2.GetStats()
	if stats.Wiped {
		t.Error("Wiped should be false when version matches")
	}
}

func TestVersionMismatchWipe(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	// Write a record from a different firmware generation directly
	old := config.Default()
	old.Version = config.CurrentVersion + 1
	data, _ := old.MarshalBinary()
	mgr.ensureDirs()
	if err := mgr.atomicWrite(deviceFile, data); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}
	mgr.Close()

	mgr2, err := New(blockDev, false, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if mgr2.HasDevice() {
		t.Error("Device config should be wiped on version mismatch")
	}
	stats, err := mgr2.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if !stats.Wiped {
		t.Error("Stats should report the wipe")
	}
}

func TestFactoryReset(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	cfg := config.Default()
	mgr.SaveDevice(&cfg)

	if err := mgr.ForceWipe(); err != nil {
		t.Fatalf("ForceWipe failed: %v", err)
	}

	var device config.DeviceConfig
	if err := mgr.LoadDevice(&device); err == nil {
		t.Error("Expected device config to be wiped")
	}

	// Wiping an empty filesystem is fine
	if err := mgr.ForceWipe(); err != nil {
		t.Errorf("Second ForceWipe failed: %v", err)
	}
}

func TestStorageStats(t *testing.T) {
	mgr, blockDev := newTestStorage(t)
	defer mgr.Close()

	stats1, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats1.HasConfig {
		t.Error("Expected no config initially")
	}
	if stats1.TotalSpace != blockDev.Size() {
		t.Errorf("TotalSpace: expected %d, got %d", blockDev.Size(), stats1.TotalSpace)
	}

	cfg := config.Default()
	mgr.SaveDevice(&cfg)

	stats2, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if !stats2.HasConfig {
		t.Error("Expected config after save")
	}
	if stats2.UsedSpace <= stats1.UsedSpace {
		t.Errorf("UsedSpace should grow: %d -> %d", stats1.UsedSpace, stats2.UsedSpace)
	}
	if stats2.FreeSpace != stats2.TotalSpace-stats2.UsedSpace {
		t.Error("FreeSpace should be TotalSpace-UsedSpace")
	}
}

func BenchmarkDeviceSave(b *testing.B) {
	mgr, _ := newTestStorage(b)
	defer mgr.Close()

	cfg := config.Default()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.DeadZone = uint16(i)
		mgr.SaveDevice(&cfg)
	}
}

func BenchmarkDeviceLoad(b *testing.B) {
	mgr, _ := newTestStorage(b)
	defer mgr.Close()

	cfg := config.Default()
	mgr.SaveDevice(&cfg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var loaded config.DeviceConfig
		mgr.LoadDevice(&loaded)
	}
}
