// Package storage persists the device configuration using LittleFS.
// It handles atomic writes, version checking, and cleanup of temporary files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	configDir  = "/config"
	deviceFile = "/config/device.bin"
	tempSuffix = ".tmp"

	// Estimated LittleFS cost of the config file and its directory entry.
	fileOverhead = 32
	dirOverhead  = 100
)

var (
	ErrConfigNotFound  = errors.New("device config not found")
	ErrFlashFull       = errors.New("insufficient flash space")
	ErrInvalidConfig   = errors.New("invalid config data")
)

// Manager handles config persistence using LittleFS.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	logger   *slog.Logger
	mounted  bool
	wiped    bool
}

// Stats provides information about storage usage.
type Stats struct {
	TotalSpace int64
	UsedSpace  int64
	FreeSpace  int64
	HasConfig  bool
	Wiped      bool // true if a version mismatch wiped the config at boot
}

// New initializes the storage system with the given block device.
// It mounts the filesystem and performs boot-time cleanup.
// If format is true and mount fails, it will format the filesystem.
func New(blockDev tinyfs.BlockDevice, format bool, logger *slog.Logger) (*Manager, error) {
	logger = log.OrDiscard(logger)
	lfs := littlefs.New(blockDev)

	// Conservative settings for RP2040 flash
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	err := lfs.Mount()
	if err != nil {
		if !format {
			return nil, err
		}
		logger.Warn("formatting flash filesystem", "error", err)
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		fs:       lfs,
		blockDev: blockDev,
		logger:   logger,
		mounted:  true,
	}

	if err := m.bootCleanup(); err != nil {
		// Still usable; a stale temp file is removed on the next write.
		logger.Warn("storage cleanup failed", "error", err)
	}

	needsWipe, err := m.checkVersion()
	if err != nil {
		logger.Warn("stored config unreadable", "error", err)
		needsWipe = false
	}

	if needsWipe {
		// The host tool has to restore settings after a firmware update.
		logger.Info("config version changed, wiping")
		if err := m.wipeAll(); err != nil {
			return nil, err
		}
		m.wiped = true
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if m.mounted {
		m.mounted = false
		return m.fs.Unmount()
	}
	return nil
}

// bootCleanup removes temporary files left over from interrupted writes.
func (m *Manager) bootCleanup() error {
	entries, err := m.readDir(configDir)
	if err != nil {
		// Config dir might not exist yet
		if isNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, tempSuffix) {
			tempPath := path.Join(configDir, name)
			m.logger.Debug("removing stale temp file", "path", tempPath)
			m.fs.Remove(tempPath)
		}
	}

	return nil
}

// readDir reads the directory entries at the given path.
func (m *Manager) readDir(dirPath string) ([]os.FileInfo, error) {
	f, err := m.fs.Open(dirPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !f.IsDir() {
		return nil, errors.New("not a directory")
	}

	return f.Readdir(-1)
}

// checkVersion reads the device config and reports whether its version
// differs from the firmware's.
func (m *Manager) checkVersion() (bool, error) {
	var cfg config.DeviceConfig
	if err := m.LoadDevice(&cfg); err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			// First boot
			return false, nil
		}
		return false, err
	}

	return cfg.Version != config.CurrentVersion, nil
}

// wipeAll removes all configuration files.
func (m *Manager) wipeAll() error {
	if err := m.fs.Remove(deviceFile); err != nil && !isNotExist(err) {
		return err
	}
	m.fs.Remove(deviceFile + tempSuffix)
	return nil
}

// ensureDirs creates the config directory if it doesn't exist.
func (m *Manager) ensureDirs() error {
	if err := m.fs.Mkdir(configDir, 0755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

// isExist checks if an error is "already exists".
// LittleFS errors don't always match os.IsExist, so we check the message too.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// isNotExist is the missing-entry counterpart of isExist.
func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsNotExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "No directory entry")
}

// LoadDevice loads the device configuration.
func (m *Manager) LoadDevice(cfg *config.DeviceConfig) error {
	f, err := m.fs.Open(deviceFile)
	if err != nil {
		if isNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	defer f.Close()

	buf := make([]byte, config.Size)
	n, err := io.ReadFull(f, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %d bytes", ErrInvalidConfig, n)
		}
		return err
	}

	return cfg.UnmarshalBinary(buf)
}

// LoadOrDefault loads the device configuration, falling back to the factory
// settings when none is stored or the stored one is unusable.
func (m *Manager) LoadOrDefault() config.DeviceConfig {
	var cfg config.DeviceConfig
	if err := m.LoadDevice(&cfg); err != nil {
		if !errors.Is(err, ErrConfigNotFound) {
			m.logger.Warn("loading config failed, using defaults", "error", err)
		}
		return config.Default()
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Warn("stored config invalid, using defaults", "error", err)
		return config.Default()
	}
	return cfg
}

// SaveDevice saves the device configuration atomically.
func (m *Manager) SaveDevice(cfg *config.DeviceConfig) error {
	if err := m.ensureDirs(); err != nil {
		return err
	}

	cfg.Version = config.CurrentVersion

	data, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}

	if !m.canFit(len(data)) {
		return ErrFlashFull
	}

	return m.atomicWrite(deviceFile, data)
}

// HasDevice reports whether a device config is stored.
func (m *Manager) HasDevice() bool {
	f, err := m.fs.Open(deviceFile)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// GetStats returns storage statistics.
func (m *Manager) GetStats() (*Stats, error) {
	// LittleFS has no direct free space call, so usage is estimated.
	hasConfig := m.HasDevice()
	used := int64(dirOverhead)
	if hasConfig {
		used += config.Size + fileOverhead
	}

	total := m.blockDev.Size()

	return &Stats{
		TotalSpace: total,
		UsedSpace:  used,
		FreeSpace:  total - used,
		HasConfig:  hasConfig,
		Wiped:      m.wiped,
	}, nil
}

// canFit estimates whether n more bytes can be written. A rewrite needs room
// for the temp file and the original at the same time.
func (m *Manager) canFit(n int) bool {
	stats, err := m.GetStats()
	if err != nil {
		return false
	}
	return stats.FreeSpace > int64(2*(n+fileOverhead))
}

// atomicWrite writes data to a temporary file, syncs it, then renames.
// The original file is never in a partially written state.
func (m *Manager) atomicWrite(filepath string, data []byte) error {
	tempPath := filepath + tempSuffix

	// Leftover from an interrupted write
	m.fs.Remove(tempPath)

	f, err := m.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		m.fs.Remove(tempPath)
		return err
	}

	// Sync ensures data hits flash
	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return err
		}
	}

	if err := f.Close(); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	// LittleFS rename doesn't replace
	m.fs.Remove(filepath)

	if err := m.fs.Rename(tempPath, filepath); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	return nil
}

// ForceWipe erases the stored configuration (factory reset).
func (m *Manager) ForceWipe() error {
	return m.wipeAll()
}
