package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/configpaths"
	"github.com/tuffrabit/tinygo-hiperperiferico/internal/hostlink"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/protocol"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Get  ConfigGet  `cmd:"" help:"Print the stored device settings"`
	Set  ConfigSet  `cmd:"" help:"Store and apply settings from a file"`
	Init ConfigInit `cmd:"" help:"Write a settings file with the factory defaults"`
}

// ConfigGet prints the device settings.
type ConfigGet struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
}

// Run is called by Kong when the config get command is executed.
func (c *ConfigGet) Run(g *Globals, logger *slog.Logger, out io.Writer) error {
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg, err := s.Config()
	if hostlink.IsStatus(err, protocol.StatusNotFound) {
		logger.Warn("device has no stored settings, showing factory defaults")
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return err
	}

	data, err := MarshalSettings(SettingsFrom(&cfg), c.Format)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// ConfigSet uploads a settings file.
type ConfigSet struct {
	File   string `arg:"" help:"Settings file" type:"existingfile"`
	Format string `help:"File format (json, yaml or toml); guessed from the extension when empty"`
}

// Run is called by Kong when the config set command is executed.
func (c *ConfigSet) Run(g *Globals, logger *slog.Logger) error {
	format := c.Format
	if format == "" {
		format = configpaths.FormatOf(c.File)
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	settings, err := UnmarshalSettings(data, format)
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.File, err)
	}
	cfg, err := settings.Device()
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := s.SetConfig(&cfg); err != nil {
		return err
	}
	logger.Info("settings stored", "file", c.File, "layout", cfg.Layout)
	return nil
}

// ConfigInit scaffolds a settings file.
type ConfigInit struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to device.<format> in the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

// Run is called by Kong when the config init command is executed.
func (c *ConfigInit) Run(logger *slog.Logger) error {
	def := config.Default()
	data, err := MarshalSettings(SettingsFrom(&def), c.Format)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		dest = "device." + normalizeFormat(c.Format)
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	logger.Info("settings file written", "path", dest)
	return nil
}
