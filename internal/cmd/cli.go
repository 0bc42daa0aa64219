// Package cmd holds the hpctl commands.
package cmd

import (
	"io"
	"log/slog"
	"time"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/hostlink"
)

// CLI is the hpctl command line.
type CLI struct {
	Globals `embed:""`

	ConfigFile string `name:"config-file" help:"Extra file to read flag defaults from" type:"path" env:"HPCTL_CONFIG"`
	Log        Log    `embed:"" prefix:"log."`

	Ping    Ping          `cmd:"" help:"Check that the device answers"`
	Version VersionCmd    `cmd:"" help:"Show the firmware version"`
	Status  StatusCmd     `cmd:"" help:"Show the running mode and report counters"`
	Stats   StatsCmd      `cmd:"" help:"Show flash usage"`
	Show    Show          `cmd:"" help:"Show text on the device screen until the next mode change"`
	Reset   Reset         `cmd:"" help:"Wipe the stored config and return to factory settings"`
	Config  ConfigCommand `cmd:"" help:"Read, write and scaffold device settings"`
}

// Log configures the host logger.
type Log struct {
	Level string `help:"Log level" default:"info" enum:"trace,debug,info,warn,error" env:"HPCTL_LOG_LEVEL"`
	File  string `help:"Also write logs to this file" env:"HPCTL_LOG_FILE"`
}

// Globals are the connection flags shared by every device command.
type Globals struct {
	Port    string        `help:"Serial device of the board" default:"/dev/ttyACM0" env:"HPCTL_PORT"`
	Timeout time.Duration `help:"How long to wait for a reply" default:"2s" env:"HPCTL_TIMEOUT"`

	// dial replaces the serial port in tests.
	dial func() (io.ReadWriteCloser, error)
}

// session connects to the device. The caller closes the returned closer.
func (g *Globals) session(logger *slog.Logger) (*hostlink.Session, io.Closer, error) {
	var (
		rw  io.ReadWriteCloser
		err error
	)
	if g.dial != nil {
		rw, err = g.dial()
	} else {
		rw, err = hostlink.Open(g.Port, g.Timeout)
	}
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("connected", "port", g.Port)
	return hostlink.NewSession(rw, logger), rw, nil
}
