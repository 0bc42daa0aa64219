package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Ping sends a few bytes and checks the echo.
type Ping struct {
	Payload string `arg:"" optional:"" help:"Bytes to echo" default:"hpctl"`
}

// Run is called by Kong when the ping command is executed.
func (c *Ping) Run(g *Globals, logger *slog.Logger, out io.Writer) error {
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	start := time.Now()
	if err := s.Ping([]byte(c.Payload)); err != nil {
		return err
	}
	fmt.Fprintf(out, "pong in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

type VersionCmd struct{}

// Run is called by Kong when the version command is executed.
func (c *VersionCmd) Run(g *Globals, logger *slog.Logger, out io.Writer) error {
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	v, err := s.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "firmware %s\n", v)
	return nil
}

type StatusCmd struct{}

// Run is called by Kong when the status command is executed.
func (c *StatusCmd) Run(g *Globals, logger *slog.Logger, out io.Writer) error {
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := s.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "mode:    %s (%s)\n", st.Mode, st.Mode.Text())
	fmt.Fprintf(out, "sent:    %d\n", st.Sent)
	fmt.Fprintf(out, "dropped: %d\n", st.Dropped)
	return nil
}

type StatsCmd struct{}

// Run is called by Kong when the stats command is executed.
func (c *StatsCmd) Run(g *Globals, logger *slog.Logger, out io.Writer) error {
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := s.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "total:  %d bytes\n", st.Total)
	fmt.Fprintf(out, "used:   %d bytes\n", st.Used)
	fmt.Fprintf(out, "free:   %d bytes\n", st.Free)
	fmt.Fprintf(out, "config: %s\n", storedState(st.HasConfig, st.Wiped))
	return nil
}

func storedState(has, wiped bool) string {
	switch {
	case has:
		return "stored"
	case wiped:
		return "wiped after a firmware update"
	default:
		return "factory defaults"
	}
}

// Show pushes a line of text to the device screen.
type Show struct {
	Text string `arg:"" optional:"" help:"Text to show; empty clears the line"`
}

// Run is called by Kong when the show command is executed.
func (c *Show) Run(g *Globals, logger *slog.Logger) error {
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	return s.ShowText(c.Text)
}

// Reset wipes the stored config.
type Reset struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

// Run is called by Kong when the reset command is executed.
func (c *Reset) Run(g *Globals, logger *slog.Logger) error {
	if !c.Yes {
		return errors.New("reset erases the stored settings; pass --yes to confirm")
	}
	s, closer, err := g.session(logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := s.FactoryReset(); err != nil {
		return err
	}
	logger.Info("device reset to factory settings")
	return nil
}
