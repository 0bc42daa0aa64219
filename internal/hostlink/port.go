package hostlink

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// Port is the board's USB serial device opened in raw mode.
type Port struct {
	f       *os.File
	state   *term.State
	timeout time.Duration
}

// Open opens path and switches the line to raw mode so frame bytes pass
// unmodified. A zero timeout waits forever for replies.
func Open(path string, timeout time.Duration) (*Port, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	p := &Port{f: f, timeout: timeout}
	if err := p.control(func(fd int) (err error) {
		p.state, err = term.MakeRaw(fd)
		return err
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("raw mode on %s: %w", path, err)
	}
	return p, nil
}

// control runs fn on the descriptor without switching the file to blocking
// mode, which File.Fd would do and which disables deadlines.
func (p *Port) control(fn func(fd int) error) error {
	rc, err := p.f.SyscallConn()
	if err != nil {
		return err
	}
	var fnErr error
	if err := rc.Control(func(fd uintptr) { fnErr = fn(int(fd)) }); err != nil {
		return err
	}
	return fnErr
}

func (p *Port) Read(b []byte) (int, error) {
	if p.timeout > 0 {
		if err := p.f.SetReadDeadline(time.Now().Add(p.timeout)); err != nil && !errors.Is(err, os.ErrNoDeadline) {
			return 0, err
		}
	}
	n, err := p.f.Read(b)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, fmt.Errorf("no reply within %s: %w", p.timeout, err)
	}
	return n, err
}

func (p *Port) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

// Close restores the line settings and closes the device.
func (p *Port) Close() error {
	var errs []error
	if p.state != nil {
		errs = append(errs, p.control(func(fd int) error { return term.Restore(fd, p.state) }))
	}
	errs = append(errs, p.f.Close())
	return errors.Join(errs...)
}

