package flash

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lhre/nightcan/pkg/logger"
)

// readerJoinTimeout bounds how long Run waits for the reader goroutine
// after closing the port.
const readerJoinTimeout = 2 * time.Second

// Monitor streams lines from a serial port to an output writer.
type Monitor struct {
	port io.ReadWriteCloser
	out  io.Writer
	log  *logger.Logger

	closeOnce sync.Once
}

// NewMonitor wraps an open port. The caller keeps ownership of out;
// the monitor closes the port when Run returns.
func NewMonitor(port io.ReadWriteCloser, out io.Writer, log *logger.Logger) *Monitor {
	return &Monitor{port: port, out: out, log: log}
}

// Run copies port output to the writer line by line until the context
// is cancelled or the port stops delivering data. The port is closed on
// every exit path.
func (m *Monitor) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(m.port)
		for sc.Scan() {
			fmt.Fprintln(m.out, sc.Text())
		}
		errc <- sc.Err()
	}()

	select {
	case <-ctx.Done():
		m.Close()
		// The reader unblocks once the port is closed.
		select {
		case <-errc:
		case <-time.After(readerJoinTimeout):
			m.log.Warn("serial reader did not stop after close")
		}
		return ctx.Err()
	case err := <-errc:
		m.Close()
		if err != nil {
			return fmt.Errorf("serial read: %w", err)
		}
		return nil
	}
}

// RunWithInput runs the monitor while forwarding lines from in to the
// port. The session stops on cancellation or when the input ends, so a
// closed stdin terminates the monitor instead of leaving it blocked.
func (m *Monitor) RunWithInput(ctx context.Context, in io.Reader) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if err := m.Send(sc.Text()); err != nil {
				break
			}
		}
		// End of input stops the session like an interrupt does.
		stop()
	}()

	err := m.Run(runCtx)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil
	}
	return err
}

// Send writes one line to the port, appending the newline the firmware
// console expects.
func (m *Monitor) Send(line string) error {
	if _, err := m.port.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Close closes the underlying port. Safe to call more than once.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		if err := m.port.Close(); err != nil {
			m.log.Debug("close serial port", logger.Error(err))
		}
	})
}
