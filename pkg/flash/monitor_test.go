package flash

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhre/nightcan/pkg/logger"
)

// pipePort is a fake serial port backed by an in-process pipe. Reads
// come from the pipe, writes are captured for inspection.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu     sync.Mutex
	writes bytes.Buffer
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes.Write(b)
}

func (p *pipePort) Close() error {
	p.r.Close()
	return p.w.Close()
}

func (p *pipePort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes.String()
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func TestMonitor_StreamsLines(t *testing.T) {
	port := newPipePort()
	var out bytes.Buffer
	m := NewMonitor(port, &out, quietLogger())

	go func() {
		io.WriteString(port.w, "boot ok\r\n")
		io.WriteString(port.w, "can init\n")
		port.w.Close()
	}()

	err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "boot ok")
	assert.Contains(t, out.String(), "can init")
}

func TestMonitor_CancelClosesPort(t *testing.T) {
	port := newPipePort()
	m := NewMonitor(port, io.Discard, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}

	// The port is closed, so a subsequent read fails immediately.
	_, err := port.r.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestMonitor_InputEOFStopsSession(t *testing.T) {
	port := newPipePort()
	m := NewMonitor(port, io.Discard, quietLogger())

	done := make(chan error, 1)
	go func() {
		done <- m.RunWithInput(context.Background(), strings.NewReader("status\n"))
	}()

	// A finite input ends the session cleanly once forwarded.
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after end of input")
	}

	assert.Equal(t, "status\n", port.written())

	// The port was released on the way out.
	_, err := port.r.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestMonitor_RunWithInputStillHonorsCancel(t *testing.T) {
	port := newPipePort()
	m := NewMonitor(port, io.Discard, quietLogger())

	// An input that never ends, so only cancellation can stop the run.
	blocked, _ := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.RunWithInput(ctx, blocked) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

func TestMonitor_SendAppendsNewline(t *testing.T) {
	port := newPipePort()
	m := NewMonitor(port, io.Discard, quietLogger())

	require.NoError(t, m.Send("update"))
	assert.Equal(t, "update\n", port.written())
}
