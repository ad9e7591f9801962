// Package flash drives the STM32 DFU firmware update workflow: ask the
// running application to reboot into the bootloader over serial, wait
// for the DFU device to enumerate, hand the image to dfu-util, and
// watch the board come back as a serial port.
package flash

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lhre/nightcan/pkg/logger"
)

// bootloaderRequest is the line the firmware interprets as a reboot
// into DFU mode.
const bootloaderRequest = "update\n"

// Config holds the flashing parameters.
type Config struct {
	DescKeyword  string        // Serial port description substring
	HWID         string        // Serial mode vid:pid substring
	DFUDevice    string        // Bootloader vid:pid
	BaudRate     int           // Serial baud rate
	DfuseAddress string        // Flash base address, e.g. 0x08000000
	Retries      int           // Enumeration attempts
	RetryDelay   time.Duration // Delay between attempts
}

// Flasher orchestrates the DFU update sequence.
type Flasher struct {
	cfg    Config
	log    *logger.Logger
	runner Runner
	lister Lister
	opener Opener
}

// Option overrides a Flasher collaborator, mainly for tests.
type Option func(*Flasher)

// WithRunner substitutes the external command runner.
func WithRunner(r Runner) Option {
	return func(f *Flasher) { f.runner = r }
}

// WithLister substitutes the serial port enumerator.
func WithLister(l Lister) Option {
	return func(f *Flasher) { f.lister = l }
}

// WithOpener substitutes the serial port opener.
func WithOpener(o Opener) Option {
	return func(f *Flasher) { f.opener = o }
}

// WithEcho streams dfu-util output to w while it runs.
func WithEcho(w io.Writer) Option {
	return func(f *Flasher) { f.runner = &execRunner{echo: w} }
}

// New creates a Flasher. Zero retry settings fall back to a single
// attempt with a two second delay.
func New(cfg Config, log *logger.Logger, opts ...Option) *Flasher {
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	f := &Flasher{
		cfg:    cfg,
		log:    log,
		runner: &execRunner{},
		lister: serialLister{},
		opener: openSerial,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build compiles a firmware target in the cmake build tree. The image
// is located afterwards with FindFirmware.
func (f *Flasher) Build(ctx context.Context, buildDir, target string) error {
	f.log.Info("building firmware",
		logger.String("build_dir", buildDir),
		logger.String("target", target))
	if _, err := f.runner.Run(ctx, "cmake", "--build", buildDir, "--target", target); err != nil {
		return fmt.Errorf("build target %s: %w", target, err)
	}
	return nil
}

// FindPort enumerates serial ports and returns the one matching the
// configured description keyword or hardware ID.
func (f *Flasher) FindPort() (PortInfo, error) {
	ports, err := f.lister.List()
	if err != nil {
		return PortInfo{}, err
	}
	port, ok := MatchPort(ports, f.cfg.DescKeyword, f.cfg.HWID)
	if !ok {
		return PortInfo{}, &PortNotFoundError{Keyword: f.cfg.DescKeyword, HWID: f.cfg.HWID}
	}
	return port, nil
}

// RequestBootloader opens the application serial port and sends the
// reboot-to-bootloader command.
func (f *Flasher) RequestBootloader(port PortInfo) error {
	conn, err := f.opener(port.Name, f.cfg.BaudRate)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(bootloaderRequest)); err != nil {
		return fmt.Errorf("send bootloader request to %s: %w", port.Name, err)
	}
	return nil
}

// WaitForDFU polls `dfu-util --list` until the bootloader enumerates,
// returning its USB path.
func (f *Flasher) WaitForDFU(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= f.cfg.Retries; attempt++ {
		out, err := f.runner.Run(ctx, "dfu-util", "--list")
		if err != nil {
			// dfu-util exits nonzero when no device is attached.
			f.log.Debug("dfu-util list failed", logger.Int("attempt", attempt), logger.Error(err))
		}
		if path, ok := ParseDFUList(out, f.cfg.DFUDevice); ok {
			return path, nil
		}

		if attempt < f.cfg.Retries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.cfg.RetryDelay):
			}
		}
	}
	return "", &DFUNotFoundError{Device: f.cfg.DFUDevice, Attempts: f.cfg.Retries}
}

// WaitForSerial polls the port list until the application serial port
// reappears after a flash.
func (f *Flasher) WaitForSerial(ctx context.Context) (PortInfo, error) {
	for attempt := 1; attempt <= f.cfg.Retries; attempt++ {
		port, err := f.FindPort()
		if err == nil {
			return port, nil
		}
		f.log.Debug("serial port not back yet", logger.Int("attempt", attempt))

		if attempt < f.cfg.Retries {
			select {
			case <-ctx.Done():
				return PortInfo{}, ctx.Err()
			case <-time.After(f.cfg.RetryDelay):
			}
		}
	}
	return PortInfo{}, &PortNotFoundError{Keyword: f.cfg.DescKeyword, HWID: f.cfg.HWID}
}

// Flash runs the full update sequence for the given firmware image.
// A missing application serial port is not fatal: the board may already
// be sitting in the bootloader.
func (f *Flasher) Flash(ctx context.Context, firmware string) error {
	if _, err := os.Stat(firmware); err != nil {
		return fmt.Errorf("firmware image: %w", err)
	}

	if port, err := f.FindPort(); err == nil {
		f.log.Info("requesting bootloader",
			logger.String("port", port.Name),
			logger.String("description", port.Description))
		if err := f.RequestBootloader(port); err != nil {
			f.log.Warn("bootloader request failed", logger.Error(err))
		}
	} else {
		f.log.Info("no application port found, assuming device is already in DFU mode")
	}

	path, err := f.WaitForDFU(ctx)
	if err != nil {
		return err
	}
	f.log.Info("DFU bootloader present",
		logger.String("device", f.cfg.DFUDevice),
		logger.String("path", path))

	if _, err := f.runner.Run(ctx, "dfu-util",
		downloadArgs(f.cfg.DFUDevice, path, f.cfg.DfuseAddress, firmware)...); err != nil {
		return fmt.Errorf("download firmware: %w", err)
	}
	f.log.Info("firmware written", logger.String("image", firmware))

	// The leave request reboots the board into the application. dfu-util
	// reports an error once the device detaches, so failure is expected.
	if _, err := f.runner.Run(ctx, "dfu-util",
		leaveArgs(f.cfg.DFUDevice, path, f.cfg.DfuseAddress, firmware)...); err != nil {
		f.log.Debug("leave request reported an error, device likely rebooted", logger.Error(err))
	}

	return nil
}

// OpenMonitor waits for the application serial port and opens a
// Monitor on it.
func (f *Flasher) OpenMonitor(ctx context.Context, out io.Writer) (*Monitor, error) {
	port, err := f.WaitForSerial(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := f.opener(port.Name, f.cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	f.log.Info("monitoring serial port",
		logger.String("port", port.Name),
		logger.Int("baud", f.cfg.BaudRate))
	return NewMonitor(conn, out, f.log), nil
}
