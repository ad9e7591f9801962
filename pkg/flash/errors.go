package flash

import (
	"fmt"
	"strings"
)

// PortNotFoundError indicates that no serial port matched the configured
// description keyword or hardware ID.
type PortNotFoundError struct {
	Keyword string
	HWID    string
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("no serial port matched description %q or hardware ID %q",
		e.Keyword, e.HWID)
}

// DFUNotFoundError indicates that the DFU bootloader never enumerated.
type DFUNotFoundError struct {
	Device   string
	Attempts int
}

func (e *DFUNotFoundError) Error() string {
	return fmt.Sprintf("DFU device %s not found after %d attempts", e.Device, e.Attempts)
}

// CommandError wraps a failed external command with its captured output.
type CommandError struct {
	Name   string
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
