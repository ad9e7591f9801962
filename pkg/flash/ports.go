package flash

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes an enumerated serial port.
type PortInfo struct {
	Name        string // OS device name, e.g. /dev/ttyACM0 or COM4
	Description string // USB product string, empty for non-USB ports
	HWID        string // lowercase vid:pid, empty for non-USB ports
}

// Lister enumerates the serial ports currently attached.
type Lister interface {
	List() ([]PortInfo, error)
}

type serialLister struct{}

func (serialLister) List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Name: d.Name, Description: d.Product}
		if d.IsUSB {
			info.HWID = strings.ToLower(d.VID + ":" + d.PID)
		}
		ports = append(ports, info)
	}
	return ports, nil
}

// MatchPort returns the first port whose description contains keyword or
// whose hardware ID contains hwid. Matching is case-insensitive and an
// empty pattern never matches.
func MatchPort(ports []PortInfo, keyword, hwid string) (PortInfo, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	hwid = strings.ToLower(strings.TrimSpace(hwid))

	for _, p := range ports {
		if keyword != "" && strings.Contains(strings.ToLower(p.Description), keyword) {
			return p, true
		}
		if hwid != "" && strings.Contains(strings.ToLower(p.HWID), hwid) {
			return p, true
		}
	}
	return PortInfo{}, false
}

// Opener opens a serial port at the given baud rate.
type Opener func(name string, baud int) (io.ReadWriteCloser, error)

func openSerial(name string, baud int) (io.ReadWriteCloser, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return port, nil
}
