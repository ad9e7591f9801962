package flash

import "strings"

// ParseDFUList extracts the USB path of the first device matching the
// given vid:pid from `dfu-util --list` output. dfu-util prints one
// "Found DFU: [vid:pid] ... path="1-2" ..." line per interface.
func ParseDFUList(output, device string) (string, bool) {
	device = strings.ToLower(device)
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(strings.ToLower(line), device) {
			continue
		}
		if path, ok := quotedValue(line, `path="`); ok {
			return path, true
		}
	}
	return "", false
}

func quotedValue(line, prefix string) (string, bool) {
	start := strings.Index(line, prefix)
	if start < 0 {
		return "", false
	}
	rest := line[start+len(prefix):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// downloadArgs builds the dfu-util invocation that writes the firmware
// image to internal flash. A non-empty path pins the exact USB device,
// which matters on hosts with several boards attached.
func downloadArgs(device, path, address, firmware string) []string {
	return append(selectArgs(device, path), "-s", address, "-D", firmware)
}

// leaveArgs builds the dfu-util invocation that asks the bootloader to
// start the freshly written application. The bootloader detaches midway
// through, so callers tolerate a failure here.
func leaveArgs(device, path, address, firmware string) []string {
	return append(selectArgs(device, path), "-s", address+":leave", "-D", firmware)
}

func selectArgs(device, path string) []string {
	args := []string{"-a", "0", "-d", device}
	if path != "" {
		args = append(args, "-p", path)
	}
	return args
}
