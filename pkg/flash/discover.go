package flash

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// FindFirmware locates the most recently built .bin image under the
// build directory. CMake build trees keep the image next to the ELF, so
// the search is recursive.
func FindFirmware(buildDir string) (string, error) {
	var newest string
	var newestTime time.Time

	err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".bin") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = path
			newestTime = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan build directory %s: %w", buildDir, err)
	}
	if newest == "" {
		return "", fmt.Errorf("no .bin image found under %s", buildDir)
	}
	return newest, nil
}
