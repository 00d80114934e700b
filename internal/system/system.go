package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

// PresentationExtensions are the inputs a renderer can turn into slide images.
var PresentationExtensions = []string{".pptx", ".ppt", ".odp", ".key", ".pdf"}

// FindLatestPresentation returns the most recently modified presentation in dir.
func FindLatestPresentation(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrInputNotFound, err)
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsPresentation(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("%w: no presentation in %s", errs.ErrInputNotFound, dir)
	}
	return latestFile, nil
}

// IsPresentation reports whether name has a supported presentation extension.
func IsPresentation(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range PresentationExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LookupTool resolves an external program on PATH.
func LookupTool(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errs.ErrExternalToolUnavailable, name, err)
	}
	return p, nil
}

// RenderWorkers picks how many pages to rasterize at once. A positive
// requested value wins. Otherwise the physical core count is used, capped so
// that two frames of frameBytes per worker fit in available memory.
func RenderWorkers(requested int, frameBytes uint64) int {
	if requested > 0 {
		return requested
	}

	workers, err := cpu.Counts(false)
	if err != nil || workers <= 0 {
		workers = runtime.NumCPU()
	}

	if frameBytes > 0 {
		if vm, err := mem.VirtualMemory(); err == nil {
			byMemory := int(vm.Available / (2 * frameBytes))
			if byMemory < workers {
				workers = byMemory
			}
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}
