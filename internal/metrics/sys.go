package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"
)

var startedAt = time.Now()

// DirUsage is the on-disk size of one directory the service writes to.
type DirUsage struct {
	Path string `json:"path" yaml:"path"`
	Size string `json:"size" yaml:"size"`
}

// SysHealth is a point-in-time snapshot of the process and its storage.
type SysHealth struct {
	HeapMB     uint64     `json:"heap_mb" yaml:"heap_mb"`
	SysMB      uint64     `json:"sys_mb" yaml:"sys_mb"`
	NumGC      uint32     `json:"num_gc" yaml:"num_gc"`
	Goroutines int        `json:"goroutines" yaml:"goroutines"`
	Uptime     string     `json:"uptime" yaml:"uptime"`
	Storage    []DirUsage `json:"storage" yaml:"storage"`
}

// GetSysHealth reads runtime memory stats and measures each of dirs.
// Empty paths are skipped.
func GetSysHealth(dirs ...string) SysHealth {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	h := SysHealth{
		HeapMB:     mem.HeapAlloc >> 20,
		SysMB:      mem.Sys >> 20,
		NumGC:      mem.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(startedAt).Truncate(time.Second).String(),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		h.Storage = append(h.Storage, DirUsage{Path: dir, Size: FormatBytes(dirSize(dir))})
	}
	return h
}

// dirSize sums regular file sizes below root. Unreadable entries count as zero.
func dirSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// FormatBytes renders n with a binary unit, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v, i := float64(n), 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
