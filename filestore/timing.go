package filestore

import (
	"os"
	"time"
)

// File watching and permission defaults.
const (
	DefaultDebounce = 500 * time.Millisecond // File change coalescence period
	MinDebounce     = 10 * time.Millisecond  // Hard floor for debounce

	DefaultFileMode os.FileMode = 0644
	DefaultDirMode  os.FileMode = 0755
)
