package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eau-tools/eau"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
	counts  = make(map[string]int)
)

// Enable starts debug logging to ~/.config/eau-tools/debug.log
func Enable() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return EnableAt(filepath.Join(homeDir, ".config", "eau-tools", "debug.log"))
}

// EnableAt starts debug logging to the given file, truncating it
func EnableAt(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	clear(counts)

	// Write directly (can't call Log - we hold the mutex)
	write("debug", "=== Debug logging started ===")

	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Enabled reports whether a log file is open
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, category, msg)
	file.Sync() // flush immediately so we see logs even on crash
}

// Count returns how many warnings were logged under category since Enable
func Count(category string) int {
	mu.Lock()
	defer mu.Unlock()
	return counts[category]
}

// Warner returns a warning sink that logs under category and then hands the
// warning to next, which may be nil
func Warner(category string, next eau.WarnFunc) eau.WarnFunc {
	return func(err error) {
		mu.Lock()
		counts[category]++
		mu.Unlock()
		Log(category, "warning: %v", err)
		if next != nil {
			next(err)
		}
	}
}
