package inbox

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the inbox watcher.
type Options struct {
	// Patterns selects which files are picked up. Defaults to *.csv.
	Patterns []string
	// SettleDelay is how long a file must stay unchanged before it is processed.
	SettleDelay time.Duration
	// ProcessedDir receives handled files. Defaults to <dir>/processed.
	ProcessedDir string
	// FailedDir receives files the handler rejected. Defaults to <dir>/failed.
	FailedDir string
}

func (o *Options) setDefaults(dir string) {
	if o.SettleDelay == 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
	if o.Patterns == nil {
		o.Patterns = []string{"*.csv"}
	}
	if o.ProcessedDir == "" {
		o.ProcessedDir = filepath.Join(dir, "processed")
	}
	if o.FailedDir == "" {
		o.FailedDir = filepath.Join(dir, "failed")
	}
}

// accepts reports whether path is a file the inbox should process. Hidden
// files and editor temp files are skipped.
func (o *Options) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	for _, pattern := range o.Patterns {
		if ok, err := filepath.Match(pattern, strings.ToLower(base)); err == nil && ok {
			return true
		}
	}
	return false
}
