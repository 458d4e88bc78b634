package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns base/<date>_<time> for one decision cycle; an empty base means "results"
func (p *DefaultPathManager) GetDefaultOutputDir(base string, now time.Time) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "results"
	}
	return filepath.Join(base, now.Format("20060102_1504"))
}

// EnsureDirectoryExists creates the parent directory of path if it doesn't exist
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// DefaultOutputDir is a package-level convenience function
func DefaultOutputDir(base string, now time.Time) string {
	return NewDefaultPathManager().GetDefaultOutputDir(base, now)
}
