package dotdir

import "path/filepath"

// Well-known file names inside the larder directory.
const (
	DatabaseFile = "larder.db"
	LogFile      = "larder.log"
	MetricsFile  = "metrics.jsonl"
	TracesFile   = "traces.jsonl"
)

// Path returns the absolute path of name inside the resolved larder
// directory. See Target for how the directory is resolved.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}
