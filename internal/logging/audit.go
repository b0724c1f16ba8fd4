package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditEntry is one converted article recorded in the audit log.
type AuditEntry struct {
	Title string
	URL   string
}

// AuditLog appends a plain-text record of every converted batch.
// A zero path disables it.
type AuditLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewAuditLog creates an AuditLog writing to path.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path, now: time.Now}
}

// Record appends a dated section listing each entry's title and URL.
// The parent directory is created when missing.
func (a *AuditLog) Record(entries []AuditEntry) error {
	if a == nil || a.path == "" || len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nArticles converted on %s:\n", a.now().Format("2006-01-02"))
	b.WriteString(strings.Repeat("=", 30))
	b.WriteByte('\n')
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\n%s\n\n", e.Title, e.URL)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if dir := filepath.Dir(a.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating audit log dir: %w", err)
		}
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640) // #nosec G304 -- path comes from config
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing audit log: %w", err)
	}
	return f.Close()
}
