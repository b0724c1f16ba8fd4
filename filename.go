package later2pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-later2pdf/internal/dateutil"
)

// Document metadata constants.
const (
	DocumentAuthor = "Various"
	Creator        = "later2pdf"
)

// Filename returns "<Backend>_<YYYYMMDD>_<8 hex>.<ext>". The suffix is the
// head of a random UUID, so two conversions on the same day never clash.
func Filename(backend string, f Format, t time.Time) string {
	stamp, _ := dateutil.FormatDate(dateutil.CompactDateFormat, t)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s.%s", safeName(backend), stamp, suffix, f.Ext())
}

// DocumentTitle returns the title shown on the cover and in the metadata.
func DocumentTitle(backend string, f Format, date string) string {
	if f == FormatEPUB {
		return fmt.Sprintf("%s Articles %s", backend, date)
	}
	return fmt.Sprintf("%s %s", backend, date)
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if s == "" {
		return "Articles"
	}
	return s
}
