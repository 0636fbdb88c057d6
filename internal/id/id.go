package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ManualPrefix starts every manually created candidate ID.
const ManualPrefix = "manual-"

// NewManual returns an ID like "manual-1718000000000-1f0c9a2e".
// The millisecond part records when the entry was created; the suffix keeps
// two entries created in the same millisecond apart.
func NewManual(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%s", ManualPrefix, now.UnixMilli(), suffix)
}

// IsManual reports whether id was produced by NewManual (or the older
// "manual-<millis>" form).
func IsManual(id string) bool {
	return strings.HasPrefix(id, ManualPrefix)
}

// ManualCreatedAt extracts the creation time from a manual ID.
func ManualCreatedAt(id string) (time.Time, error) {
	if !IsManual(id) {
		return time.Time{}, fmt.Errorf("not a manual entry ID: %q", id)
	}
	rest := strings.TrimPrefix(id, ManualPrefix)
	millis, _, _ := strings.Cut(rest, "-")
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in manual ID %q: %w", id, err)
	}
	return time.UnixMilli(ms), nil
}
