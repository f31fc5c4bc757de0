package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildPatternSnapshotPath places pattern snapshots under a date partition so
// object listings stay cheap and old snapshots are easy to expire.
func BuildPatternSnapshotPath(prefix string, takenAt time.Time, sequence int) (string, error) {
	if err := validatePathComponent(prefix, "snapshot prefix"); err != nil {
		return "", err
	}
	if sequence < 0 {
		return "", fmt.Errorf("sequence must be >= 0")
	}

	ts := takenAt.UTC()
	return path.Join(
		prefix,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("patterns-%02d%02d%02d-%05d.parquet", ts.Hour(), ts.Minute(), ts.Second(), sequence),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
