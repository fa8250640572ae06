package ingest

import "fmt"

// DefaultSizeLimitBytes is the soft aggregate size gate (2 GiB).
const DefaultSizeLimitBytes int64 = 2 << 30

// SizeCheck reports the aggregate size of an upload against the soft limit.
type SizeCheck struct {
	TotalBytes   int64
	FileCount    int
	LimitBytes   int64
	ExceedsLimit bool
}

// CheckSizeLimit totals the file set against the limit. Non-positive limits
// fall back to the default.
func CheckSizeLimit(files []SourceFile, limit int64) SizeCheck {
	if limit <= 0 {
		limit = DefaultSizeLimitBytes
	}
	check := SizeCheck{FileCount: len(files), LimitBytes: limit}
	for _, file := range files {
		check.TotalBytes += file.Size()
	}
	check.ExceedsLimit = check.TotalBytes > limit
	return check
}

// SizeLimitError stops the pipeline before any engine work when the soft
// gate trips. It is a user decision point, not a hard failure: rerun with
// SkipSizeCheck to proceed anyway.
type SizeLimitError struct {
	Check SizeCheck
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("upload of %d files totals %.2f GiB, over the %.2f GiB soft limit",
		e.Check.FileCount,
		float64(e.Check.TotalBytes)/float64(1<<30),
		float64(e.Check.LimitBytes)/float64(1<<30))
}
