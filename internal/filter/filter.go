// Package filter holds the stage-1 entry filters: recency window and the
// photo-article heuristic.
package filter

import (
	"strings"
	"time"
)

// DefaultWindow is the rolling recency window applied to feed entries.
const DefaultWindow = 24 * time.Hour

// DefaultPhotoMarker flags photo-only articles in Korean news titles.
const DefaultPhotoMarker = "포토"

// IsRecent reports whether published falls inside the rolling window ending
// at now. Entries without a publish timestamp are never recent. The window
// boundary is inclusive.
func IsRecent(published *time.Time, now time.Time, window time.Duration) bool {
	if published == nil {
		return false
	}
	// Future-dated entries (broken feed clocks) yield a negative age and
	// therefore count as recent.
	return now.Sub(*published) <= window
}

// IsPhotoOnly reports whether an entry is an image-only article: the title
// carries the marker substring, or the summary is blank. Marker matching is
// exact substring to avoid false positives.
func IsPhotoOnly(title, summary, marker string) bool {
	if marker != "" && strings.Contains(title, marker) {
		return true
	}
	return strings.TrimSpace(summary) == ""
}
