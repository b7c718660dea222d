package pdcr

import (
	"strings"
	"time"
)

// epochStart is the inclusive default lower bound for history queries
const epochStart = "1900-01-01"

const dateLayout = "2006-01-02"

// normalizeRange turns an optional date range into bound ISO strings. A zero
// start falls back to the epoch; a zero end falls back to yesterday, the most
// recent day PDCR is guaranteed to have collected.
func normalizeRange(start, end time.Time) (string, string) {
	startValue := epochStart
	if !start.IsZero() {
		startValue = start.Format(dateLayout)
	}

	endValue := time.Now().AddDate(0, 0, -1).Format(dateLayout)
	if !end.IsZero() {
		endValue = end.Format(dateLayout)
	}

	return startValue, endValue
}

// likePattern builds a LIKE filter, honoring wildcards the caller already
// provided. A bare name gets a leading % so it matches regardless of any
// prefix; an empty value matches everything.
func likePattern(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "%"
	}
	if strings.ContainsAny(name, "%_") {
		return name
	}
	return "%" + name
}
