package pdcr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"Sales":    "%Sales",
		"Sales%":   "Sales%",
		"%Sales":   "%Sales",
		"a_b":      "a_b",
		"":         "%",
		"  ":       "%",
		" Sales ":  "%Sales",
		"%":        "%",
	}
	for in, want := range cases {
		assert.Equal(t, want, likePattern(in), "likePattern(%q)", in)
	}
}

func TestNormalizeRange_Defaults(t *testing.T) {
	start, end := normalizeRange(time.Time{}, time.Time{})

	assert.Equal(t, "1900-01-01", start)
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	assert.Equal(t, yesterday, end)
}

func TestNormalizeRange_Explicit(t *testing.T) {
	start, end := normalizeRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)

	assert.Equal(t, "2024-01-01", start)
	assert.Equal(t, "2024-01-31", end)
}
