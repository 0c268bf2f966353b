// Package pagerange parses the comma-separated page-range and margin
// syntax shared by most PDF tools ("1,3-5,7", "10,10,10,10").
package pagerange

import (
	"strconv"
	"strings"

	"zenpdf-worker/internal/pkg/workererr"
)

// ParseList expands value against totalPages into an ordered page list,
// preserving document order and duplicates. Non-numeric tokens are
// dropped silently; out-of-range range bounds are clamped.
func ParseList(value string, totalPages int) []int {
	var pages []int
	for _, part := range strings.Split(value, ",") {
		cleaned := strings.TrimSpace(part)
		if cleaned == "" {
			continue
		}
		start, end, ok := parseToken(cleaned)
		if !ok {
			continue
		}
		start = max(1, start)
		end = min(totalPages, end)
		if start > end {
			continue
		}
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
	}
	return pages
}

// ResolvePageSelection parses value and fails user-error when the
// result is empty, for call sites where an empty selection is invalid.
func ResolvePageSelection(value string, totalPages int) ([]int, error) {
	pages := ParseList(value, totalPages)
	if len(pages) == 0 {
		return nil, workererr.User("No valid pages selected")
	}
	return pages, nil
}

func parseToken(token string) (start, end int, ok bool) {
	if idx := strings.IndexByte(token, '-'); idx >= 0 {
		a, errA := strconv.Atoi(strings.TrimSpace(token[:idx]))
		b, errB := strconv.Atoi(strings.TrimSpace(token[idx+1:]))
		if errA != nil || errB != nil {
			return 0, 0, false
		}
		return a, b, true
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, 0, false
	}
	return n, n, true
}

// Margins holds a four-sided inset in PDF points: top, right, bottom, left.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// ParseMargins accepts "N" (all four sides identical) or "T,R,B,L".
// Any other arity, or a non-numeric component, fails user-error.
func ParseMargins(value string) (Margins, error) {
	parts := strings.Split(value, ",")
	nums := make([]float64, 0, len(parts))
	for _, part := range parts {
		cleaned := strings.TrimSpace(part)
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return Margins{}, workererr.Userf("invalid margin value: %q", cleaned)
		}
		nums = append(nums, n)
	}
	for _, n := range nums {
		if n < 0 {
			return Margins{}, workererr.Userf("margins must be non-negative, got %v", n)
		}
	}
	switch len(nums) {
	case 1:
		v := nums[0]
		return Margins{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 4:
		return Margins{Top: nums[0], Right: nums[1], Bottom: nums[2], Left: nums[3]}, nil
	default:
		return Margins{}, workererr.Userf("margins must have 1 or 4 components, got %d", len(nums))
	}
}
