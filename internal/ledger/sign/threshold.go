package sign

import (
	"fmt"
	"strconv"
	"strings"
)

// Threshold is a parsed "N/M" consensus requirement: at least N of M
// discovered signatures must verify and come from trusted keys
// (spec.md §4.10).
type Threshold struct {
	N int
	M int
}

// ParseThreshold parses strings of the form "N/M" with 0 < n <= m.
func ParseThreshold(s string) (Threshold, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return Threshold{}, fmt.Errorf("sign: invalid threshold %q, want N/M", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Threshold{}, fmt.Errorf("sign: invalid threshold numerator %q: %w", parts[0], err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Threshold{}, fmt.Errorf("sign: invalid threshold denominator %q: %w", parts[1], err)
	}
	if n <= 0 || n > m {
		return Threshold{}, fmt.Errorf("sign: threshold %q violates 0 < n <= m", s)
	}
	return Threshold{N: n, M: m}, nil
}

func (t Threshold) String() string {
	return fmt.Sprintf("%d/%d", t.N, t.M)
}
