package grading

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decimals is the fixed precision for raw and adjusted scores in logs and storage.
const Decimals = 3

// ErrRejected marks a raw score that is empty, non-numeric or not strictly
// positive. It means "no data yet" rather than a failure.
var ErrRejected = errors.New("raw score rejected")

// ParseScore converts the textual score returned by a score source into a
// usable raw score, rounded to Decimals places.
func ParseScore(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrRejected)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrRejected, s)
	}
	return checkScore(v)
}

// Round rounds v to Decimals places.
func Round(v float64) float64 {
	const p = 1000
	return math.Round(v*p) / p
}

// FormatScore renders v with exactly Decimals places.
func FormatScore(v float64) string {
	return strconv.FormatFloat(Round(v), 'f', Decimals, 64)
}

func checkScore(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrRejected, v)
	}
	v = Round(v)
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s is not positive", ErrRejected, FormatScore(v))
	}
	return v, nil
}
