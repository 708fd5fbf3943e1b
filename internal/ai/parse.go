package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	co2Pattern     = regexp.MustCompile(`\$([0-9]+(?:\.[0-9]+)?)\$`)
	numberRegex    = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	unitRegex      = regexp.MustCompile(`^[ \t]*([a-zA-Z]+)`)
	ErrParseFailed = errors.New("parse_failed")
)

// ParseKgCO2 returns the estimate in kilograms. The strict $<number>$ envelope
// is read as kg; otherwise the longest number is taken and a trailing g or t
// unit converts it.
func ParseKgCO2(text string) (float64, error) {
	if m := co2Pattern.FindStringSubmatch(text); len(m) >= 2 {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		return v, nil
	}
	matches := numberRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: no co2 value found", ErrParseFailed)
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if (m[1] - m[0]) > (best[1] - best[0]) {
			best = m
		}
	}
	v, err := strconv.ParseFloat(text[best[0]:best[1]], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if u := unitRegex.FindStringSubmatch(text[best[1]:]); len(u) >= 2 {
		unit := strings.ToLower(u[1])
		switch {
		case strings.HasPrefix(unit, "kg"):
		case strings.HasPrefix(unit, "g"):
			v /= 1000
		case strings.HasPrefix(unit, "t"):
			v *= 1000
		}
	}
	return v, nil
}
