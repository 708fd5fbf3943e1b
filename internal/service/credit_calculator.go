package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	creditsPerArea = 5
	creditsPerTree = 2

	minValidationCredits = 10
	maxValidationCredits = 30

	// Upper bounds for a single submission; credits stay far below MaxInt64.
	MaxArea      = 1e6
	MaxTreeCount = 1e8
)

var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// ComputeCredits returns floor(area*5 + trees*2). Missing, zero, negative or
// NaN inputs count as 1.
func ComputeCredits(area, treeCount float64) int64 {
	area = orOne(area)
	treeCount = orOne(treeCount)
	v := math.Floor(area*creditsPerArea + treeCount*creditsPerTree)
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// CheckFarmInput rejects area or tree values above MaxArea / MaxTreeCount.
func CheckFarmInput(area, trees string) error {
	if ParseArea(area) > MaxArea {
		return invalid("area", fmt.Sprintf("must be at most %g", float64(MaxArea)))
	}
	if ParseTreeCount(trees) > MaxTreeCount {
		return invalid("trees", fmt.Sprintf("must be at most %g", float64(MaxTreeCount)))
	}
	return nil
}

// ParseArea reads the leading decimal of s ("2.5 acres" is 2.5).
func ParseArea(s string) float64 {
	return parsePrefix(leadingDecimal, s)
}

// ParseTreeCount reads the leading integer of s ("15 Mango trees" is 15, "15.7" is 15).
func ParseTreeCount(s string) float64 {
	return parsePrefix(leadingInteger, s)
}

// CreditsFromInput applies the form fallbacks and computes the award.
func CreditsFromInput(area, trees string) int64 {
	return ComputeCredits(ParseArea(area), ParseTreeCount(trees))
}

// RandSource is satisfied by *rand.Rand from math/rand/v2.
type RandSource interface {
	IntN(n int) int
}

// ComputeValidationCredits draws uniformly from [10, 30].
func ComputeValidationCredits(r RandSource) int64 {
	return int64(minValidationCredits + r.IntN(maxValidationCredits-minValidationCredits+1))
}

func parsePrefix(re *regexp.Regexp, s string) float64 {
	m := re.FindString(strings.TrimSpace(s))
	if m == "" {
		return 1
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 1
	}
	return orOne(v)
}

func orOne(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 1
	}
	return v
}
