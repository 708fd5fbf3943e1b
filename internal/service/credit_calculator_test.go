package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCredits(t *testing.T) {
	tests := []struct {
		name        string
		area, trees float64
		want        int64
	}{
		{"example", 2, 10, 30},
		{"zeros default to one", 0, 0, 7},
		{"fractional", 2.5, 15, 42},
		{"negative defaults to one", -3, 4, 13},
		{"nan defaults to one", math.NaN(), 1, 7},
		{"floors", 0.3, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeCredits(tt.area, tt.trees); got != tt.want {
				t.Fatalf("ComputeCredits(%v, %v)=%d want %d", tt.area, tt.trees, got, tt.want)
			}
		})
	}
}

func TestCreditsFromInput(t *testing.T) {
	tests := []struct {
		area, trees string
		want        int64
	}{
		{"2", "10", 30},
		{"2.5 acres", "15 Mango trees", 42},
		{"", "", 7},
		{"abc", "xyz", 7},
		{"1", "15.7", 35},
		{".5", "0", 4},
	}
	for _, tt := range tests {
		if got := CreditsFromInput(tt.area, tt.trees); got != tt.want {
			t.Errorf("CreditsFromInput(%q, %q)=%d want %d", tt.area, tt.trees, got, tt.want)
		}
	}
}

func TestComputeCreditsSaturates(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), ComputeCredits(1e20, 1))
	assert.Equal(t, int64(math.MaxInt64), ComputeCredits(1, math.MaxFloat64))
}

func TestCheckFarmInput(t *testing.T) {
	tests := []struct {
		area, trees string
		field       string
	}{
		{"2.5 acres", "15", ""},
		{"", "", ""},
		{"1000000", "100000000", ""},
		{"100000000000000000000", "1", "area"},
		{"1800000000000000000", "1", "area"},
		{"1", "100000001", "trees"},
	}
	for _, tt := range tests {
		err := CheckFarmInput(tt.area, tt.trees)
		if tt.field == "" {
			assert.NoError(t, err, "%q/%q", tt.area, tt.trees)
			assert.Positive(t, CreditsFromInput(tt.area, tt.trees))
			continue
		}
		var ve *ValidationError
		if assert.ErrorAs(t, err, &ve, "%q/%q", tt.area, tt.trees) {
			assert.Equal(t, tt.field, ve.Field)
		}
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestComputeValidationCredits(t *testing.T) {
	if got := ComputeValidationCredits(stubRand(0)); got != 10 {
		t.Fatalf("min=%d", got)
	}
	if got := ComputeValidationCredits(stubRand(1 << 20)); got != 30 {
		t.Fatalf("max=%d", got)
	}
	if got := ComputeValidationCredits(globalRand{}); got < 10 || got > 30 {
		t.Fatalf("out of range: %d", got)
	}
}
