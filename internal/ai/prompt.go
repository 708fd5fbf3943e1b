package ai

import (
	"fmt"
	"strings"
)

const co2Prompt = `You estimate carbon sequestration for smallholder farms.
From the crop type, land area and number of trees planted, estimate the CO2 removed
in one year, in kilograms of CO2 equivalent (kgCO2e).
Return exactly one number wrapped in dollar signs, for example $350$.
Do not return any other text. If the input is not enough to estimate, return $0$.`

// FarmInput is what the estimator is told about a submission.
type FarmInput struct {
	CropType string
	Area     string
	Trees    string
}

func BuildCO2Prompt(in FarmInput) string {
	field := func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "unknown"
		}
		return v
	}
	return fmt.Sprintf("%s\n\nCrop type: %s\nLand area (acres): %s\nTrees planted: %s",
		co2Prompt, field(in.CropType), field(in.Area), field(in.Trees))
}
