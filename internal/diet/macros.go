package diet

import (
	"fmt"
	"math"
)

// Energy density of each macronutrient, kcal per gram.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

const macroSumTolerance = 0.01

// MacroProfile is a percentage split of a calorie budget.
type MacroProfile struct {
	CarbsPct   float64 `json:"carbs_pct"`
	ProteinPct float64 `json:"protein_pct"`
	FatsPct    float64 `json:"fats_pct"`
}

func (m MacroProfile) Validate() error {
	for _, pct := range []float64{m.CarbsPct, m.ProteinPct, m.FatsPct} {
		if math.IsNaN(pct) || pct < 0 || pct > 100 {
			return &InvalidMacroProfileError{Profile: m, Reason: "each percentage must be within 0-100"}
		}
	}
	sum := m.CarbsPct + m.ProteinPct + m.FatsPct
	if math.Abs(sum-100) > macroSumTolerance {
		return &InvalidMacroProfileError{Profile: m, Reason: fmt.Sprintf("percentages sum to %.2f, want 100", sum)}
	}
	return nil
}

type DietType string

const (
	DietBalanced      DietType = "balanced"
	DietLowCarb       DietType = "low_carb"
	DietKetogenic     DietType = "ketogenic"
	DietHighProtein   DietType = "high_protein"
	DietMediterranean DietType = "mediterranean"
	DietCustom        DietType = "custom"
)

// DietTypes lists the built-in strategies (custom excluded).
var DietTypes = []DietType{DietBalanced, DietLowCarb, DietKetogenic, DietHighProtein, DietMediterranean}

// builtinProfile is the exhaustive diet → split table.
func builtinProfile(d DietType) (MacroProfile, bool) {
	switch d {
	case DietBalanced:
		return MacroProfile{CarbsPct: 50, ProteinPct: 20, FatsPct: 30}, true
	case DietLowCarb:
		return MacroProfile{CarbsPct: 20, ProteinPct: 35, FatsPct: 45}, true
	case DietKetogenic:
		return MacroProfile{CarbsPct: 5, ProteinPct: 20, FatsPct: 75}, true
	case DietHighProtein:
		return MacroProfile{CarbsPct: 35, ProteinPct: 40, FatsPct: 25}, true
	case DietMediterranean:
		return MacroProfile{CarbsPct: 45, ProteinPct: 20, FatsPct: 35}, true
	}
	return MacroProfile{}, false
}

func ParseDietType(s string) (DietType, error) {
	d := DietType(s)
	if d == DietCustom {
		return d, nil
	}
	if _, ok := builtinProfile(d); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDietType, s)
	}
	return d, nil
}

// Profile resolves the macro split for d. custom is only read for DietCustom,
// where it is required and validated.
func (d DietType) Profile(custom *MacroProfile) (MacroProfile, error) {
	if d == DietCustom {
		if custom == nil {
			return MacroProfile{}, &InvalidMacroProfileError{Reason: "custom diet requires a macro profile"}
		}
		if err := custom.Validate(); err != nil {
			return MacroProfile{}, err
		}
		return *custom, nil
	}
	p, ok := builtinProfile(d)
	if !ok {
		return MacroProfile{}, fmt.Errorf("%w: %q", ErrUnknownDietType, d)
	}
	return p, nil
}

// MacroTargets are whole-gram daily targets.
type MacroTargets struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatsG    int `json:"fats_g"`
}

// Kcal is the energy the rounded targets actually add up to.
func (t MacroTargets) Kcal() int {
	return t.ProteinG*KcalPerGramProtein + t.CarbsG*KcalPerGramCarbs + t.FatsG*KcalPerGramFat
}

// ComputeMacroTargets splits a calorie budget into gram targets, rounding
// half-up to the nearest gram.
func ComputeMacroTargets(targetCalories float64, p MacroProfile) (MacroTargets, error) {
	if err := p.Validate(); err != nil {
		return MacroTargets{}, err
	}
	if math.IsNaN(targetCalories) || math.IsInf(targetCalories, 0) || targetCalories < 0 {
		return MacroTargets{}, &OutOfRangeError{Field: "target_calories", Value: targetCalories, Min: 0, Max: math.Inf(1)}
	}
	return MacroTargets{
		ProteinG: roundHalfUp(targetCalories * p.ProteinPct / 100 / KcalPerGramProtein),
		CarbsG:   roundHalfUp(targetCalories * p.CarbsPct / 100 / KcalPerGramCarbs),
		FatsG:    roundHalfUp(targetCalories * p.FatsPct / 100 / KcalPerGramFat),
	}, nil
}

// roundHalfUp rounds .5 toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
