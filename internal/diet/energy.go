package diet

import (
	"fmt"
	"math"
)

/* ─── BMR ─────────────────────────────────────────────────────────────── */

// CalculationMethod selects the BMR formula.
type CalculationMethod string

const (
	MethodMifflin            CalculationMethod = "mifflin"
	MethodHarrisBenedict1919 CalculationMethod = "harris_benedict_1919"
	MethodHarrisBenedict1984 CalculationMethod = "harris_benedict_1984"
	MethodKatchMcArdle       CalculationMethod = "katch_mcardle"
	MethodCunningham         CalculationMethod = "cunningham"
)

// CalculationMethods lists every supported formula, in display order.
var CalculationMethods = []CalculationMethod{
	MethodMifflin, MethodHarrisBenedict1919, MethodHarrisBenedict1984,
	MethodKatchMcArdle, MethodCunningham,
}

func ParseCalculationMethod(s string) (CalculationMethod, error) {
	for _, m := range CalculationMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// RequiresLeanMass reports whether the formula is driven by lean body mass
// rather than weight/height/age.
func (m CalculationMethod) RequiresLeanMass() bool {
	return m == MethodKatchMcArdle || m == MethodCunningham
}

// ComputeBMR returns basal metabolic rate in kcal/day at full precision.
// Lean-mass formulas fail with *MissingInputError when the profile carries
// neither lean mass nor body-fat percentage; weight is never substituted.
func ComputeBMR(method CalculationMethod, p PatientProfile) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	w, h, a := p.WeightKg, p.HeightCM(), float64(p.AgeYears)
	male := p.Sex == SexMale

	var bmr float64
	switch method {
	case MethodMifflin:
		// Different constant for male vs female
		bmr = 10*w + 6.25*h - 5*a
		if male {
			bmr += 5
		} else {
			bmr -= 161
		}
	case MethodHarrisBenedict1919:
		if male {
			bmr = 66.47 + 13.75*w + 5.003*h - 6.755*a
		} else {
			bmr = 655.1 + 9.563*w + 1.850*h - 4.676*a
		}
	case MethodHarrisBenedict1984:
		if male {
			bmr = 88.362 + 13.397*w + 4.799*h - 5.677*a
		} else {
			bmr = 447.593 + 9.247*w + 3.098*h - 4.330*a
		}
	case MethodKatchMcArdle, MethodCunningham:
		lbm, ok := p.LeanMass()
		if !ok {
			return 0, &MissingInputError{Method: method, Field: "lean_mass_kg or body_fat_pct"}
		}
		if method == MethodKatchMcArdle {
			bmr = 370 + 21.6*lbm
		} else {
			bmr = 500 + 22*lbm
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	// Extreme ages can push the linear formulas negative.
	return math.Max(bmr, 0), nil
}

/* ─── TDEE ────────────────────────────────────────────────────────────── */

type ActivityLevel string

const (
	ActivitySedentary   ActivityLevel = "sedentary"
	ActivityLight       ActivityLevel = "light"
	ActivityModerate    ActivityLevel = "moderate"
	ActivityVeryActive  ActivityLevel = "very_active"
	ActivityExtraActive ActivityLevel = "extra_active"
)

var ActivityLevels = []ActivityLevel{
	ActivitySedentary, ActivityLight, ActivityModerate, ActivityVeryActive, ActivityExtraActive,
}

// Multiplier returns the TDEE multiplier; ok is false for an unknown level.
func (l ActivityLevel) Multiplier() (float64, bool) {
	switch l {
	case ActivitySedentary:
		return 1.2, true
	case ActivityLight:
		return 1.375, true
	case ActivityModerate:
		return 1.55, true
	case ActivityVeryActive:
		return 1.725, true
	case ActivityExtraActive:
		return 1.9, true
	}
	return 0, false
}

func ParseActivityLevel(s string) (ActivityLevel, error) {
	l := ActivityLevel(s)
	if _, ok := l.Multiplier(); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivityLevel, s)
	}
	return l, nil
}

// ComputeTDEE scales BMR by the activity multiplier.
func ComputeTDEE(bmr float64, level ActivityLevel) (float64, error) {
	if math.IsNaN(bmr) || math.IsInf(bmr, 0) {
		return 0, fmt.Errorf("bmr is not finite: %v", bmr)
	}
	mult, ok := level.Multiplier()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivityLevel, level)
	}
	return bmr * mult, nil
}

/* ─── Goal adjustment ─────────────────────────────────────────────────── */

const (
	MinGoalAdjustmentKcal = -500
	MaxGoalAdjustmentKcal = 500
)

// ClampGoalAdjustment pins a deficit/surplus to [-500, +500] kcal.
func ClampGoalAdjustment(adj int) int {
	if adj > MaxGoalAdjustmentKcal {
		return MaxGoalAdjustmentKcal
	}
	if adj < MinGoalAdjustmentKcal {
		return MinGoalAdjustmentKcal
	}
	return adj
}

// ComputeTargetCalories applies the clamped adjustment to TDEE. The result
// never goes below zero.
func ComputeTargetCalories(tdee float64, adj int) float64 {
	return math.Max(tdee+float64(ClampGoalAdjustment(adj)), 0)
}
