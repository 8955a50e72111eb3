package diet

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// BasisNutrient is the macro whose gram amount a substitution preserves.
type BasisNutrient string

const (
	BasisProtein BasisNutrient = "protein"
	BasisCarbs   BasisNutrient = "carbs"
	BasisFat     BasisNutrient = "fat"
)

func ParseBasisNutrient(s string) (BasisNutrient, error) {
	switch b := BasisNutrient(s); b {
	case BasisProtein, BasisCarbs, BasisFat:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBasis, s)
}

// Macros holds energy and gram amounts, either per 100 g or for a portion.
type Macros struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
	Fiber   float64 `json:"fiber"`
}

func (m Macros) amount(b BasisNutrient) float64 {
	switch b {
	case BasisProtein:
		return m.Protein
	case BasisCarbs:
		return m.Carbs
	case BasisFat:
		return m.Fats
	}
	return 0
}

// scaled returns the macros for grams of a food described per 100 g, with
// kcal rederived from the scaled macros.
func (m Macros) scaled(grams float64) Macros {
	k := grams / 100
	p, c, f := m.Protein*k, m.Carbs*k, m.Fats*k
	return Macros{
		Kcal:    p*KcalPerGramProtein + c*KcalPerGramCarbs + f*KcalPerGramFat,
		Protein: p,
		Carbs:   c,
		Fats:    f,
		Fiber:   m.Fiber * k,
	}
}

// MacrosOf returns the per-100g profile of a workspace food.
func MacrosOf(f MealFood) Macros {
	return Macros{
		Protein: f.ProteinPer100g,
		Carbs:   f.CarbsPer100g,
		Fats:    f.FatsPer100g,
		Fiber:   f.FiberPer100g,
	}.scaled(100)
}

type SubstitutionCandidate struct {
	FoodID        string `json:"food_id"`
	Name          string `json:"name"`
	Source        string `json:"source"`
	MacrosPer100g Macros `json:"macros_per_100g"`
}

// CandidateFromRecord adapts a catalog record.
func CandidateFromRecord(r FoodRecord) SubstitutionCandidate {
	return SubstitutionCandidate{FoodID: r.ID, Name: r.Name, Source: r.Source, MacrosPer100g: r.MacrosPer100g}
}

type SubstitutionOption struct {
	FoodID              string  `json:"food_id"`
	Name                string  `json:"name"`
	Source              string  `json:"source"`
	EquivalentQuantityG float64 `json:"equivalent_quantity_g"`
	ResultingMacros     Macros  `json:"resulting_macros"`
	MacrosPer100g       Macros  `json:"macros_per_100g"`
}

// AsMealFood turns the option into a workspace food line (id left at 0).
func (o SubstitutionOption) AsMealFood() MealFood {
	return MealFood{
		Name:           o.Name,
		QuantityG:      o.EquivalentQuantityG,
		ProteinPer100g: o.MacrosPer100g.Protein,
		CarbsPer100g:   o.MacrosPer100g.Carbs,
		FatsPer100g:    o.MacrosPer100g.Fats,
		FiberPer100g:   o.MacrosPer100g.Fiber,
	}
}

// FindSubstitutes computes, for each candidate, the quantity that carries the
// same grams of basis as originalQuantityG of original. Candidates with none of
// the basis nutrient cannot match and are dropped. The result is sorted by
// resulting kcal, then by closeness to the original quantity, then by name.
// It is empty, never nil, when nothing qualifies.
func FindSubstitutes(original MealFood, originalQuantityG float64, basis BasisNutrient, candidates []SubstitutionCandidate) ([]SubstitutionOption, error) {
	if _, err := ParseBasisNutrient(string(basis)); err != nil {
		return nil, err
	}
	if err := nonNegative("original_quantity_g", originalQuantityG); err != nil {
		return nil, err
	}

	target := MacrosOf(original).amount(basis) * originalQuantityG / 100

	options := make([]SubstitutionOption, 0, len(candidates))
	for _, c := range candidates {
		per100 := c.MacrosPer100g.amount(basis)
		if !(per100 > 0) || math.IsInf(per100, 0) {
			continue
		}
		qty := target / per100 * 100
		options = append(options, SubstitutionOption{
			FoodID:              c.FoodID,
			Name:                c.Name,
			Source:              c.Source,
			EquivalentQuantityG: qty,
			ResultingMacros:     c.MacrosPer100g.scaled(qty),
			MacrosPer100g:       c.MacrosPer100g,
		})
	}

	slices.SortStableFunc(options, func(a, b SubstitutionOption) int {
		if c := cmp.Compare(a.ResultingMacros.Kcal, b.ResultingMacros.Kcal); c != 0 {
			return c
		}
		da := math.Abs(a.EquivalentQuantityG - originalQuantityG)
		db := math.Abs(b.EquivalentQuantityG - originalQuantityG)
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return options, nil
}
