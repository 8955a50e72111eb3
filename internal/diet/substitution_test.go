package diet

import (
	"errors"
	"math"
	"testing"
)

func candidate(id string, protein, carbs, fats float64) SubstitutionCandidate {
	return SubstitutionCandidate{FoodID: id, Name: id, Source: "test", MacrosPer100g: Macros{Protein: protein, Carbs: carbs, Fats: fats}}
}

// TestFindSubstitutes_Reference checks the 20g/100g → 25g/100g protein swap
// yields 80g.
func TestFindSubstitutes_Reference(t *testing.T) {
	original := MealFood{Name: "Beef", QuantityG: 100, ProteinPer100g: 20, FatsPer100g: 15}
	opts, err := FindSubstitutes(original, 100, BasisProtein, []SubstitutionCandidate{candidate("tuna", 25, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 {
		t.Fatalf("len(opts) = %d, want 1", len(opts))
	}
	if !approx(opts[0].EquivalentQuantityG, 80, 1e-9) {
		t.Errorf("EquivalentQuantityG = %f, want 80", opts[0].EquivalentQuantityG)
	}
}

// TestFindSubstitutes_PreservesBasis verifies every option carries the same
// grams of the basis nutrient as the original, for each basis.
func TestFindSubstitutes_PreservesBasis(t *testing.T) {
	original := MealFood{Name: "Lentils", ProteinPer100g: 9, CarbsPer100g: 20, FatsPer100g: 0.4}
	candidates := []SubstitutionCandidate{
		candidate("chickpeas", 8.9, 27, 2.6),
		candidate("tofu", 8, 1.9, 4.8),
		candidate("pasta", 5.8, 31, 0.9),
	}

	for _, basis := range []BasisNutrient{BasisProtein, BasisCarbs, BasisFat} {
		t.Run(string(basis), func(t *testing.T) {
			const qty = 180
			want := MacrosOf(original).amount(basis) * qty / 100
			opts, err := FindSubstitutes(original, qty, basis, candidates)
			if err != nil {
				t.Fatal(err)
			}
			if len(opts) != len(candidates) {
				t.Fatalf("len(opts) = %d, want %d", len(opts), len(candidates))
			}
			for _, o := range opts {
				got := o.ResultingMacros.amount(basis)
				if math.Abs(got-want) > 1e-6*want {
					t.Errorf("%s: resulting %s = %f, want %f", o.Name, basis, got, want)
				}
			}
		})
	}
}

// TestFindSubstitutes_FiltersZeroBasis verifies candidates without the basis
// nutrient are excluded rather than producing Inf quantities.
func TestFindSubstitutes_FiltersZeroBasis(t *testing.T) {
	original := MealFood{Name: "Egg", ProteinPer100g: 13, FatsPer100g: 11}
	candidates := []SubstitutionCandidate{
		candidate("apple", 0, 14, 0.2),
		candidate("oil", 0, 0, 100),
		candidate("cheese", 25, 1.3, 33),
	}
	opts, err := FindSubstitutes(original, 50, BasisProtein, candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 || opts[0].FoodID != "cheese" {
		t.Fatalf("opts = %+v, want only cheese", opts)
	}
}

// TestFindSubstitutes_Empty verifies no candidates yields an empty, non-nil list.
func TestFindSubstitutes_Empty(t *testing.T) {
	original := MealFood{ProteinPer100g: 10}
	for _, cands := range [][]SubstitutionCandidate{nil, {candidate("water", 0, 0, 0)}} {
		opts, err := FindSubstitutes(original, 100, BasisProtein, cands)
		if err != nil {
			t.Fatal(err)
		}
		if opts == nil || len(opts) != 0 {
			t.Errorf("opts = %#v, want empty slice", opts)
		}
	}
}

// TestFindSubstitutes_SortedByKcal verifies options come back cheapest first.
func TestFindSubstitutes_SortedByKcal(t *testing.T) {
	original := MealFood{ProteinPer100g: 20}
	candidates := []SubstitutionCandidate{
		candidate("salmon", 20, 0, 13),
		candidate("cod", 18, 0, 0.7),
		candidate("pork", 21, 0, 9),
	}
	opts, err := FindSubstitutes(original, 100, BasisProtein, candidates)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(opts); i++ {
		if opts[i-1].ResultingMacros.Kcal > opts[i].ResultingMacros.Kcal {
			t.Errorf("options not sorted by kcal: %s (%f) before %s (%f)",
				opts[i-1].Name, opts[i-1].ResultingMacros.Kcal, opts[i].Name, opts[i].ResultingMacros.Kcal)
		}
	}
	if opts[0].FoodID != "cod" {
		t.Errorf("first option = %s, want cod", opts[0].FoodID)
	}
}

// TestFindSubstitutes_BadInput covers unknown basis and negative quantity.
func TestFindSubstitutes_BadInput(t *testing.T) {
	if _, err := FindSubstitutes(MealFood{}, 100, "sugar", nil); !errors.Is(err, ErrUnknownBasis) {
		t.Errorf("expected ErrUnknownBasis, got %v", err)
	}
	var oor *OutOfRangeError
	if _, err := FindSubstitutes(MealFood{}, -1, BasisFat, nil); !errors.As(err, &oor) {
		t.Errorf("expected *OutOfRangeError, got %v", err)
	}
}
