package main

import (
	"strings"
	"testing"

	"lg/diet-planner-api/internal/diet"
)

const sampleLibrary = `
presets:
  - name: Oats bowl
    meal_type: breakfast
    foods:
      - name: Rolled oats
        quantity_g: 60
        protein_per_100g: 13
        carbs_per_100g: 68
        fats_per_100g: 7
        fiber_per_100g: 10
      - name: Semi-skimmed milk
        quantity_g: 200
        protein_per_100g: 3.4
        carbs_per_100g: 5
        fats_per_100g: 1.7
  - name: Keto lunch
    meal_type: lunch
    diet_type: ketogenic
    foods:
      - name: Salmon
        quantity_g: 150
        protein_per_100g: 20
        fats_per_100g: 13
`

func TestLoadLibrary(t *testing.T) {
	presets, err := loadLibrary([]byte(sampleLibrary))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets, want 2", len(presets))
	}
	oats := presets[0]
	if oats.DietType != diet.DietBalanced {
		t.Errorf("default diet type = %q, want balanced", oats.DietType)
	}
	if len(oats.Foods) != 2 || oats.Foods[1].FatsPer100g != 1.7 {
		t.Errorf("oats foods = %+v", oats.Foods)
	}
	if presets[1].DietType != diet.DietKetogenic || presets[1].MealType != "lunch" {
		t.Errorf("keto preset = %+v", presets[1])
	}
}

func TestLoadLibrary_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"not yaml", "presets: [", "parse yaml"},
		{"empty", "presets: []", "no presets"},
		{"missing name", "presets:\n  - foods:\n      - name: x\n        quantity_g: 1\n", "name is required"},
		{"unknown diet", "presets:\n  - name: a\n    diet_type: paleo\n    foods:\n      - name: x\n", "unknown diet type"},
		{"no foods", "presets:\n  - name: a\n", "at least one food"},
		{"negative quantity", "presets:\n  - name: a\n    foods:\n      - name: x\n        quantity_g: -5\n", "negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadLibrary([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}
