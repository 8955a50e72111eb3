package diet

import "context"

// FoodRecord is one catalog hit, with macros per 100 g.
type FoodRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Source        string `json:"source"`
	Group         string `json:"group"`
	MacrosPer100g Macros `json:"macros_per_100g"`
}

type SearchFilters struct {
	Source string
	Limit  int
}

// FoodCatalog looks foods up by name. Timeouts and retries are the
// implementation's concern.
type FoodCatalog interface {
	Search(ctx context.Context, query string, filters SearchFilters) ([]FoodRecord, error)
}

// PatientDataProvider returns a possibly partial profile; fields the source
// does not have stay nil or zero and are rejected by the engine, not guessed.
type PatientDataProvider interface {
	GetProfile(ctx context.Context, patientID int) (PatientProfile, error)
}

// PresetFood is a food line inside a saved preset.
type PresetFood struct {
	Name           string  `json:"name"               yaml:"name"`
	QuantityG      float64 `json:"quantity_g"         yaml:"quantity_g"`
	ProteinPer100g float64 `json:"protein_per_100g"   yaml:"protein_per_100g"`
	CarbsPer100g   float64 `json:"carbs_per_100g"     yaml:"carbs_per_100g"`
	FatsPer100g    float64 `json:"fats_per_100g"      yaml:"fats_per_100g"`
	FiberPer100g   float64 `json:"fiber_per_100g"     yaml:"fiber_per_100g"`
}

// MealPreset is a reusable meal template.
type MealPreset struct {
	ID       int          `json:"id"        yaml:"-"`
	Name     string       `json:"name"      yaml:"name"`
	MealType string       `json:"meal_type" yaml:"meal_type"`
	DietType DietType     `json:"diet_type" yaml:"diet_type"`
	Foods    []PresetFood `json:"foods"     yaml:"foods"`
}

// PresetStore persists presets. An empty mealType or dietType matches all.
type PresetStore interface {
	ListPresets(ctx context.Context, mealType string, dietType DietType) ([]MealPreset, error)
}

// PresetFromMeal captures a workspace meal as a preset for saving.
func PresetFromMeal(name string, dietType DietType, m Meal) MealPreset {
	foods := make([]PresetFood, len(m.Foods))
	for i, f := range m.Foods {
		foods[i] = PresetFood{
			Name:           f.Name,
			QuantityG:      f.QuantityG,
			ProteinPer100g: f.ProteinPer100g,
			CarbsPer100g:   f.CarbsPer100g,
			FatsPer100g:    f.FatsPer100g,
			FiberPer100g:   f.FiberPer100g,
		}
	}
	return MealPreset{Name: name, MealType: m.MealType, DietType: dietType, Foods: foods}
}

func (f PresetFood) mealFood() MealFood {
	return MealFood{
		Name:           f.Name,
		QuantityG:      f.QuantityG,
		ProteinPer100g: f.ProteinPer100g,
		CarbsPer100g:   f.CarbsPer100g,
		FatsPer100g:    f.FatsPer100g,
		FiberPer100g:   f.FiberPer100g,
	}
}
