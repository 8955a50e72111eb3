// CLI tool to load a YAML preset library into meal_presets / meal_preset_foods.
// Presets are matched on (name, meal_type, diet_type); an existing preset is
// replaced with the file's version. Each preset is written in its own transaction.
// Usage: go run ./cmd/import-presets [-dry-run] presets.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lg/diet-planner-api/internal/diet"
)

// library is the top-level shape of the YAML file.
type library struct {
	Presets []diet.MealPreset `yaml:"presets"`
}

// loadLibrary parses and validates a preset file. Presets without a diet
// type default to balanced.
func loadLibrary(data []byte) ([]diet.MealPreset, error) {
	var lib library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(lib.Presets) == 0 {
		return nil, errors.New("no presets in file")
	}
	for i := range lib.Presets {
		p := &lib.Presets[i]
		if p.DietType == "" {
			p.DietType = diet.DietBalanced
		}
		if err := validatePreset(*p); err != nil {
			return nil, fmt.Errorf("preset %d (%q): %w", i+1, p.Name, err)
		}
	}
	return lib.Presets, nil
}

func validatePreset(p diet.MealPreset) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if _, err := diet.ParseDietType(string(p.DietType)); err != nil {
		return err
	}
	if len(p.Foods) == 0 {
		return errors.New("at least one food is required")
	}
	for _, f := range p.Foods {
		if f.Name == "" {
			return errors.New("food name is required")
		}
		for _, v := range []float64{f.QuantityG, f.ProteinPer100g, f.CarbsPer100g, f.FatsPer100g, f.FiberPer100g} {
			if v < 0 {
				return fmt.Errorf("food %q has a negative value", f.Name)
			}
		}
	}
	return nil
}

// importPreset replaces any preset with the same key and inserts p's foods.
func importPreset(ctx context.Context, conn *pgx.Conn, p diet.MealPreset) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	key := pgx.NamedArgs{"name": p.Name, "mealType": p.MealType, "dietType": string(p.DietType)}
	if _, err := tx.Exec(ctx,
		"DELETE FROM meal_presets WHERE name = @name AND meal_type = @mealType AND diet_type = @dietType", key); err != nil {
		return err
	}

	var id int
	if err := tx.QueryRow(ctx,
		"INSERT INTO meal_presets (name, meal_type, diet_type) VALUES (@name, @mealType, @dietType) RETURNING id", key,
	).Scan(&id); err != nil {
		return err
	}

	for i, f := range p.Foods {
		if _, err := tx.Exec(ctx,
			`INSERT INTO meal_preset_foods
			   (preset_id, position, name, quantity_g, protein_per_100g, carbs_per_100g, fats_per_100g, fiber_per_100g)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, i, f.Name, f.QuantityG, f.ProteinPer100g, f.CarbsPer100g, f.FatsPer100g, f.FiberPer100g); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func main() {
	dryRun := flag.Bool("dry-run", false, "validate the file without writing to the database")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: import-presets [-dry-run] presets.yaml")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	presets, err := loadLibrary(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid preset file: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("%d preset(s) valid.\n", len(presets))
		return
	}

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	for _, p := range presets {
		if err := importPreset(ctx, conn, p); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", p.Name, err)
			os.Exit(1)
		}
		fmt.Printf("  imported: %s (%s, %s, %d foods)\n", p.Name, p.MealType, p.DietType, len(p.Foods))
	}
	fmt.Printf("\n%d preset(s) imported.\n", len(presets))
}
