package main

import "testing"

func TestDescriptionFromFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2026-10-17-003-create-patients.sql", "create patients"},
		{"2026-10-17-005-create-meal-presets.sql", "create meal presets"},
		{"seed.sql", "seed"},
	}
	for _, tc := range cases {
		if got := descriptionFromFilename(tc.in); got != tc.want {
			t.Errorf("descriptionFromFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
