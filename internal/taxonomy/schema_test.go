package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func findDetail(t *testing.T, s *Schema, detailKey string) *DetailNode {
	t.Helper()
	for i := range s.Mains {
		for j := range s.Mains[i].Subs {
			for k := range s.Mains[i].Subs[j].Details {
				if s.Mains[i].Subs[j].Details[k].Key == detailKey {
					return &s.Mains[i].Subs[j].Details[k]
				}
			}
		}
	}
	t.Fatalf("detail category %q not in schema", detailKey)
	return nil
}

func TestWithoutValueRemovesExample(t *testing.T) {
	base := Default()
	narrowed, err := base.WithoutValue("favourite_cuisine", "Italian")
	if err != nil {
		t.Fatalf("WithoutValue: %v", err)
	}
	for _, ex := range findDetail(t, narrowed, "favourite_cuisine").Examples {
		if ex == "Italian" {
			t.Error("removed attribute still present in narrowed schema")
		}
	}
	// The base schema must be untouched.
	found := false
	for _, ex := range findDetail(t, base, "favourite_cuisine").Examples {
		if ex == "Italian" {
			found = true
		}
	}
	if !found {
		t.Error("narrowing mutated the base schema")
	}
}

func TestWithoutValueNormalizesAttribute(t *testing.T) {
	tests := []struct {
		detail    string
		attribute string
		removed   string
	}{
		{"preferred_temperature", "21 degrees", "21"},
		{"willingness_to_pay_extra_for_green_fuel", "Yes definitely", "Yes"},
		{"distance_willing_to_walk_from_parking_to_destination", "less than 5 min (close)", "less than 5 min"},
	}
	for _, tt := range tests {
		narrowed, err := Default().WithoutValue(tt.detail, tt.attribute)
		if err != nil {
			t.Errorf("WithoutValue(%q, %q): %v", tt.detail, tt.attribute, err)
			continue
		}
		for _, ex := range findDetail(t, narrowed, tt.detail).Examples {
			if ex == tt.removed {
				t.Errorf("normalized attribute %q still present for %q", tt.removed, tt.detail)
			}
		}
	}
}

func TestWithoutValueUnknown(t *testing.T) {
	if _, err := Default().WithoutValue("favourite_cuisine", "Klingon"); err == nil {
		t.Error("expected error for attribute outside the example set")
	}
	if _, err := Default().WithoutValue("no_such_detail", "Italian"); err == nil {
		t.Error("expected error for unknown detail category")
	}
}

func TestWithoutSubcategory(t *testing.T) {
	base := Default()
	narrowed, err := base.WithoutSubcategory("points_of_interest", "restaurant")
	if err != nil {
		t.Fatalf("WithoutSubcategory: %v", err)
	}

	var poi *MainNode
	for i := range narrowed.Mains {
		if narrowed.Mains[i].Key == "points_of_interest" {
			poi = &narrowed.Mains[i]
		}
	}
	if poi == nil {
		t.Fatal("points_of_interest missing from narrowed schema")
	}
	for _, sub := range poi.Subs {
		if sub.Key == "restaurant" {
			t.Error("removed subcategory still present")
		}
	}
	if strings.Contains(poi.Description, "'restaurant'") {
		t.Errorf("description not scrubbed: %q", poi.Description)
	}

	// Base untouched.
	for i := range base.Mains {
		if base.Mains[i].Key == "points_of_interest" && len(base.Mains[i].Subs) != 4 {
			t.Error("narrowing mutated the base schema")
		}
	}

	if _, err := base.WithoutSubcategory("points_of_interest", "music"); err == nil {
		t.Error("expected error for subcategory under a different main category")
	}
}

func TestFunctionParameters(t *testing.T) {
	params := Default().FunctionParameters()
	require.Equal(t, false, params["additionalProperties"], "root must forbid extra fields")

	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	require.Len(t, props, 4)

	poi, ok := props["points_of_interest"].(map[string]any)
	require.True(t, ok, "points_of_interest missing")
	subs, ok := poi["properties"].(map[string]any)
	require.True(t, ok)

	restaurant, ok := subs["restaurant"].(map[string]any)
	require.True(t, ok, "restaurant missing")
	details, ok := restaurant["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, details, "no_or_other_preferences")

	cuisine, ok := details["favourite_cuisine"].(map[string]any)
	require.True(t, ok, "favourite_cuisine missing")
	require.Equal(t, "array", cuisine["type"])

	item, ok := cuisine["items"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, item["additionalProperties"], "output format must forbid extra fields")
	itemProps, ok := item["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, itemProps, "user_sentence_preference_revealed")
	require.Contains(t, itemProps, "user_preference")
}
