package taxonomy

import (
	"testing"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

func TestTreeShape(t *testing.T) {
	if got := len(Mains()); got != 4 {
		t.Fatalf("expected 4 main categories, got %d", got)
	}
	subCount, detailCount := 0, 0
	for _, m := range Mains() {
		for _, s := range SubsOf(m.Key) {
			subCount++
			detailCount += len(DetailsOf(s.Key))
		}
	}
	if subCount != 11 {
		t.Errorf("expected 11 subcategories, got %d", subCount)
	}
	if detailCount != 41 {
		t.Errorf("expected 41 detail categories, got %d", detailCount)
	}
}

func TestOrdinalsAreDenseAndUnique(t *testing.T) {
	seen := map[int]string{}
	check := func(name string, ordinal int) {
		if prev, dup := seen[ordinal]; dup {
			t.Errorf("ordinal %d assigned to both %q and %q", ordinal, prev, name)
		}
		seen[ordinal] = name
	}
	for _, m := range Mains() {
		check(m.Key, m.Ordinal)
		for _, s := range SubsOf(m.Key) {
			check(s.Key, s.Ordinal)
			for _, d := range DetailsOf(s.Key) {
				check(d.Key, d.Ordinal)
			}
		}
	}
	// 0..3 mains, 4..14 subs, 15..55 details; 4 and 56 are reserved.
	for i := 0; i <= 55; i++ {
		if i == OrdinalNoMainCategory {
			continue
		}
		if _, ok := seen[i]; !ok {
			t.Errorf("ordinal %d unassigned", i)
		}
	}
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		value string
		level string
		want  int
	}{
		{"points_of_interest", LevelMain, 0},
		{"Entertainment and Media", LevelMain, 3},
		{"No Main Category", LevelMain, 4},
		{"restaurant", LevelSub, 4},
		{"Radio and Podcasts", LevelSub, 14},
		{"favourite_cuisine", LevelDetail, 15},
		{"Favorite Cuisine", LevelDetail, 15},
		{"general_news_source", LevelDetail, 55},
		{"other", LevelDetail, 56},
	}
	for _, tt := range tests {
		got, err := Ordinal(tt.value, tt.level)
		if err != nil {
			t.Errorf("Ordinal(%q, %q): %v", tt.value, tt.level, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Ordinal(%q, %q) = %d, want %d", tt.value, tt.level, got, tt.want)
		}
	}

	if _, err := Ordinal("favourite_cuisine", LevelMain); err == nil {
		t.Error("expected error for detail key at main level")
	}
	if _, err := Ordinal("bogus", LevelDetail); err == nil {
		t.Error("expected error for unknown value")
	}
	if _, err := Ordinal("restaurant", "bogus_level"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestCardinalityOf(t *testing.T) {
	tests := []struct {
		detail string
		want   domain.Cardinality
	}{
		{"favourite_cuisine", domain.MultiplePossible},
		{"dietary_preference", domain.MultiplePossible},
		{"preferred_temperature", domain.MultipleNotPossible},
		{"desired_price_range", domain.MultipleNotPossible},
		{"favorite_genres", domain.MultiplePossible},
		{"preferred_parking_type", domain.MultipleNotPossible},
	}
	for _, tt := range tests {
		got, err := CardinalityOf(tt.detail)
		if err != nil {
			t.Errorf("CardinalityOf(%q): %v", tt.detail, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CardinalityOf(%q) = %q, want %q", tt.detail, got, tt.want)
		}
	}

	if _, err := CardinalityOf("not_a_category"); err == nil {
		t.Error("expected error for unknown detail category")
	}
}

func TestInternalKey(t *testing.T) {
	key, err := InternalKey("Dietary Preferences", LevelDetail)
	if err != nil {
		t.Fatalf("InternalKey: %v", err)
	}
	if key != "dietary_preference" {
		t.Errorf("got %q, want dietary_preference", key)
	}
	// Keys map to themselves.
	key, err = InternalKey("climate_control", LevelSub)
	if err != nil || key != "climate_control" {
		t.Errorf("got %q, %v", key, err)
	}
}
