package eval

import (
	"testing"

	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/dataset"
)

func TestCategoryLabels(t *testing.T) {
	labels, err := CategoryLabels("points_of_interest", "restaurant", "favourite_cuisine")
	if err != nil {
		t.Fatalf("CategoryLabels: %v", err)
	}
	if labels != [3]int{0, 4, 15} {
		t.Errorf("labels = %v, want [0 4 15]", labels)
	}

	// Display labels work too.
	labels, err = CategoryLabels("Entertainment and Media", "Music", "Favorite Genres")
	if err != nil {
		t.Fatalf("CategoryLabels: %v", err)
	}
	if labels != [3]int{3, 13, 48} {
		t.Errorf("labels = %v, want [3 13 48]", labels)
	}

	if _, err := CategoryLabels("bogus", "restaurant", "favourite_cuisine"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestExpectedAction(t *testing.T) {
	tests := []struct {
		q    QuestionType
		want domain.ActionName
	}{
		{QuestionEqual, domain.ActionPass},
		{QuestionNegate, domain.ActionUpdate},
		{QuestionDifferent, domain.ActionAppend},
	}
	for _, tt := range tests {
		got, err := ExpectedAction(tt.q)
		if err != nil {
			t.Errorf("ExpectedAction(%q): %v", tt.q, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpectedAction(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
	if _, err := ExpectedAction("similar"); err == nil {
		t.Error("expected error for unknown question type")
	}
}

func cuisineTruth() dataset.GroundTruth {
	return dataset.GroundTruth{
		MainCategory:   "points_of_interest",
		Subcategory:    "restaurant",
		DetailCategory: "favourite_cuisine",
		Attribute:      "Italian",
	}
}

func extractedCuisine() domain.Preference {
	return domain.Preference{
		MainCategory:   "points_of_interest",
		Subcategory:    "restaurant",
		DetailCategory: "favourite_cuisine",
		Attribute:      "Italian",
	}
}

func TestExtractionScorer(t *testing.T) {
	s := NewExtractionScorer(false)

	// Exact hit, valid on first try.
	if err := s.Add(cuisineTruth(), []domain.Preference{extractedCuisine()}, 1); err != nil {
		t.Fatal(err)
	}
	// Wrong detail category, valid on retry.
	wrong := extractedCuisine()
	wrong.DetailCategory = "dietary_preference"
	if err := s.Add(cuisineTruth(), []domain.Preference{wrong}, 2); err != nil {
		t.Fatal(err)
	}
	// Spurious extra preference fails the set comparison.
	if err := s.Add(cuisineTruth(), []domain.Preference{extractedCuisine(), wrong}, 1); err != nil {
		t.Fatal(err)
	}
	// Invalid extraction is tallied but not scored.
	if err := s.Add(cuisineTruth(), nil, 0); err != nil {
		t.Fatal(err)
	}

	scores := s.Scores()
	if scores.Conversations != 4 || scores.Scored != 3 {
		t.Errorf("conversations/scored = %d/%d, want 4/3", scores.Conversations, scores.Scored)
	}
	if scores.ValidAtTry1 != 2 || scores.ValidAtTry2 != 1 || scores.Invalid != 1 {
		t.Errorf("valid tallies = %d/%d/%d", scores.ValidAtTry1, scores.ValidAtTry2, scores.Invalid)
	}
	if want := 1.0 / 3.0; scores.DetailAccuracy != want {
		t.Errorf("detail accuracy = %v, want %v", scores.DetailAccuracy, want)
	}
	// Main and sub categories match in all three scored conversations.
	if scores.MainAccuracy != 1 || scores.SubAccuracy != 1 {
		t.Errorf("main/sub accuracy = %v/%v, want 1/1", scores.MainAccuracy, scores.SubAccuracy)
	}
}

func TestExtractionScorerSongIsGenre(t *testing.T) {
	s := NewExtractionScorer(true)
	truth := dataset.GroundTruth{
		MainCategory:   "entertainment_and_media",
		Subcategory:    "music",
		DetailCategory: "favorite_songs",
	}
	extracted := domain.Preference{
		MainCategory:   "entertainment_and_media",
		Subcategory:    "music",
		DetailCategory: "favorite_artists_or_bands",
	}
	if err := s.Add(truth, []domain.Preference{extracted}, 1); err != nil {
		t.Fatal(err)
	}
	if got := s.Scores().DetailAccuracy; got != 1 {
		t.Errorf("detail accuracy = %v, want 1 with song folded into genre", got)
	}
}

func TestMaintenanceScorer(t *testing.T) {
	s := NewMaintenanceScorer()

	add := func(policy domain.Cardinality, q QuestionType, action domain.ActionName, existing int, violation bool) {
		t.Helper()
		if err := s.Add(policy, q, action, existing, violation); err != nil {
			t.Fatal(err)
		}
	}

	add(domain.MultiplePossible, QuestionEqual, domain.ActionPass, 1, false)
	add(domain.MultiplePossible, QuestionEqual, domain.ActionAppend, 2, false)
	add(domain.MultiplePossible, QuestionDifferent, domain.ActionAppend, 1, false)
	add(domain.MultipleNotPossible, QuestionNegate, domain.ActionUpdate, 1, false)
	add(domain.MultipleNotPossible, QuestionNegate, domain.ActionPass, 1, true)
	s.SkipNegate()

	scores := s.Scores()

	equalMP := scores.Tallies[domain.MultiplePossible][QuestionEqual]
	if equalMP.Total != 2 || equalMP.Correct != 1 {
		t.Errorf("MP equal tally = %+v", equalMP)
	}
	if equalMP.Accuracy() != 0.5 {
		t.Errorf("MP equal accuracy = %v, want 0.5", equalMP.Accuracy())
	}
	negateMNP := scores.Tallies[domain.MultipleNotPossible][QuestionNegate]
	if negateMNP.Total != 2 || negateMNP.Correct != 1 {
		t.Errorf("MNP negate tally = %+v", negateMNP)
	}
	if scores.SkippedNegate != 1 {
		t.Errorf("skipped negate = %d, want 1", scores.SkippedNegate)
	}
	if scores.ProtocolViolations != 1 {
		t.Errorf("protocol violations = %d, want 1", scores.ProtocolViolations)
	}
	if want := 6.0 / 5.0; scores.MeanExistingPreferences != want {
		t.Errorf("mean existing = %v, want %v", scores.MeanExistingPreferences, want)
	}
}
