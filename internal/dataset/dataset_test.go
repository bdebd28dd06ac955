package dataset

import (
	"path/filepath"
	"testing"
)

func TestParsePreference(t *testing.T) {
	gt, err := ParsePreference("Points of Interest; Restaurant; Favorite Cuisine; Italian")
	if err != nil {
		t.Fatalf("ParsePreference: %v", err)
	}
	want := GroundTruth{
		MainCategory:   "points_of_interest",
		Subcategory:    "restaurant",
		DetailCategory: "favourite_cuisine",
		Attribute:      "Italian",
	}
	if gt != want {
		t.Errorf("got %+v, want %+v", gt, want)
	}
}

func TestParsePreferenceErrors(t *testing.T) {
	cases := []string{
		"Points of Interest; Restaurant; Favorite Cuisine", // missing attribute
		"Hobbies; Restaurant; Favorite Cuisine; Italian",   // unknown main
		"Points of Interest; Cinema; Favorite Cuisine; Italian",
		"Points of Interest; Restaurant; Favorite Planet; Mars",
	}
	for _, s := range cases {
		if _, err := ParsePreference(s); err == nil {
			t.Errorf("ParsePreference(%q): expected error", s)
		}
	}
}

func TestUsername(t *testing.T) {
	r := UserRecord{UserUUID: "a1b2c3d4-0000-0000-0000-000000000000"}
	name, err := r.Username()
	if err != nil {
		t.Fatalf("Username: %v", err)
	}
	if name != "john-a1b2" {
		t.Errorf("got %q, want john-a1b2", name)
	}

	r.UserUUID = "not-a-uuid"
	if _, err := r.Username(); err == nil {
		t.Error("expected error for invalid uuid")
	}
}

func TestStringify(t *testing.T) {
	conv := []Turn{
		{"USER": "I love Italian food."},
		{"VOICE_ASSISTANT": "Noted, anything else?"},
		{"USER": "That's all."},
	}
	got := Stringify(conv, "john-a1b2")
	want := "User john-a1b2: I love Italian food.\n" +
		"Voice Assistant: Noted, anything else?\n" +
		"User john-a1b2: That's all."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReadUsersAndAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	records := []UserRecord{
		{
			UserUUID: "a1b2c3d4-0000-0000-0000-000000000000",
			Data: []Conversation{{
				UserPreference: "Points of Interest; Restaurant; Favorite Cuisine; Italian",
				ExtractionConversation: []Turn{
					{"USER": "I love Italian food."},
					{"VOICE_ASSISTANT": "Noted."},
				},
				MaintenanceQuestions: &MaintenanceQuestions{
					QuestionEqualPreference:     "Find me an Italian restaurant, I love Italian.",
					QuestionNegatePreference:    "I don't like Italian food anymore.",
					QuestionDifferentPreference: "I also enjoy Chinese food a lot.",
					DifferentAttribute:          "Chinese",
				},
			}},
		},
		{UserUUID: "b2c3d4e5-0000-0000-0000-000000000000"},
	}
	for _, r := range records {
		if err := AppendLine(path, r); err != nil {
			t.Fatalf("AppendLine: %v", err)
		}
	}

	got, err := ReadUsers(path)
	if err != nil {
		t.Fatalf("ReadUsers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Data[0].MaintenanceQuestions.DifferentAttribute != "Chinese" {
		t.Errorf("round trip lost maintenance questions: %+v", got[0].Data[0])
	}
}

func TestReadUsersMissingFile(t *testing.T) {
	if _, err := ReadUsers(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarkPreferenceStrings(t *testing.T) {
	record := UserRecord{
		Data: []Conversation{
			{
				UserPreference: "Points of Interest; Restaurant; Favorite Cuisine; Italian",
				ExtractionConversation: []Turn{
					{"USER": "I love Italian food."},
					{"VOICE_ASSISTANT": "Noted."},
				},
			},
			{
				UserPreference: "Points of Interest; Restaurant; Favorite Cuisine; Italian",
				ExtractionConversation: []Turn{
					{"USER": "I like food from the south of Europe."},
					{"VOICE_ASSISTANT": "Italian cuisine perhaps?"},
				},
			},
		},
	}
	MarkPreferenceStrings(&record)

	if !record.Data[0].PreferenceStringInConversation || !record.Data[0].PreferenceStringInUserSentences {
		t.Errorf("first conversation: %+v", record.Data[0])
	}
	// Attribute appears only in the assistant turn.
	if !record.Data[1].PreferenceStringInConversation || record.Data[1].PreferenceStringInUserSentences {
		t.Errorf("second conversation: %+v", record.Data[1])
	}
}
